package main

import (
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"ipblocks/cidr"
)

var bucketName = []byte("blocklist")

type entry struct {
	time   uint64
	addr   string
	client string
}

// Store keeps blocked peer addresses in a bbolt bucket, keyed by address
// text, with the unix time they were last seen.
type Store struct {
	db *bbolt.DB
}

func OpenStore(path string) (*Store, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	db, err := bbolt.Open(path, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add records entries as seen at now.
func (s *Store) Add(now time.Time, entries ...entry) error {
	if len(entries) == 0 {
		return nil
	}

	return s.db.Batch(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}

		for _, v := range entries {
			if err := b.Put([]byte(v.addr), newRecord(uint64(now.Unix()), v.client)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Range calls f for every entry seen within expire of now and deletes the
// older ones.
func (s *Store) Range(now time.Time, expire time.Duration, f func(v entry)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}

		var stale [][]byte
		err = b.ForEach(func(k, v []byte) error {
			if len(v) < 8 {
				stale = append(stale, k)
				return nil
			}

			rec := record(v)
			if now.Sub(time.Unix(int64(rec.Time()), 0)) > expire {
				stale = append(stale, k)
				return nil
			}

			f(entry{time: rec.Time(), addr: string(k), client: rec.Client()})
			return nil
		})
		if err != nil {
			return err
		}

		// the bucket must not change while ForEach runs
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Addresses returns the live addresses of the store.
func (s *Store) Addresses(now time.Time, expire time.Duration) ([]cidr.Address, error) {
	var addrs []cidr.Address
	err := s.Range(now, expire, func(v entry) {
		a, err := cidr.ParseAddress(v.addr)
		if err != nil {
			slog.Debug("skip stored address", "addr", v.addr, "err", err)
			return
		}
		addrs = append(addrs, a)
	})
	return addrs, err
}

// record is a stored value: 8 bytes of big endian unix time, then the
// client name.
type record []byte

func newRecord(time uint64, client string) record {
	buf := make([]byte, 8+len(client))

	binary.BigEndian.PutUint64(buf, time)
	copy(buf[8:], client)

	return buf
}

func (r record) Time() uint64 {
	if len(r) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(r[:8])
}

func (r record) Client() string {
	if len(r) < 8 {
		return ""
	}
	return string(r[8:])
}
