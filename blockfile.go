package main

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ipblocks/cidr"
)

// writeBlocklist writes ranges in the P2P plaintext format transmission
// reads, "name:start-end" per line.
func writeBlocklist(w io.Writer, ranges []cidr.Range) error {
	bw := bufio.NewWriter(w)
	for i, r := range ranges {
		if _, err := fmt.Fprintf(bw, "Autogen%d:%s\n", i, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// saveBlocklist writes ranges to path and a gzip copy to path.gz.
func saveBlocklist(path string, ranges []cidr.Range) (err error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer closeErr(f, &err)

	fgz, err := os.OpenFile(path+".gz", os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer closeErr(fgz, &err)

	gw := gzip.NewWriter(fgz)
	defer closeErr(gw, &err)

	return writeBlocklist(io.MultiWriter(f, gw), ranges)
}

func closeErr(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = errors.Wrap(cerr, "close blocklist")
	}
}

// fm serves the blocklist file and its gzip copy, nothing else.
type fm struct {
	file string
}

func (f *fm) Open(name string) (http.File, error) {
	tp := strings.TrimPrefix(name, "/")
	base := filepath.Base(f.file)
	switch tp {
	case base:
		return os.Open(f.file)
	case base + ".gz":
		return os.Open(f.file + ".gz")
	}
	return nil, os.ErrNotExist
}
