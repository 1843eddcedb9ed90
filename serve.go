package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"ipblocks/cidr"
)

type firewall interface {
	Apply(blocks []cidr.Block) error
}

type transmission interface {
	TorrentGetAll(ctx context.Context) ([]transmissionrpc.Torrent, error)
	BlocklistUpdate(ctx context.Context) (int64, error)
}

type daemon struct {
	cfg      Config
	store    *Store
	cli      transmission
	regexps  Regexps
	rules    []cidr.Range
	firewall firewall
	now      func() time.Time
}

func newFirewall(kind string) (firewall, error) {
	switch strings.ToLower(kind) {
	case firewallIptables:
		return NewIptables()
	case firewallNftables:
		return NewNftables()
	}
	return nil, nil
}

func serve(ctx context.Context, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	store, err := OpenStore(cfg.DB)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	u, err := url.Parse(cfg.RPC)
	if err != nil {
		return errors.Wrap(err, "parse rpc url")
	}

	cli, err := transmissionrpc.New(u, nil)
	if err != nil {
		return errors.Wrap(err, "transmission client")
	}

	fw, err := newFirewall(cfg.Firewall)
	if err != nil {
		return errors.Wrap(err, "firewall")
	}
	if n, ok := fw.(*Nftables); ok {
		defer n.Close()
	}

	rules, err := loadRules(cfg.RulesDir)
	if err != nil && cfg.RulesURL != "" {
		slog.Info("rules missing, downloading", "url", cfg.RulesURL)
		if err := refreshRules(ctx, cfg.RulesURL, cfg.RulesDir); err != nil {
			slog.Warn("refresh rules", "err", err)
		}
		rules, _ = loadRules(cfg.RulesDir)
	}
	slog.Info("loaded rules", "ranges", len(rules))

	d := &daemon{
		cfg:      cfg,
		store:    store,
		cli:      cli,
		regexps:  compileRegexps(cfg.Clients),
		rules:    rules,
		firewall: fw,
		now:      time.Now,
	}

	if err := saveBlocklist(cfg.File, rules); err != nil {
		return errors.Wrap(err, "write blocklist")
	}

	srv := &http.Server{Addr: cfg.Listen, Handler: http.FileServer(&fm{cfg.File})}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	slog.Info("serving blocklist", "addr", cfg.Listen, "file", cfg.File)

	timer := time.NewTicker(cfg.Interval)
	defer timer.Stop()

	for {
		if err := d.run(ctx); err != nil {
			slog.Error("run", "err", err)
		}

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errc:
			return err
		case <-timer.C:
		}
	}
}

// run does one round: record matching peers, rebuild the blocklist from
// the live store plus the static rules, and push it out.
func (d *daemon) run(ctx context.Context) error {
	at, err := d.cli.TorrentGetAll(ctx)
	if err != nil {
		return errors.Wrap(err, "get torrents")
	}

	now := d.now()
	if err := d.store.Add(now, matchPeers(at, d.regexps)...); err != nil {
		return errors.Wrap(err, "store peers")
	}

	addrs, err := d.store.Addresses(now, d.cfg.Expire)
	if err != nil {
		return errors.Wrap(err, "read store")
	}

	runs := cidr.PartitionAddresses(addrs)
	ranges := cidr.MergeRanges(append(runs, d.rules...))
	slog.Info("blocklist", "addresses", len(addrs), "runs", len(runs), "ranges", len(ranges))

	if err := saveBlocklist(d.cfg.File, ranges); err != nil {
		return errors.Wrap(err, "write blocklist")
	}

	entries, err := d.cli.BlocklistUpdate(ctx)
	if err != nil {
		slog.Warn("BlocklistUpdate", "err", err)
	} else {
		slog.Info("BlocklistUpdate", "entries", entries)
	}

	if d.firewall == nil {
		return nil
	}

	blocks := cidr.BlocksOf(ranges)
	if d.cfg.SkipLocal {
		blocks = lo.Reject(blocks, func(b cidr.Block, _ int) bool { return isLocal(b) })
	}
	return d.firewall.Apply(blocks)
}

// isLocal reports whether the whole block is private or loopback space.
func isLocal(b cidr.Block) bool {
	r := b.Range()
	local := func(a cidr.Address) bool {
		ip := a.Addr()
		return ip.IsPrivate() || ip.IsLoopback()
	}
	return local(r.Start) && local(r.End)
}
