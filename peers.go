package main

import (
	"log/slog"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/samber/lo"
)

// matchPeers returns the peers of seeding torrents whose client name
// matches one of regexps, one entry per address.
func matchPeers(torrents []transmissionrpc.Torrent, regexps Regexps) []entry {
	var clientAddress []entry

	for _, v := range torrents {
		if v.Status == nil || *v.Status != transmissionrpc.TorrentStatusSeed {
			continue
		}

		for _, p := range v.Peers {
			if regexps.MatchString(p.ClientName) {
				slog.Debug("match peer", "addr", p.Address, "client", p.ClientName)
				clientAddress = append(clientAddress, entry{addr: p.Address, client: p.ClientName})
			}
		}
	}

	return lo.UniqBy(clientAddress, func(e entry) string { return e.addr })
}
