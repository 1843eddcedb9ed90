package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"ipblocks/cidr"
)

// from https://github.com/c0re100/qBittorrent-Enhanced-Edition/blob/v4_6_x/src/base/bittorrent/peer_blacklist.hpp

var blocklist = []string{
	"-(XL|SD|XF|QD|BN|DL|TS|FG|TT|NX|XP|FD6)(\\d+)-",
	`cacao_torrent`,

	// Offline Downloader filter
	"-LT(1220|2070)-",

	// BitTorrent Media Player Peer
	"Elementum",
	"^-UW\\w{4}-", // uTorrent Web.
	"^-SP(([0-2]\\d{3})|(3[0-5]\\d{2}))-", "StellarPlayer",

	// others
	"^-XL", "Xunlei",
	"xunlei",
	"thunder",
	`[Gg][Tt][[:digit:]]{4}`,
	`[Dd][Tt][[:digit:]]{4}`,
	`[Hh][Pp][[:digit:]]{4}`,
	"^-DT", "dt[ /]torrent", "^-HP", "hp[ /]torrent", "^-XM", "xm[ /]torrent",
	"-TT", "-tt",
	"xl0012",
	"xf",
	"dandanplay",
	"dl3760",
	"qq",

	"anacrolix[ /]torrent v?([0-1]\\.(([0-9]|[0-4][0-9]|[0-5][0-2])\\.[0-9]+|(53\\.[0-2]( |$)))|unknown)",
	"trafficConsume",
	"go[ \\.]torrent",
	"Taipei-Torrent dev",
	"qBittorrent[ /]3\\.3\\.15",
	"gobind", "offline-download",
	"ljyun.cn",
}

// othersRules are always blocked, on top of the downloaded rule file.
var othersRules = []string{
	"1.180.24.0/23",
	"36.102.218.0/24",
	"101.69.63.0/24",
	"112.45.16.0/24",
	"112.45.20.0/24",
	"115.231.84.120/29",
	"115.231.84.128/28",
	"122.224.33.0/24",
	"123.184.152.0/24",
	"218.7.138.0/24",
	"221.11.96.0/24",
	"221.203.3.0/24",
	"221.203.6.0/24",
	"223.78.79.0/24",
	"223.78.80.0/24",
}

const (
	rulesFile  = "all.txt"
	customFile = "custom.txt"
)

type Regexps []*regexp.Regexp

// compileRegexps compiles patterns, logging and skipping the broken ones.
func compileRegexps(patterns []string) Regexps {
	var r Regexps
	for _, v := range patterns {
		rg, err := regexp.Compile(v)
		if err != nil {
			slog.Warn("compile", "pattern", v, "err", err)
			continue
		}
		r = append(r, rg)
	}
	return r
}

func (r Regexps) MatchString(s ...string) bool {
	for _, v := range r {
		for _, v2 := range s {
			if v.MatchString(v2) {
				return true
			}
		}
	}
	return false
}

// filter parses rule lines into ranges. Blank lines, comments and
// anything that is not IPv4 are skipped.
func filter(lines []string) []cidr.Range {
	var ret []cidr.Range
	for _, v := range lines {
		v = stripComment(v)
		if v == "" {
			continue
		}

		r, err := cidr.ParseEntry(v)
		if err != nil {
			slog.Debug("skip rule", "rule", v, "err", err)
			continue
		}
		ret = append(ret, r)
	}
	return ret
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i != -1 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func readRuleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}

// loadRules returns the built-in rules merged with all.txt and custom.txt
// from dir. A missing all.txt is reported so the caller can download it.
func loadRules(dir string) ([]cidr.Range, error) {
	lines := append([]string(nil), othersRules...)

	all, err := readRuleFile(filepath.Join(dir, rulesFile))
	if err == nil {
		lines = append(lines, all...)
	}

	custom, cerr := readRuleFile(filepath.Join(dir, customFile))
	if cerr != nil && !os.IsNotExist(cerr) {
		slog.Warn("read custom rules", "err", cerr)
	}
	lines = append(lines, custom...)

	return cidr.MergeRanges(filter(lines)), err
}

// refreshRules downloads the shared rule file into dir.
func refreshRules(ctx context.Context, url, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("fetch rules: %d %s", resp.StatusCode, data)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	sh256 := sha256.Sum256(b)
	slog.Info("refresh rules", "bytes", len(b), "sha256", hex.EncodeToString(sh256[:]))

	return os.WriteFile(filepath.Join(dir, rulesFile), b, 0644)
}
