package main

import (
	"log/slog"
	"strings"

	"github.com/coreos/go-iptables/iptables"
	"github.com/samber/lo"

	"ipblocks/cidr"
)

var iptablesChain = "ipblocks"

// Iptables drops traffic to the blocked CIDR blocks with one rule per
// block in a dedicated chain jumped to from OUTPUT.
type Iptables struct {
	ipt   *iptables.IPTables
	chain string
}

func NewIptables() (*Iptables, error) {
	ipt, err := iptables.New()
	if err != nil {
		return nil, err
	}
	return &Iptables{ipt: ipt, chain: iptablesChain}, nil
}

func (i *Iptables) Apply(blocks []cidr.Block) error {
	ok, err := i.ipt.ChainExists("filter", i.chain)
	if err != nil {
		return err
	}

	if !ok {
		if err = i.ipt.NewChain("filter", i.chain); err != nil {
			return err
		}
	}

	if err = i.ipt.AppendUnique("filter", "OUTPUT", "-j", i.chain); err != nil {
		return err
	}

	rules, err := i.ipt.List("filter", i.chain)
	if err != nil {
		return err
	}

	want := lo.Map(blocks, func(b cidr.Block, _ int) string { return b.String() })
	deleteAddress, addAddress := lo.Difference(dropTargets(rules), want)

	if len(addAddress) > 0 || len(deleteAddress) > 0 {
		slog.Info("apply iptables", "add", len(addAddress), "delete", len(deleteAddress))
	}

	for _, v := range addAddress {
		if err := i.ipt.AppendUnique("filter", i.chain, "-d", v, "-j", "DROP"); err != nil {
			slog.Error("iptables append", "block", v, "err", err)
		}
	}

	for _, v := range deleteAddress {
		if err := i.ipt.Delete("filter", i.chain, "-d", v, "-j", "DROP"); err != nil {
			slog.Error("iptables delete", "block", v, "err", err)
		}
	}

	return nil
}

// dropTargets extracts the destination of every "-A chain -d X -j DROP"
// rule, as printed by iptables -S.
func dropTargets(rules []string) []string {
	var targets []string
	for _, v := range rules {
		if !strings.HasPrefix(v, "-A") || !strings.Contains(v, "-j DROP") {
			continue
		}

		fields := strings.Fields(v)
		for j := 0; j+1 < len(fields); j++ {
			if fields[j] == "-d" {
				targets = append(targets, fields[j+1])
				break
			}
		}
	}
	return targets
}
