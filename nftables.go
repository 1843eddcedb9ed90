package main

import (
	"encoding/binary"
	"log/slog"
	"slices"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
	"golang.org/x/sys/unix"

	"ipblocks/cidr"
)

var (
	IPv4_l3OffsetSrc = 12
	IPv4_l3OffsetDst = 16
	IPv4_l3AddrLen   = 4
)

var (
	TABLENAME = "ipblocks"
	SETNAME   = "ip4set"
)

// Nftables rejects traffic from and to an interval set of blocked
// ranges in an inet table.
type Nftables struct {
	conn  *nftables.Conn
	table *nftables.Table
	chain *nftables.Chain
	set   *nftables.Set

	initialized bool
}

func NewNftables() (*Nftables, error) {
	c, err := nftables.New(nftables.AsLasting())
	if err != nil {
		return nil, err
	}

	table := &nftables.Table{
		Name:   TABLENAME,
		Family: nftables.TableFamilyINet,
	}

	return &Nftables{
		conn:  c,
		table: table,
		chain: &nftables.Chain{
			Name:     "prerouting",
			Table:    table,
			Type:     nftables.ChainTypeFilter,
			Hooknum:  nftables.ChainHookPrerouting,
			Priority: nftables.ChainPriorityFilter,
		},
		set: &nftables.Set{
			Name:     SETNAME,
			Table:    table,
			Interval: true,
			KeyType:  nftables.TypeIPAddr,
		},
	}, nil
}

// Apply makes the set hold exactly the given blocks, merged into ranges.
func (n *Nftables) Apply(blocks []cidr.Block) error {
	if !n.initialized {
		if err := n.initTable(); err != nil {
			return err
		}
		n.initialized = true
	}

	ranges := cidr.MergeRanges(blockRanges(blocks))

	existing, err := n.conn.GetSetElements(n.set)
	if err != nil {
		return err
	}

	addSets, deleteSets := diff(decodeElements(existing), ranges)

	slog.Info("apply elements", "add", len(addSets), "delete", len(deleteSets))

	rangeSet := func(sets []cidr.Range, operate func(set *nftables.Set, elements []nftables.SetElement) error) {
		for _, v := range sets {
			if er := operate(n.set, rangeElements(v)); er != nil {
				slog.Error("set elements", "range", v, "err", er)
			}

			if err := n.conn.Flush(); err != nil {
				slog.Warn("flush", "range", v, "err", err)
			}
		}
	}

	rangeSet(deleteSets, n.conn.SetDeleteElements)
	rangeSet(addSets, n.conn.SetAddElements)

	return nil
}

func (n *Nftables) initTable() error {
	tableExist, err := n.TableExist()
	if err != nil {
		return err
	}

	chainExist, err := n.ChainExist()
	if err != nil {
		return err
	}

	setMap := map[string]bool{}
	setRuleMap := map[string]bool{}

	if tableExist {
		if setMap, err = n.SetsMap(); err != nil {
			return err
		}
	}

	if chainExist {
		if setRuleMap, err = n.SetRuleMap(); err != nil {
			return err
		}
	}

	if !tableExist {
		n.conn.CreateTable(n.table)
	}

	if !chainExist {
		n.conn.AddChain(n.chain)
	}

	if !setMap[SETNAME] {
		if err = n.AddSet(); err != nil {
			return err
		}
	}

	if !setRuleMap[SETNAME] {
		n.AddDropMatchSetRule(false)
		n.AddDropMatchSetRule(true)
	}

	return n.conn.Flush()
}

func blockRanges(blocks []cidr.Block) []cidr.Range {
	ranges := make([]cidr.Range, 0, len(blocks))
	for _, b := range blocks {
		ranges = append(ranges, b.Range())
	}
	return ranges
}

func addrKey(a cidr.Address) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(a))
}

// rangeElements encodes r as an interval: the start key and an exclusive
// end key. A range reaching 255.255.255.255 has no end key to encode and
// is left open.
func rangeElements(r cidr.Range) []nftables.SetElement {
	elements := []nftables.SetElement{{Key: addrKey(r.Start)}}
	if r.End != cidr.MaxAddress {
		elements = append(elements, nftables.SetElement{Key: addrKey(r.End + 1), IntervalEnd: true})
	}
	return elements
}

// decodeElements turns interval set elements, in any order, back into
// inclusive ranges.
func decodeElements(elements []nftables.SetElement) []cidr.Range {
	sorted := slices.Clone(elements)
	slices.SortStableFunc(sorted, func(a, b nftables.SetElement) int {
		return slices.Compare(a.Key, b.Key)
	})

	var (
		ranges []cidr.Range
		open   bool
		start  cidr.Address
	)
	for _, e := range sorted {
		if len(e.Key) != 4 {
			continue
		}
		key := cidr.Address(binary.BigEndian.Uint32(e.Key))

		switch {
		case !e.IntervalEnd:
			if open {
				ranges = append(ranges, cidr.Range{Start: start, End: key - 1})
			}
			open, start = true, key
		case open:
			ranges = append(ranges, cidr.Range{Start: start, End: key - 1})
			open = false
		}
	}
	if open {
		ranges = append(ranges, cidr.Range{Start: start, End: cidr.MaxAddress})
	}
	return ranges
}

func diff(oldRanges, newRanges []cidr.Range) (added, deleted []cidr.Range) {
	oldSet := make(map[cidr.Range]bool, len(oldRanges))
	for _, r := range oldRanges {
		oldSet[r] = true
	}
	newSet := make(map[cidr.Range]bool, len(newRanges))
	for _, r := range newRanges {
		newSet[r] = true
		if !oldSet[r] {
			added = append(added, r)
		}
	}
	for _, r := range oldRanges {
		if !newSet[r] {
			deleted = append(deleted, r)
		}
	}
	return
}

func (n *Nftables) AddSet() error {
	return n.conn.AddSet(&nftables.Set{
		Name:      SETNAME,
		Table:     n.table,
		Interval:  true,
		AutoMerge: true,
		Counter:   true,
		KeyType:   nftables.TypeIPAddr,
	}, []nftables.SetElement{})
}

func (n *Nftables) AddDropMatchSetRule(dst bool) {
	offset := IPv4_l3OffsetSrc
	if dst {
		offset = IPv4_l3OffsetDst
	}

	n.conn.AddRule(&nftables.Rule{
		Table: n.table,
		Chain: n.chain,
		Exprs: []expr.Any{
			&expr.Meta{
				Key:      expr.MetaKeyNFPROTO,
				Register: 1,
			},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     []byte{byte(nftables.TableFamilyIPv4)},
			},
			&expr.Payload{
				OperationType: expr.PayloadLoad,
				DestRegister:  1,
				Base:          expr.PayloadBaseNetworkHeader,
				Offset:        uint32(offset),
				Len:           uint32(IPv4_l3AddrLen),
			},
			&expr.Lookup{
				SourceRegister: 1,
				SetName:        SETNAME,
			},
			&expr.Counter{},
			&expr.Reject{
				Type: unix.NFT_REJECT_ICMP_UNREACH,
				// Network Unreachable
				Code: 0,
			},
		},
	})
}

func (n *Nftables) TableExist() (bool, error) {
	tbs, err := n.conn.ListTables()
	if err != nil {
		return false, err
	}

	for _, v := range tbs {
		if v.Name == n.table.Name {
			return true, nil
		}
	}

	return false, nil
}

func (n *Nftables) ChainExist() (bool, error) {
	cs, err := n.conn.ListChains()
	if err != nil {
		return false, err
	}

	for _, v := range cs {
		if v.Table.Name == n.table.Name && v.Name == n.chain.Name {
			return true, nil
		}
	}

	return false, nil
}

func (n *Nftables) SetsMap() (map[string]bool, error) {
	setss, err := n.conn.GetSets(n.table)
	if err != nil {
		return map[string]bool{}, err
	}

	setMap := map[string]bool{}
	for _, v := range setss {
		setMap[v.Name] = true
	}

	return setMap, nil
}

func (n *Nftables) SetRuleMap() (map[string]bool, error) {
	rs, err := n.conn.GetRules(n.table, n.chain)
	if err != nil {
		return map[string]bool{}, err
	}

	setMap := map[string]bool{}

	for _, r := range rs {
		for _, v := range r.Exprs {
			x, ok := v.(*expr.Lookup)
			if !ok {
				continue
			}

			setMap[x.SetName] = true
		}
	}

	return setMap, nil
}

func (n *Nftables) Close() error {
	return n.conn.CloseLasting()
}
