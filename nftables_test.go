package main

import (
	"testing"

	"github.com/google/nftables"
	"github.com/stretchr/testify/require"

	"ipblocks/cidr"
)

func TestRangeElements(t *testing.T) {
	elements := rangeElements(cidr.Range{Start: addr(t, "10.0.0.0"), End: addr(t, "10.0.0.255")})
	require.Equal(t, []nftables.SetElement{
		{Key: []byte{10, 0, 0, 0}},
		{Key: []byte{10, 0, 1, 0}, IntervalEnd: true},
	}, elements)

	elements = rangeElements(cidr.Range{Start: addr(t, "255.255.255.0"), End: cidr.MaxAddress})
	require.Equal(t, []nftables.SetElement{{Key: []byte{255, 255, 255, 0}}}, elements)
}

func TestDecodeElements(t *testing.T) {
	ranges := []cidr.Range{
		{Start: addr(t, "1.1.1.1"), End: addr(t, "1.1.1.1")},
		{Start: addr(t, "10.0.0.0"), End: addr(t, "10.0.0.255")},
		{Start: addr(t, "255.255.255.0"), End: cidr.MaxAddress},
	}

	var elements []nftables.SetElement
	for i := len(ranges) - 1; i >= 0; i-- {
		// the kernel lists intervals end first, newest first
		e := rangeElements(ranges[i])
		for j := len(e) - 1; j >= 0; j-- {
			elements = append(elements, e[j])
		}
	}
	elements = append(elements, nftables.SetElement{Key: []byte{1, 2, 3}})

	require.Equal(t, ranges, decodeElements(elements))
}

func TestDiff(t *testing.T) {
	a := cidr.Range{Start: 1, End: 2}
	b := cidr.Range{Start: 5, End: 9}
	c := cidr.Range{Start: 20, End: 20}

	added, deleted := diff([]cidr.Range{a, b}, []cidr.Range{b, c})
	require.Equal(t, []cidr.Range{c}, added)
	require.Equal(t, []cidr.Range{a}, deleted)
}

func TestBlockRanges(t *testing.T) {
	blocks := cidr.BlocksOf([]cidr.Range{{Start: addr(t, "10.0.0.1"), End: addr(t, "10.0.0.6")}})
	require.Equal(t,
		[]cidr.Range{{Start: addr(t, "10.0.0.1"), End: addr(t, "10.0.0.6")}},
		cidr.MergeRanges(blockRanges(blocks)))
}
