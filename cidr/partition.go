package cidr

import (
	"slices"

	"github.com/pkg/errors"
)

// Partition parses addrs and groups them into maximal runs of consecutive
// addresses, returned as ranges in ascending order. Duplicate addresses
// are folded into one before grouping.
//
// A nil slice fails with ErrUndefinedInput and an empty one with
// ErrEmptyInput. The first malformed address fails the whole call.
func Partition(addrs []string) ([]Range, error) {
	if addrs == nil {
		return nil, errors.Wrap(ErrUndefinedInput, "partition")
	}
	if len(addrs) == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "partition")
	}

	parsed := make([]Address, 0, len(addrs))
	for _, v := range addrs {
		addr, err := ParseAddress(v)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, addr)
	}

	return PartitionAddresses(parsed), nil
}

// PartitionAddresses is Partition for already parsed addresses. The input
// slice is not modified.
func PartitionAddresses(addrs []Address) []Range {
	if len(addrs) == 0 {
		return nil
	}

	sorted := slices.Clone(addrs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	runs := make([]Range, 0, 1)
	now := Range{Start: sorted[0], End: sorted[0]}
	for _, addr := range sorted[1:] {
		// sorted and unique, so now.End+1 cannot wrap here
		if addr == now.End+1 {
			now.End = addr
			continue
		}
		runs = append(runs, now)
		now = Range{Start: addr, End: addr}
	}
	return append(runs, now)
}
