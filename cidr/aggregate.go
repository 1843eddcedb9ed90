package cidr

import "github.com/samber/lo"

// Aggregate summarizes addrs as CIDR block strings. A run holding a single
// address is emitted as the bare address; longer runs are split with
// Range.Blocks. Output follows run order, then block order within a run.
func Aggregate(addrs []string) ([]string, error) {
	runs, err := Partition(addrs)
	if err != nil {
		return nil, err
	}

	return lo.FlatMap(runs, func(run Range, _ int) []string {
		if run.Start == run.End {
			return []string{run.Start.String()}
		}
		return lo.Map(run.Blocks(), func(b Block, _ int) string { return b.String() })
	}), nil
}

// BlocksOf flattens ranges into CIDR blocks, keeping their order.
func BlocksOf(ranges []Range) []Block {
	return lo.FlatMap(ranges, func(r Range, _ int) []Block { return r.Blocks() })
}
