package cidr

import (
	"iter"
	"math/bits"
	"slices"

	"github.com/pkg/errors"
)

// Range is an inclusive address range, Start <= End.
type Range struct {
	Start, End Address
}

func (r Range) Size() uint64 { return uint64(r.End) - uint64(r.Start) + 1 }

func (r Range) Contains(addr Address) bool { return addr >= r.Start && addr <= r.End }

func (r Range) String() string { return r.Start.String() + "-" + r.End.String() }

// Addresses yields every address of r in ascending order. The sequence is
// lazy and can be ranged over any number of times.
func (r Range) Addresses() iter.Seq[Address] {
	return func(yield func(Address) bool) {
		for a := uint64(r.Start); a <= uint64(r.End); a++ {
			if !yield(Address(a)) {
				return
			}
		}
	}
}

// Blocks covers r exactly with the fewest aligned CIDR blocks, in
// ascending order. Each step takes the largest block that both starts
// aligned at s and does not run past End.
func (r Range) Blocks() []Block {
	var result []Block
	s, end := uint64(r.Start), uint64(r.End)
	for s <= end {
		prefix := max(prefixLength(xor(end+1, s)), 32-trailingZeros(s))
		result = append(result, Block{Base: Address(s), Prefix: prefix})
		s += 1 << uint(32-prefix)
	}
	return result
}

func xor(a, b uint64) uint64 { return a ^ b }

// prefixLength is the prefix of the largest block that fits below the
// highest differing bit of x.
func prefixLength(x uint64) int {
	return 33 - bits.Len64(x)
}

func trailingZeros(x uint64) int {
	return min(bits.TrailingZeros64(x), 32)
}

// List returns the addresses of cidr as text, lazily.
func List(cidr string) (iter.Seq[string], error) {
	if cidr == "" {
		return nil, errors.Wrap(ErrUndefinedInput, "list")
	}

	r, err := RangeOf(cidr)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		for a := range r.Addresses() {
			if !yield(a.String()) {
				return
			}
		}
	}, nil
}

// ListAll is List collected into a slice. A /8 is 16777216 strings; prefer
// List for anything that large.
func ListAll(cidr string) ([]string, error) {
	seq, err := List(cidr)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}
