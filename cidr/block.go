package cidr

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Block is an aligned CIDR block: Base has its low 32-Prefix bits cleared.
type Block struct {
	Base   Address
	Prefix int
}

// ParseBlock parses "a.b.c.d/p". The base is masked to the prefix, so
// "10.1.2.3/8" yields 10.0.0.0/8.
func ParseBlock(s string) (Block, error) {
	if strings.Count(s, "/") != 1 {
		return Block{}, errors.Wrapf(ErrMissingPrefix, "cidr %q", s)
	}
	text, bits, _ := strings.Cut(s, "/")

	prefix, err := parsePrefix(bits)
	if err != nil {
		return Block{}, errors.Wrapf(ErrInvalidPrefix, "cidr %q", s)
	}

	addr, err := ParseAddress(text)
	if err != nil {
		return Block{}, err
	}

	return Block{Base: addr & mask(prefix), Prefix: prefix}, nil
}

// only plain decimal digits, strconv.Atoi would also take signs
func parsePrefix(s string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, strconv.ErrSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	n, _ := strconv.Atoi(s)
	if n > 32 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// mask returns the netmask for prefix; shifting by 32 yields 0 for /0.
func mask(prefix int) Address {
	return ^Address(0) << uint(32-prefix)
}

// Size is the number of addresses in the block, up to 1<<32 for /0.
func (b Block) Size() uint64 { return 1 << uint(32-b.Prefix) }

func (b Block) Range() Range {
	return Range{Start: b.Base, End: Address(uint64(b.Base) + b.Size() - 1)}
}

func (b Block) String() string {
	return b.Base.String() + "/" + strconv.Itoa(b.Prefix)
}

// RangeOf returns the inclusive address range covered by a CIDR string.
func RangeOf(cidr string) (Range, error) {
	b, err := ParseBlock(cidr)
	if err != nil {
		return Range{}, err
	}
	return b.Range(), nil
}
