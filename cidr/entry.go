package cidr

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ParseEntry accepts a single address, a CIDR block or an inclusive
// "start-end" range and returns the range it covers.
func ParseEntry(text string) (Range, error) {
	if text == "" {
		return Range{}, errors.Wrap(ErrUndefinedInput, "entry")
	}
	if strings.IndexByte(text, '/') != -1 {
		return RangeOf(text)
	}
	if start, end, ok := strings.Cut(text, "-"); ok {
		s, err := ParseAddress(strings.TrimSpace(start))
		if err != nil {
			return Range{}, err
		}
		e, err := ParseAddress(strings.TrimSpace(end))
		if err != nil {
			return Range{}, err
		}
		if e < s {
			return Range{}, errors.Wrapf(ErrInvalidFormat, "range %q ends before it starts", text)
		}
		return Range{Start: s, End: e}, nil
	}

	addr, err := ParseAddress(text)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: addr, End: addr}, nil
}

// MergeRanges sorts ranges and merges the ones that overlap or touch.
// The input slice is not modified.
func MergeRanges(ranges []Range) []Range {
	if len(ranges) < 2 {
		return slices.Clone(ranges)
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int { return cmp.Compare(a.Start, b.Start) })

	res := make([]Range, 0, len(sorted))
	now := sorted[0]
	for _, r := range sorted[1:] {
		if now.End == MaxAddress || r.Start <= now.End+1 {
			now.End = max(now.End, r.End)
			continue
		}
		res = append(res, now)
		now = r
	}
	return append(res, now)
}
