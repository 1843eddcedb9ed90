package cidr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		input      string
		start, end string
	}{
		{"1.2.3.4", "1.2.3.4", "1.2.3.4"},
		{"1.2.3.4/30", "1.2.3.4", "1.2.3.7"},
		{"1.2.3.4-1.2.4.0", "1.2.3.4", "1.2.4.0"},
		{"1.2.3.4 - 1.2.3.4", "1.2.3.4", "1.2.3.4"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			r, err := ParseEntry(tc.input)
			require.NoError(t, err)
			require.Equal(t, rangeOf(t, tc.start, tc.end), r)
		})
	}
}

func TestParseEntryErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"", ErrUndefinedInput},
		{"1.2.3.4/40", ErrInvalidPrefix},
		{"1.2.3.5-1.2.3.4", ErrInvalidFormat},
		{"1.2.3.4-", ErrInvalidFormat},
		{"2001:db8::1", ErrInvalidFormat},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseEntry(tc.input)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMergeRanges(t *testing.T) {
	in := []Range{
		rangeOf(t, "10.0.0.8", "10.0.0.15"),
		rangeOf(t, "10.0.0.0", "10.0.0.7"),
		rangeOf(t, "10.0.0.20", "10.0.0.30"),
		rangeOf(t, "10.0.0.25", "10.0.0.26"),
		rangeOf(t, "10.0.1.0", "10.0.1.0"),
		rangeOf(t, "255.255.255.0", "255.255.255.255"),
		rangeOf(t, "255.255.255.255", "255.255.255.255"),
	}

	require.Equal(t, []Range{
		rangeOf(t, "10.0.0.0", "10.0.0.15"),
		rangeOf(t, "10.0.0.20", "10.0.0.30"),
		rangeOf(t, "10.0.1.0", "10.0.1.0"),
		rangeOf(t, "255.255.255.0", "255.255.255.255"),
	}, MergeRanges(in))

	require.Equal(t, rangeOf(t, "10.0.0.8", "10.0.0.15"), in[0])
	require.Empty(t, MergeRanges(nil))
}
