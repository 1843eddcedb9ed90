package cidr

import "github.com/pkg/errors"

var (
	// ErrMissingPrefix is returned when a CIDR string has no "/" separator.
	ErrMissingPrefix = errors.New("missing prefix length")
	// ErrInvalidPrefix is returned when the prefix length is not an integer in [0,32].
	ErrInvalidPrefix = errors.New("invalid prefix length")
	// ErrInvalidFormat is returned for text that is not a dotted-quad IPv4 address.
	ErrInvalidFormat = errors.New("invalid address format")
	// ErrEmptyInput is returned when an address list is empty.
	ErrEmptyInput = errors.New("empty address list")
	// ErrUndefinedInput is returned when a required argument was not given at all.
	ErrUndefinedInput = errors.New("undefined input")
)
