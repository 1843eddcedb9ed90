// Package cidr converts between IPv4 CIDR blocks, address ranges and lists
// of addresses, and compacts address sets into CIDR blocks.
package cidr

import (
	"encoding/binary"
	"math"
	"net/netip"

	"github.com/pkg/errors"
)

// Address is an IPv4 address as a 32-bit integer.
type Address uint32

const MaxAddress Address = math.MaxUint32

// ParseAddress converts dotted-quad text to an Address.
func ParseAddress(s string) (Address, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil || !ip.Is4() {
		return 0, errors.Wrapf(ErrInvalidFormat, "address %q", s)
	}
	return FromAddr(ip), nil
}

// FromAddr converts an IPv4 netip.Addr to an Address. The result is
// undefined for IPv6 addresses.
func FromAddr(ip netip.Addr) Address {
	b := ip.As4()
	return Address(binary.BigEndian.Uint32(b[:]))
}

// Addr converts addr back to a netip.Addr.
func (addr Address) Addr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(addr))
	return netip.AddrFrom4(b)
}

func (addr Address) String() string {
	return addr.Addr().String()
}
