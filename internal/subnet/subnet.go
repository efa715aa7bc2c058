package subnet

import (
	"fmt"
	"math"
	"net/netip"
	"strings"
)

// LargeSweep is the host count above which a sweep is worth a warning.
// Hosts are contacted one at a time with a multi-second timeout, so a /16
// already takes days when nothing answers.
const LargeSweep = 65536

// preallocCap bounds the up-front allocation for a single expansion.
const preallocCap = 1 << 16

// Parse parses a subnet in CIDR notation. A bare address is accepted and
// treated as a single-host network. Host bits are masked off, so
// "192.168.1.7/24" is the same network as "192.168.1.0/24".
func Parse(cidr string) (netip.Prefix, error) {
	s := strings.TrimSpace(cidr)
	if s == "" {
		return netip.Prefix{}, &InvalidSubnetError{Input: cidr, Err: fmt.Errorf("empty subnet")}
	}

	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, &InvalidSubnetError{Input: cidr, Err: err}
		}
		addr = addr.WithZone("")
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, &InvalidSubnetError{Input: cidr, Err: err}
	}
	return prefix.Masked(), nil
}

// Count returns the number of addresses Expand would yield for cidr
// without materialising them.
func Count(cidr string) (uint64, error) {
	prefix, err := Parse(cidr)
	if err != nil {
		return 0, err
	}
	return hostCount(prefix), nil
}

// Expand returns the host addresses to contact for cidr in ascending order.
//
// A single-address network (/32 or /128) yields that address. Otherwise the
// usable hosts are returned: IPv4 networks exclude the network and broadcast
// addresses, IPv6 networks exclude the Subnet-Router anycast address. Point
// to point networks (/31, /127) yield both addresses.
func Expand(cidr string) ([]netip.Addr, error) {
	prefix, err := Parse(cidr)
	if err != nil {
		return nil, err
	}

	return hosts(prefix, int(min(hostCount(prefix), preallocCap))), nil
}

// CountAll returns the combined host count of cidrs, saturating instead of
// overflowing. Overlaps are counted twice.
func CountAll(cidrs []string) (uint64, error) {
	var total uint64
	for _, cidr := range cidrs {
		n, err := Count(cidr)
		if err != nil {
			return 0, err
		}
		if total+n < total {
			return math.MaxUint64, nil
		}
		total += n
	}
	return total, nil
}

// CheckLimit fails with a TooLargeError when cidrs hold more than limit
// hosts. A limit of 0 means no limit.
func CheckLimit(cidrs []string, limit uint64) error {
	n, err := CountAll(cidrs)
	if err != nil {
		return err
	}
	if limit > 0 && n > limit {
		return &TooLargeError{Subnet: strings.Join(cidrs, ","), Hosts: n, Limit: limit}
	}
	return nil
}

// ExpandAll expands every subnet in order and concatenates the results.
// The first invalid subnet aborts the whole expansion. Addresses covered by
// more than one subnet are kept once, at their first position.
func ExpandAll(cidrs []string) ([]netip.Addr, error) {
	for _, cidr := range cidrs {
		if _, err := Parse(cidr); err != nil {
			return nil, err
		}
	}

	seen := make(map[netip.Addr]bool)
	var all []netip.Addr

	for _, cidr := range cidrs {
		addrs, err := Expand(cidr)
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			all = append(all, addr)
		}
	}

	return all, nil
}

func hosts(prefix netip.Prefix, n int) []netip.Addr {
	network := prefix.Addr()
	hostBits := network.BitLen() - prefix.Bits()

	if hostBits == 0 {
		return []netip.Addr{network}
	}

	first := network
	last := lastAddr(prefix)
	if hostBits > 1 {
		first = network.Next()
		if network.Is4() {
			last = last.Prev()
		}
	}

	out := make([]netip.Addr, 0, n)
	for addr := first; ; addr = addr.Next() {
		out = append(out, addr)
		if addr == last {
			break
		}
	}
	return out
}

func hostCount(prefix netip.Prefix) uint64 {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	switch {
	case hostBits == 0:
		return 1
	case hostBits == 1:
		return 2
	case hostBits >= 63:
		// Saturates; such a sweep never finishes anyway.
		return 1 << 63
	}

	total := uint64(1) << uint(hostBits)
	if prefix.Addr().Is4() {
		return total - 2
	}
	return total - 1
}

// lastAddr returns the highest address in prefix (the IPv4 broadcast).
func lastAddr(prefix netip.Prefix) netip.Addr {
	b := prefix.Masked().Addr().AsSlice()
	for i := prefix.Bits(); i < len(b)*8; i++ {
		b[i/8] |= 0x80 >> uint(i%8)
	}
	last, _ := netip.AddrFromSlice(b)
	return last
}
