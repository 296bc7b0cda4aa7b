package cryptopan

import (
	"fmt"
	"net"
)

// Family identifies an address family for the family-tagged entry points.
type Family int

const (
	// FamilyV4 is IPv4: the family-tagged call requires at least 4 bytes
	// and passes the first 4 to the generic transform.
	FamilyV4 Family = iota
	// FamilyV6 is IPv6: the family-tagged call requires at least 16 bytes
	// and passes the first 16 to the generic transform.
	FamilyV6
)

// macLen is the byte length of a MAC-48 address.
const macLen = 6

// AnonymiseFamily dispatches addr to the generic byte-cascade transform
// after checking it is long enough for the declared family: at least 4
// bytes for FamilyV4, at least 16 for FamilyV6. A family other than
// FamilyV4/FamilyV6 returns ErrInvalidFamily.
func (a *Anonymiser) AnonymiseFamily(addr []byte, fam Family) ([]byte, error) {
	n, err := familyLen(fam)
	if err != nil {
		return nil, err
	}
	if len(addr) < n {
		return nil, ErrInvalidInput
	}
	return a.Anonymise(addr[:n])
}

// DeanonymiseFamily is the inverse of AnonymiseFamily.
func (a *Anonymiser) DeanonymiseFamily(addr []byte, fam Family) ([]byte, error) {
	n, err := familyLen(fam)
	if err != nil {
		return nil, err
	}
	if len(addr) < n {
		return nil, ErrInvalidInput
	}
	return a.Deanonymise(addr[:n])
}

func familyLen(fam Family) (int, error) {
	switch fam {
	case FamilyV4:
		return 4, nil
	case FamilyV6:
		return MaxAddrLen, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidFamily, fam)
	}
}

// AnonymiseIP anonymises a parsed net.IP, returning a net.IP of the same
// family. It always calls the generic byte path (never the family-tagged
// one): the byte-cascade does not special-case L==4, so the 4-byte and
// generic paths agree on IPv4 input, and no family dispatch is needed here.
func (a *Anonymiser) AnonymiseIP(ip net.IP) (net.IP, error) {
	in, v4 := ipBytes(ip)
	if in == nil {
		return nil, ErrInvalidInput
	}
	out, err := a.Anonymise(in)
	if err != nil {
		return nil, err
	}
	if v4 {
		return net.IP(out).To4(), nil
	}
	return net.IP(out), nil
}

// DeanonymiseIP is the inverse of AnonymiseIP.
func (a *Anonymiser) DeanonymiseIP(ip net.IP) (net.IP, error) {
	in, v4 := ipBytes(ip)
	if in == nil {
		return nil, ErrInvalidInput
	}
	out, err := a.Deanonymise(in)
	if err != nil {
		return nil, err
	}
	if v4 {
		return net.IP(out).To4(), nil
	}
	return net.IP(out), nil
}

// ipBytes extracts the network-byte-order representation of ip, reporting
// whether it is (or maps) an IPv4 address. A 4-in-6 mapped address is
// returned as its 4-byte form here, matching net.IP's own To4 semantics —
// the core's Non-goal is only about treating a *raw 16-byte* input as an
// IPv4-in-IPv6 address without being told to; a parsed net.IP already
// carries that information.
func ipBytes(ip net.IP) (b []byte, v4 bool) {
	if ip == nil {
		return nil, false
	}
	if v4b := ip.To4(); v4b != nil {
		return v4b, true
	}
	if v6b := ip.To16(); v6b != nil {
		return v6b, false
	}
	return nil, false
}

// AnonymiseMAC anonymises a 6-byte MAC-48 address via the generic byte
// path. Prefix preservation means the OUI (first 3 bytes, the vendor
// identifier) is preserved across addresses sharing it.
func (a *Anonymiser) AnonymiseMAC(mac net.HardwareAddr) (net.HardwareAddr, error) {
	if len(mac) != macLen {
		return nil, ErrInvalidInput
	}
	out, err := a.Anonymise(mac)
	if err != nil {
		return nil, err
	}
	return net.HardwareAddr(out), nil
}

// DeanonymiseMAC is the inverse of AnonymiseMAC.
func (a *Anonymiser) DeanonymiseMAC(mac net.HardwareAddr) (net.HardwareAddr, error) {
	if len(mac) != macLen {
		return nil, ErrInvalidInput
	}
	out, err := a.Deanonymise(mac)
	if err != nil {
		return nil, err
	}
	return net.HardwareAddr(out), nil
}
