package proxyproto

import (
	"errors"
	"fmt"
	"net"
)

// Version selects the PROXY protocol header generation.
type Version int

const (
	// V1 is the human-readable "PROXY TCP4 ..." line.
	V1 Version = 1

	// V2 is the binary header.
	V2 Version = 2
)

// ParseVersion maps a configuration string to a Version.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	}
	return 0, fmt.Errorf("unknown PROXY protocol version %q (want v1 or v2)", s)
}

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

var (
	// ErrFamilyMismatch is returned when the source and destination
	// addresses are not the same IP version.  The header never coerces
	// one family into the other.
	ErrFamilyMismatch = errors.New("proxyproto: source and destination address families differ")

	// ErrInvalidAddr is returned when either address is missing or not
	// a well-formed IPv4 or IPv6 address.
	ErrInvalidAddr = errors.New("proxyproto: invalid IP address")
)

// Header holds the endpoint tuple advertised in a PROXY protocol header.
// Src is the claimed originating client; Dst is the local endpoint of the
// connection carrying the header.
type Header struct {
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
}

// Encode serializes the header for the given protocol version.  The
// output is a fresh slice; Header is not modified.
func (h Header) Encode(v Version) ([]byte, error) {
	switch v {
	case V1:
		return h.encodeV1()
	case V2:
		return h.encodeV2()
	}
	return nil, fmt.Errorf("proxyproto: unsupported version %d", int(v))
}

// addrs validates both addresses and returns them in canonical form:
// 4-byte slices for an IPv4 pair, 16-byte slices for an IPv6 pair.
func (h Header) addrs() (src, dst net.IP, ipv4 bool, err error) {
	if h.SrcIP.To16() == nil || h.DstIP.To16() == nil {
		return nil, nil, false, ErrInvalidAddr
	}

	src4, dst4 := h.SrcIP.To4(), h.DstIP.To4()
	if (src4 == nil) != (dst4 == nil) {
		return nil, nil, false, ErrFamilyMismatch
	}
	if src4 != nil {
		return src4, dst4, true, nil
	}

	return h.SrcIP.To16(), h.DstIP.To16(), false, nil
}
