package proxyproto

import "encoding/binary"

// sigV2 is the fixed 12-byte version 2 signature.
var sigV2 = []byte("\x0D\x0A\x0D\x0A\x00\x0D\x0A\x51\x55\x49\x54\x0A")

const (
	// verCmdProxy is version 2 in the high nibble, PROXY command in the
	// low nibble.
	verCmdProxy = 0x20 | 0x01

	// famTCP4 and famTCP6 are AF_INET/AF_INET6 in the high nibble,
	// SOCK_STREAM in the low nibble.
	famTCP4 = 0x10 | 0x01
	famTCP6 = 0x20 | 0x01

	// Address block lengths: 2 addresses plus 2 ports.
	addrLenIPv4 = 4 + 4 + 2 + 2
	addrLenIPv6 = 16 + 16 + 2 + 2
)

// encodeV2 renders the version 2 binary header: signature, ver/cmd byte,
// family/protocol byte, big-endian address block length, then source and
// destination addresses followed by both ports in network order.  No TLV
// vectors are appended, so the length field is exactly the address block
// size.
func (h Header) encodeV2() ([]byte, error) {
	src, dst, ipv4, err := h.addrs()
	if err != nil {
		return nil, err
	}

	fam := byte(famTCP6)
	addrLen := uint16(addrLenIPv6)
	if ipv4 {
		fam = famTCP4
		addrLen = addrLenIPv4
	}

	buf := make([]byte, 0, len(sigV2)+4+addrLenIPv6)
	buf = append(buf, sigV2...)
	buf = append(buf, verCmdProxy, fam)
	buf = binary.BigEndian.AppendUint16(buf, addrLen)
	buf = append(buf, src...)
	buf = append(buf, dst...)
	buf = binary.BigEndian.AppendUint16(buf, h.SrcPort)
	buf = binary.BigEndian.AppendUint16(buf, h.DstPort)

	return buf, nil
}
