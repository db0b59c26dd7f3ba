package proxyproto

import "fmt"

// encodeV1 renders the version 1 header line.  Receivers are strict about
// the format: single spaces, textual addresses, and a bare CRLF
// terminator.
func (h Header) encodeV1() ([]byte, error) {
	src, dst, ipv4, err := h.addrs()
	if err != nil {
		return nil, err
	}

	fam := "TCP6"
	if ipv4 {
		fam = "TCP4"
	}

	return fmt.Appendf(nil, "PROXY %s %s %s %d %d\r\n",
		fam,
		src.String(),
		dst.String(),
		h.SrcPort,
		h.DstPort,
	), nil
}
