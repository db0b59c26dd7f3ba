package relay

import (
	"net"

	"github.com/die-net/ppinject/internal/dialer"
	"github.com/die-net/ppinject/internal/proxyproto"
)

type Config struct {
	// Upstream is the host:port every accepted connection is relayed to.
	Upstream string

	// SourceIP and SourcePort are advertised as the originating client
	// in the PROXY header, regardless of the actual peer address.
	SourceIP   net.IP
	SourcePort uint16

	// Version selects the PROXY protocol header generation.
	Version proxyproto.Version

	Dialer dialer.Dialer
}
