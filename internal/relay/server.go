package relay

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/die-net/ppinject/internal/proxyproto"
)

type Server struct {
	ctx     context.Context
	cfg     Config
	Verbose bool
}

func NewServer(ctx context.Context, cfg Config, verbose bool) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Server{ctx: ctx, cfg: cfg, Verbose: verbose}
}

// Serve accepts connections until ln fails, handling each one on its own
// goroutine.  Per-connection failures never reach the accept loop; they
// are logged only in verbose mode.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			if err := s.handle(c); err != nil {
				if s.Verbose {
					log.Printf("relay: connection error: %v", err)
				}
			}
		}()
	}
}

// handle drives one client connection: connect upstream, send the PROXY
// preamble, then relay until either side closes.  The header is written
// in full before any client byte is forwarded.
func (s *Server) handle(conn net.Conn) error {
	defer conn.Close()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	up, err := s.cfg.Dialer.DialContext(ctx, "tcp", s.cfg.Upstream)
	if err != nil {
		return fmt.Errorf("connect upstream: %w", err)
	}
	defer up.Close()

	hdr, err := s.header(up.LocalAddr())
	if err != nil {
		return err
	}
	if _, err := up.Write(hdr); err != nil {
		return fmt.Errorf("write proxy header: %w", err)
	}

	if err := CopyBidirectional(ctx, conn, up); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

// header encodes the PROXY preamble for one upstream connection.  The
// destination fields are the outbound socket's own local endpoint, which
// is what the upstream peer observes, not the address we were asked to
// dial.
func (s *Server) header(local net.Addr) ([]byte, error) {
	ta, ok := local.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("unsupported upstream local address %v", local)
	}

	h := proxyproto.Header{
		SrcIP:   s.cfg.SourceIP,
		SrcPort: s.cfg.SourcePort,
		DstIP:   ta.IP,
		DstPort: uint16(ta.Port),
	}
	hdr, err := h.Encode(s.cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("encode proxy header: %w", err)
	}
	return hdr, nil
}
