// Command ppinject accepts TCP connections, opens a matching connection
// to a fixed upstream, injects a PROXY protocol v1 or v2 preamble naming
// an operator-chosen source address, and relays bytes both ways.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // Intentionally exposed on debug port.
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/ppinject/internal/config"
	"github.com/die-net/ppinject/internal/conn"
	"github.com/die-net/ppinject/internal/dialer"
	"github.com/die-net/ppinject/internal/proxyproto"
	"github.com/die-net/ppinject/internal/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen       = pflag.String("listen", "", "Listen address for inbound connections (e.g. 0.0.0.0:9000)")
		upstream     = pflag.String("upstream", "", "Upstream host:port every connection is relayed to")
		source       = pflag.String("source", "", "Source ip:port to advertise in the PROXY header")
		proxyVersion = pflag.String("proxy-version", "v1", "PROXY protocol header version: v1 | v2")
		via          = pflag.String("via", defaultVia(), "Outbound hop URL: direct:// | http://[user:pass@]host:port | https://[user:pass@]host:port | socks5://[user:pass@]host:port")

		configPath         = pflag.String("config", "", "YAML config file supplying defaults for unset flags")
		debugListen        = pflag.String("debug-listen", "", "Debug HTTP listen address exposing /debug/pprof (e.g. 127.0.0.1:6060). Empty disables.")
		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for outbound DNS lookup and TCP connect")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for via-hop negotiation to set up a connection")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		verbose            = pflag.Bool("verbose", false, "Enable per-connection error logging")
	)

	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("invalid --config: %w", err)
		}
		fileDefault := func(name string, dst *string, v string) {
			if v != "" && !pflag.CommandLine.Changed(name) {
				*dst = v
			}
		}
		fileDefault("listen", listen, fileCfg.Listen)
		fileDefault("upstream", upstream, fileCfg.Upstream)
		fileDefault("via", via, fileCfg.Via)
		fileDefault("proxy-version", proxyVersion, fileCfg.ProxyVersion)
		fileDefault("source", source, fileCfg.Source)
		if fileCfg.Verbose && !pflag.CommandLine.Changed("verbose") {
			*verbose = true
		}
	}

	if *listen == "" {
		return errors.New("missing --listen")
	}
	if *upstream == "" {
		return errors.New("missing --upstream")
	}
	if _, _, err := net.SplitHostPort(*upstream); err != nil {
		return fmt.Errorf("invalid --upstream: %w", err)
	}

	srcIP, srcPort, err := parseSource(*source)
	if err != nil {
		return fmt.Errorf("invalid --source: %w", err)
	}

	version, err := proxyproto.ParseVersion(*proxyVersion)
	if err != nil {
		return fmt.Errorf("invalid --proxy-version: %w", err)
	}

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	dialCfg := dialer.Config{
		DialTimeout:        *dialTimeout,
		NegotiationTimeout: *negotiationTimeout,
		KeepAlive:          ka,
	}

	d, err := dialer.New(dialCfg, *via)
	if err != nil {
		return fmt.Errorf("invalid --via: %w", err)
	}

	g, ctx := errgroup.WithContext(context.Background())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *debugListen != "" {
		debugSrv := &http.Server{Handler: http.DefaultServeMux} //nolint:gosec // Not concerned about timeouts on debug port.
		lc := net.ListenConfig{KeepAliveConfig: ka}
		debugLn, err := lc.Listen(ctx, "tcp", *debugListen)
		if err != nil {
			return fmt.Errorf("debug listen: %w", err)
		}
		context.AfterFunc(ctx, func() {
			_ = debugSrv.Close()
			_ = debugLn.Close()
		})

		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil {
				return fmt.Errorf("debug serve: %w", err)
			}
			return nil
		})
		log.Printf("debug listening on %s", *debugListen)
	}

	ln, err := conn.ListenTCP("tcp", *listen, ka)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := relay.NewServer(ctx, relay.Config{
		Upstream:   *upstream,
		SourceIP:   srcIP,
		SourcePort: srcPort,
		Version:    version,
		Dialer:     d,
	}, *verbose)
	context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil {
			return fmt.Errorf("relay serve: %w", err)
		}
		return nil
	})
	log.Printf("proxy protocol %s relay listening on %s -> %s as %s", version, *listen, *upstream, *source)

	err = g.Wait()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	log.Print("shutting down")
	return err
}

func parseSource(s string) (net.IP, uint16, error) {
	if s == "" {
		return nil, 0, errors.New("missing")
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, 0, err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, 0, fmt.Errorf("invalid ip %q", host)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return ip, uint16(port), nil
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return net.KeepAliveConfig{}, errors.New("empty")
	}
	if s == "on" {
		return net.KeepAliveConfig{Enable: true}, nil
	}
	if s == "off" {
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveSeconds(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveSeconds(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     keepIdle,
		Interval: keepIntvl,
		Count:    keepCnt,
	}, nil
}

func parsePositiveSeconds(s string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return time.Duration(n) * time.Second, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultVia() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "direct://"
}
