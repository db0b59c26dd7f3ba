// Package relay implements the client-facing side of ppinject: an accept
// loop that pairs each inbound TCP connection with a fresh outbound
// connection to the configured upstream, writes a PROXY protocol preamble
// upstream, and then shuttles bytes verbatim in both directions until
// either side goes away.
package relay
