// Package dialer provides the outbound dialing implementations used by
// ppinject to reach its upstream.
//
// Dialers implement a small interface (DialContext) and connect either
// directly or via an intermediate proxy hop (HTTP CONNECT or SOCKS5).
package dialer
