// Package proxyproto serializes PROXY protocol version 1 and version 2
// headers for TCP-over-IPv4 and TCP-over-IPv6 connections.
//
// Only the sending side is implemented, and only the address families this
// relay can emit: the v1 TCP4/TCP6 line and the v2 INET/INET6 stream
// blocks, without TLV extensions.
//
// https://www.haproxy.org/download/1.8/doc/proxy-protocol.txt
package proxyproto
