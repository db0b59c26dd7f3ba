//go:build !unix

package conn

import "syscall"

// reuseAddrControl is a no-op where SO_REUSEADDR semantics don't apply.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
