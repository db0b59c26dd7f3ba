// Package conn builds the listening sockets used by ppinject.
//
// Listeners are created with SO_REUSEADDR set (where the platform supports
// it) so a restarted relay can rebind its port while old connections
// linger in TIME_WAIT, and accepted TCP connections get the configured
// keepalive settings applied.
package conn
