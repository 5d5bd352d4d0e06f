//go:build !linux

package netio

import "golang.org/x/sys/unix"

// Cork enables TCP_NOPUSH (the BSD/Darwin equivalent of Linux's
// TCP_CORK) on the connection's socket.
func (c *Conn) Cork() error {
	if c.client.TLS != nil {
		return nil
	}
	return unix.SetsockoptInt(c.client.FD, unix.IPPROTO_TCP, unix.TCP_NOPUSH, 1)
}

// Uncork disables TCP_NOPUSH, flushing any data held back by Cork.
func (c *Conn) Uncork() error {
	if c.client.TLS != nil {
		return nil
	}
	return unix.SetsockoptInt(c.client.FD, unix.IPPROTO_TCP, unix.TCP_NOPUSH, 0)
}
