//go:build linux

package netio

import "golang.org/x/sys/unix"

// Cork enables TCP_CORK on the connection's socket, coalescing subsequent
// writes (response headers, then body) into fewer packets. Uncork must be
// called once the response is fully written to flush the held data.
func (c *Conn) Cork() error {
	if c.client.TLS != nil {
		return nil
	}
	return unix.SetsockoptInt(c.client.FD, unix.IPPROTO_TCP, unix.TCP_CORK, 1)
}

// Uncork disables TCP_CORK, flushing any data held back by Cork.
func (c *Conn) Uncork() error {
	if c.client.TLS != nil {
		return nil
	}
	return unix.SetsockoptInt(c.client.FD, unix.IPPROTO_TCP, unix.TCP_CORK, 0)
}
