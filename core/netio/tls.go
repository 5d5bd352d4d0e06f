package netio

import (
	"crypto/tls"
	"net"
	"time"
)

// tlsStream adapts a *tls.Conn to the same suspend-on-would-block
// discipline as a raw descriptor. Go's crypto/tls has no want-read/
// want-write return codes of its own (unlike the opaque TLS library
// spec.md §4.2 describes): *tls.Conn.Read/Write block on their underlying
// net.Conn. To preserve the "TLS reports wants read/write, adapter
// suspends" contract without blocking the worker's OS thread, every call
// is given a read/write deadline already in the past first; a
// deadline-exceeded error is exactly the "would block" signal, at which
// point the calling task suspends on the same raw fd the Client already
// carries and then retries under the same past deadline. The deadline is
// cleared once the call completes or fails with any other error.
type tlsStream struct {
	conn *tls.Conn
}

func newTLSStream(conn *tls.Conn) *tlsStream {
	return &tlsStream{conn: conn}
}

// past is a deadline already in the past, forcing the next Read/Write on
// the underlying net.Conn to return immediately with a timeout error
// instead of blocking the OS thread.
var past = time.Unix(0, 1)

func (s *tlsStream) read(c *Conn, buf []byte) (int, error) {
	for {
		s.conn.SetReadDeadline(past)
		n, err := s.conn.Read(buf)
		if err == nil {
			s.conn.SetReadDeadline(time.Time{})
			return n, nil
		}
		if isTimeout(err) {
			if perr := c.blockRead(); perr != nil {
				return 0, perr
			}
			continue
		}
		s.conn.SetReadDeadline(time.Time{})
		return n, err
	}
}

func (s *tlsStream) write(c *Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		s.conn.SetWriteDeadline(past)
		n, err := s.conn.Write(buf[total:])
		total += n
		if err == nil {
			s.conn.SetWriteDeadline(time.Time{})
			continue
		}
		if isTimeout(err) {
			if perr := c.blockWrite(); perr != nil {
				return total, perr
			}
			continue
		}
		s.conn.SetWriteDeadline(time.Time{})
		return total, err
	}
	s.conn.SetWriteDeadline(time.Time{})
	return total, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
