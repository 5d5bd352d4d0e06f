//go:build linux

package netio

import (
	"syscall"

	"github.com/taskloop/httpd/core/task"
)

// SendFile copies up to count bytes from srcFD starting at offset to the
// connection's socket using the sendfile(2) zero-copy path, suspending on
// would-block and looping on short writes until count bytes are sent or an
// error occurs. The returned int is the number of bytes actually written.
// offset is not mutated in place by the kernel call the way a plain
// positional read would; the caller's own offset bookkeeping is what lets
// a SendFileCache entry's shared fd be served at arbitrary per-request
// offsets without relying on (or racing) the descriptor's kernel file
// position, per spec.md §4.5.
func (c *Conn) SendFile(srcFD int, offset int64, count int64) (int64, error) {
	if c.client.TLS != nil {
		return c.sendFileViaCopy(srcFD, offset, count)
	}

	var sent int64
	for sent < count {
		off := offset + sent
		n, err := syscall.Sendfile(c.client.FD, srcFD, &off, int(count-sent))
		if n > 0 {
			sent += int64(n)
		}
		if err == nil {
			if n == 0 {
				break
			}
			continue
		}
		if err == syscall.EINTR {
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			if perr := c.worker.BlockOnFD(c.task, c.client.FD, task.Write); perr != nil {
				return sent, perr
			}
			continue
		}
		return sent, err
	}
	return sent, nil
}
