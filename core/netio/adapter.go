// Package netio is the non-blocking I/O adapter of spec.md §4.2: it wraps
// a raw descriptor (or an opaque TLS stream) and exposes read/write calls
// that look blocking to callers but cooperatively suspend the calling
// task, via the owning Worker, whenever the underlying descriptor would
// block.
package netio

import (
	"errors"
	"io"
	"syscall"

	"github.com/taskloop/httpd/core/scheduler"
	"github.com/taskloop/httpd/core/task"
)

// ErrClosed is returned when the poller reported hang-up, or the Worker
// cancelled the connection, while the task was blocked on it; an orderly
// EOF from the peer is reported by Read as io.EOF instead.
var ErrClosed = scheduler.ErrConnectionClosed

// Conn is the adapter for one Client's descriptor. It is not safe for
// concurrent use: spec.md's ordering guarantee ("request i+1 is not read
// until request i's response has been fully written") means exactly one
// task ever drives a Conn at a time.
type Conn struct {
	worker *scheduler.Worker
	client *scheduler.Client
	task   *task.Task
	tls    *tlsStream
}

// New wraps client's descriptor for non-blocking I/O, driven by t (the
// task currently owning client) through worker.
func New(worker *scheduler.Worker, client *scheduler.Client, t *task.Task) *Conn {
	c := &Conn{worker: worker, client: client, task: t}
	if client.TLS != nil {
		c.tls = newTLSStream(client.TLS)
	}
	return c
}

// Read fills buf with up to len(buf) bytes, suspending the calling task on
// would-block and retrying. The underlying raw read reports a clean EOF
// the POSIX way (0, nil), per spec.md §4.2; Read translates that into
// io.EOF so callers layering bufio.Reader or io.Copy over it see the
// contract Go expects.
func (c *Conn) Read(buf []byte) (int, error) {
	c.touch()

	if c.tls != nil {
		return c.tls.read(c, buf)
	}

	for {
		n, err := syscall.Read(c.client.FD, buf)
		if err == nil {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		if err == syscall.EINTR {
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			if perr := c.worker.BlockOnFD(c.task, c.client.FD, task.Read); perr != nil {
				return 0, perr
			}
			continue
		}
		return 0, err
	}
}

// Write writes all of buf, suspending on would-block and retrying short
// writes, per spec.md §4.2.
func (c *Conn) Write(buf []byte) (int, error) {
	c.touch()

	if c.tls != nil {
		return c.tls.write(c, buf)
	}

	total := 0
	for total < len(buf) {
		n, err := syscall.Write(c.client.FD, buf[total:])
		if err == nil {
			total += n
			continue
		}
		if err == syscall.EINTR {
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			if perr := c.worker.BlockOnFD(c.task, c.client.FD, task.Write); perr != nil {
				return total, perr
			}
			continue
		}
		return total, err
	}
	return total, nil
}

// blockRead/blockWrite let the TLS stream (which issues its own raw
// syscalls against the same fd) reuse the adapter's suspension mechanics
// without exposing the Worker/Task pair publicly.
func (c *Conn) blockRead() error  { return c.worker.BlockOnFD(c.task, c.client.FD, task.Read) }
func (c *Conn) blockWrite() error { return c.worker.BlockOnFD(c.task, c.client.FD, task.Write) }

func (c *Conn) touch() {
	c.client.Touch(c.worker.IdleTimeout())
}

// ScheduleIO is the generalized suspend-on-would-block primitive spec.md
// §4.2 asks for: fn is called; if it returns ErrWouldBlock, the calling
// task suspends until fd is ready for dir, then fn is retried. fn
// returning (0, nil) terminates progress without signalling an error, the
// same "fn returning 0 terminates progress" contract the source gives
// external non-blocking primitives (e.g. a database driver) that want to
// plug into this same scheduler.
func (c *Conn) ScheduleIO(fd int, dir task.Direction, fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if !errors.Is(err, ErrWouldBlock) {
			return n, err
		}
		if perr := c.worker.BlockOnFD(c.task, fd, dir); perr != nil {
			return 0, perr
		}
	}
}

// ErrWouldBlock is the sentinel a ScheduleIO callback returns to ask to be
// retried once fd becomes ready.
var ErrWouldBlock = errors.New("netio: would block")

// CloseWrite half-closes the write side where supported, signalling
// completion to the peer without tearing down the read side.
func (c *Conn) CloseWrite() error {
	return syscall.Shutdown(c.client.FD, syscall.SHUT_WR)
}

var _ io.ReadWriter = (*Conn)(nil)
