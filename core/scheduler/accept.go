package scheduler

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/libp2p/go-reuseport"

	"github.com/taskloop/httpd/core/pools"
)

// Address is a listen address: spec.md §3's {host, port, tls_config?,
// reuse_addr, index}.
type Address struct {
	Host      string
	Port      int
	TLSConfig *tls.Config
	ReuseAddr bool

	// Index is a dense integer assigned at registration time (Router uses
	// it as a fast scoping key); config.Finalize and config.AddListen assign it.
	Index int
}

func (a Address) hostPort() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// AcceptHandler is invoked once per accepted connection, on the Worker it
// was assigned to, before the connection is handed a Task. It is
// responsible for constructing and spawning the Task that will drive the
// connection's request loop.
type AcceptHandler func(w *Worker, c *Client)

// Acceptor owns one listener per Address and hands each accepted
// connection to the least-loaded Worker (spec.md §2, §5). It runs its own
// accept loop per listener, each on its own goroutine; none of that work
// touches a Worker's internal state directly — RunOnLoop is the only
// crossing point.
type Acceptor struct {
	workers []*Worker
	handler AcceptHandler

	listeners []net.Listener
	maxConns  int64

	clientPool *pools.ConnectionPool

	// slotMu/slotCond gate acceptLoop on maxConns: spec.md §6 defines
	// max_connections as "accept blocks when reached," not
	// accept-then-reject, so the wait happens before ln.Accept() is even
	// called and the kernel's own backlog absorbs pending connects.
	// releaseSlot (wired into every Client.Release) broadcasts whenever a
	// connection tears down.
	slotMu   sync.Mutex
	slotCond *sync.Cond
}

// NewAcceptor creates an Acceptor that will distribute accepted
// connections across workers. Clients are drawn from a ConnectionPool
// rather than allocated fresh per accept, the same pooling discipline the
// source applies to its connection objects.
func NewAcceptor(workers []*Worker, maxConnections int, handler AcceptHandler) *Acceptor {
	a := &Acceptor{
		workers:  workers,
		handler:  handler,
		maxConns: int64(maxConnections),
		clientPool: pools.NewConnectionPool(maxConnections, func() any {
			return &Client{FD: -1}
		}),
	}
	a.slotCond = sync.NewCond(&a.slotMu)
	return a
}

// Listen binds addr and starts its accept loop on a new goroutine. It
// returns once the socket is bound; a failure here is spec.md §7's Fatal
// error kind ("failure to bind a listen socket ... propagate to server
// startup caller").
func (a *Acceptor) Listen(addr Address) error {
	var ln net.Listener
	var err error

	if addr.ReuseAddr {
		ln, err = reuseport.Listen("tcp", addr.hostPort())
	} else {
		ln, err = net.Listen("tcp", addr.hostPort())
	}
	if err != nil {
		return fmt.Errorf("scheduler: bind %s: %w", addr.hostPort(), err)
	}

	if addr.TLSConfig != nil {
		ln = tls.NewListener(ln, addr.TLSConfig)
	}

	a.listeners = append(a.listeners, ln)
	go a.acceptLoop(ln, addr)
	return nil
}

func (a *Acceptor) acceptLoop(ln net.Listener, addr Address) {
	for {
		a.waitForSlot()

		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		fd, err := fdOf(conn)
		if err != nil {
			conn.Close()
			continue
		}

		w := a.leastLoaded()
		w.ConnCount.Add(1)

		client := a.clientPool.Get().(*Client)
		client.SetFD(fd)
		client.AddressIndex = addr.Index
		client.WorkerID = w.ID
		client.RemoteAddr = conn.RemoteAddr().String()
		client.Conn = conn
		client.TLS = asTLSConn(conn)
		client.Touch(w.idleTimeout)
		client.Release = func() {
			a.clientPool.Put(client)
			a.releaseSlot()
		}

		w.RunOnLoop(func() {
			w.TrackClient(client)
			a.handler(w, client)
		})
	}
}

// asTLSConn reports whether conn is a TLS-wrapped stream; core/netio
// drives such connections through *tls.Conn's own Read/Write (treating
// TLS as the opaque want-read/want-write stream spec.md §4.2 describes)
// rather than through the raw descriptor directly.
func asTLSConn(conn net.Conn) *tls.Conn {
	if tc, ok := conn.(*tls.Conn); ok {
		return tc
	}
	return nil
}

// fdOf extracts the raw, non-blocking file descriptor backing conn. For a
// TLS connection this is the descriptor of the underlying TCP socket; the
// poller registers it for readiness while the TLS handshake and
// application data are still driven through the *tls.Conn itself. conn
// itself is stored on the Client (see Client.Conn) so it stays reachable
// and is closed through its own Close rather than a bare fd number.
func fdOf(conn net.Conn) (int, error) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		if tc, ok := conn.(*tls.Conn); ok {
			tcp, _ = tc.NetConn().(*net.TCPConn)
		}
	}
	if tcp == nil {
		return 0, fmt.Errorf("scheduler: unsupported connection type %T", conn)
	}

	sc, err := tcp.SyscallConn()
	if err != nil {
		return 0, err
	}

	var fd int
	var ctrlErr error
	err = sc.Control(func(fdVal uintptr) {
		fd = int(fdVal)
		ctrlErr = syscall.SetNonblock(fd, true)
	})
	if err != nil {
		return 0, err
	}
	return fd, ctrlErr
}

// waitForSlot blocks this listener's accept loop goroutine — never a
// Worker's own loop goroutine — until totalConnections is below maxConns,
// or returns immediately when maxConns is unset (0). Several listeners'
// accept loops may all be waiting here at once; each is free to race for
// the slot a releaseSlot broadcast opens up, same as the stale-read
// tolerance leastLoaded already accepts for ConnCount.
func (a *Acceptor) waitForSlot() {
	if a.maxConns <= 0 {
		return
	}
	a.slotMu.Lock()
	for a.totalConnections() >= a.maxConns {
		a.slotCond.Wait()
	}
	a.slotMu.Unlock()
}

// releaseSlot wakes any accept loop parked in waitForSlot once a
// connection's teardown has freed a slot.
func (a *Acceptor) releaseSlot() {
	a.slotMu.Lock()
	a.slotCond.Broadcast()
	a.slotMu.Unlock()
}

func (a *Acceptor) leastLoaded() *Worker {
	best := a.workers[0]
	for _, w := range a.workers[1:] {
		if w.ConnCount.Load() < best.ConnCount.Load() {
			best = w
		}
	}
	return best
}

func (a *Acceptor) totalConnections() int64 {
	var total int64
	for _, w := range a.workers {
		total += w.ConnCount.Load()
	}
	return total
}

// Addrs returns the bound address of every listener Listen has opened so
// far, in call order; useful when a listen port of 0 asked the OS to pick
// one.
func (a *Acceptor) Addrs() []net.Addr {
	addrs := make([]net.Addr, len(a.listeners))
	for i, ln := range a.listeners {
		addrs[i] = ln.Addr()
	}
	return addrs
}

// Close closes every bound listener.
func (a *Acceptor) Close() error {
	var firstErr error
	for _, ln := range a.listeners {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
