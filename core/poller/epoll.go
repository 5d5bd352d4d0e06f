//go:build linux
// +build linux

package poller

import (
	"sync"
	"syscall"
)

// EpollPoller is an epoll-based I/O multiplexer. Registrations are
// edge-triggered (EPOLLET) and one-shot (EPOLLONESHOT): spec.md §4.1
// requires exactly this discipline for block_on_fd so that a woken
// descriptor cannot re-fire until the owning task explicitly re-arms it on
// its next suspension.
type EpollPoller struct {
	epfd   int
	events []syscall.EpollEvent

	mu         sync.Mutex
	registered map[int]bool
}

// NewPoller creates a new Poller (Linux).
func NewPoller() (Poller, error) {
	epfd, err := syscall.EpollCreate1(syscall.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	return &EpollPoller{
		epfd:       epfd,
		events:     make([]syscall.EpollEvent, 1024),
		registered: make(map[int]bool),
	}, nil
}

func interestBits(dir Direction) uint32 {
	// EPOLLRDHUP (0x2000) surfaces peer shutdown as a readiness event
	// instead of silently waiting for the next read to return 0.
	epollet := int32(syscall.EPOLLET)
	base := uint32(epollet) | uint32(syscall.EPOLLONESHOT) | 0x2000
	if dir == Write {
		return base | uint32(syscall.EPOLLOUT)
	}
	return base | uint32(syscall.EPOLLIN)
}

// Add (re-)arms fd for one readiness notification in dir.
func (p *EpollPoller) Add(fd int, dir Direction) error {
	ev := syscall.EpollEvent{
		Events: interestBits(dir),
		Fd:     int32(fd),
	}

	p.mu.Lock()
	alreadyRegistered := p.registered[fd]
	p.mu.Unlock()

	op := syscall.EPOLL_CTL_ADD
	if alreadyRegistered {
		op = syscall.EPOLL_CTL_MOD
	}

	if err := syscall.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return err
	}

	p.mu.Lock()
	p.registered[fd] = true
	p.mu.Unlock()
	return nil
}

// Remove deregisters fd.
func (p *EpollPoller) Remove(fd int) error {
	p.mu.Lock()
	delete(p.registered, fd)
	p.mu.Unlock()

	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks for readiness events.
func (p *EpollPoller) Wait(timeoutMillis int) ([]Event, error) {
	n, err := syscall.EpollWait(p.epfd, p.events, timeoutMillis)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		return nil, err
	}

	if n <= 0 {
		return nil, nil
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		ev := p.events[i]
		hangUp := ev.Events&(syscall.EPOLLERR|syscall.EPOLLHUP|0x2000) != 0

		dir := Read
		if ev.Events&uint32(syscall.EPOLLOUT) != 0 {
			dir = Write
		}
		out = append(out, Event{FD: int(ev.Fd), Dir: dir, HangUp: hangUp})
	}

	return out, nil
}

// Close closes the poller.
func (p *EpollPoller) Close() error {
	return syscall.Close(p.epfd)
}

// SetNonblock sets non-blocking mode on fd.
func SetNonblock(fd int) error {
	return syscall.SetNonblock(fd, true)
}
