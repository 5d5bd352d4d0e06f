//go:build darwin || freebsd || netbsd || openbsd || dragonfly
// +build darwin freebsd netbsd openbsd dragonfly

package poller

import "syscall"

// KqueuePoller is a kqueue-based I/O multiplexer. Registrations use
// EV_ONESHOT: the same one-shot re-arm discipline EpollPoller gives on
// Linux, required by block_on_fd (spec.md §4.1).
type KqueuePoller struct {
	kqfd   int
	events []syscall.Kevent_t
}

// NewPoller creates a new Poller (BSD family, Darwin).
func NewPoller() (Poller, error) {
	kqfd, err := syscall.Kqueue()
	if err != nil {
		return nil, err
	}

	return &KqueuePoller{
		kqfd:   kqfd,
		events: make([]syscall.Kevent_t, 1024),
	}, nil
}

func filterFor(dir Direction) int16 {
	if dir == Write {
		return syscall.EVFILT_WRITE
	}
	return syscall.EVFILT_READ
}

// Add (re-)arms fd for one readiness notification in dir. kqueue tracks
// read and write interest as separate filters on the same ident, so
// switching direction naturally replaces the prior registration for that
// direction; a task only ever waits on one direction at a time, matching
// block_on_fd's contract.
func (p *KqueuePoller) Add(fd int, dir Direction) error {
	ev := syscall.Kevent_t{
		Ident:  uint64(fd),
		Filter: filterFor(dir),
		Flags:  syscall.EV_ADD | syscall.EV_ENABLE | syscall.EV_ONESHOT,
	}

	_, err := syscall.Kevent(p.kqfd, []syscall.Kevent_t{ev}, nil, nil)
	return err
}

// Remove deregisters both directions for fd; deleting a filter that was
// never added is harmless (ENOENT is not propagated by syscall.Kevent as
// an error for EV_DELETE on most BSDs, and is safe to ignore here since
// Remove is best-effort cleanup before Close).
func (p *KqueuePoller) Remove(fd int) error {
	evs := []syscall.Kevent_t{
		{Ident: uint64(fd), Filter: syscall.EVFILT_READ, Flags: syscall.EV_DELETE},
		{Ident: uint64(fd), Filter: syscall.EVFILT_WRITE, Flags: syscall.EV_DELETE},
	}
	_, err := syscall.Kevent(p.kqfd, evs, nil, nil)
	return err
}

// Wait blocks for readiness events.
func (p *KqueuePoller) Wait(timeoutMillis int) ([]Event, error) {
	var ts *syscall.Timespec
	if timeoutMillis >= 0 {
		ts = &syscall.Timespec{
			Sec:  int64(timeoutMillis / 1000),
			Nsec: int64((timeoutMillis % 1000) * 1000000),
		}
	}

	n, err := syscall.Kevent(p.kqfd, nil, p.events, ts)
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
		dir := Read
		if ev.Filter == syscall.EVFILT_WRITE {
			dir = Write
		}
		hangUp := ev.Flags&(syscall.EV_EOF|syscall.EV_ERROR) != 0
		out = append(out, Event{FD: int(ev.Ident), Dir: dir, HangUp: hangUp})
	}

	return out, nil
}

// Close closes the poller.
func (p *KqueuePoller) Close() error {
	return syscall.Close(p.kqfd)
}

// SetNonblock sets non-blocking mode on fd.
func SetNonblock(fd int) error {
	return syscall.SetNonblock(fd, true)
}
