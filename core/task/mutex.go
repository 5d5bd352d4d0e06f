package task

// Mutex is the user-facing cooperative mutex described in spec.md §5:
// contention suspends the calling task cooperatively (it parks and lets
// its Worker run other ready tasks) instead of blocking an OS thread.
//
// It is implemented as a single-token channel, the in-process analogue of
// the eventfd-backed notification the source uses: a receive takes the
// token (acquiring the lock), a send puts it back (releasing the lock),
// and a task waiting to acquire is simply a goroutine blocked trying to
// receive — exactly the shape block_on_fd already has, just over a
// channel instead of a file descriptor.
//
// Mutex has no dependency on any particular Worker; core/scheduler does
// the parking around it with the Worker's own suspend/resume bookkeeping
// (see Worker.LockMutex).
type Mutex struct {
	token chan struct{}
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	m := &Mutex{token: make(chan struct{}, 1)}
	m.token <- struct{}{}
	return m
}

// TryLock attempts to take the token without suspending. It returns false
// immediately if the mutex is already held.
func (m *Mutex) TryLock() bool {
	select {
	case <-m.token:
		return true
	default:
		return false
	}
}

// Unlock returns the token. It panics if the mutex was not held, the same
// contract sync.Mutex makes.
func (m *Mutex) Unlock() {
	select {
	case m.token <- struct{}{}:
	default:
		panic("task: unlock of unlocked Mutex")
	}
}

// WaitC exposes the underlying token channel so a Worker's suspension
// helper can wait on it without Mutex needing to know about Tasks at all.
// Receiving from it takes the token, so a successful receive is itself
// the acquisition (Worker.LockMutex relies on this).
func (m *Mutex) WaitC() <-chan struct{} {
	return m.token
}

// TakeFromWaitC takes the token non-blockingly, exactly like TryLock. It
// returns false while the token is held, including when the caller has
// just received it from WaitC.
func (m *Mutex) TakeFromWaitC() (ok bool) {
	select {
	case <-m.token:
		return true
	default:
		return false
	}
}
