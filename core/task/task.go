// Package task defines the unit of cooperative scheduling shared by every
// Worker in core/scheduler.
//
// Go has no user-space coroutines, so a Task's body runs on its own
// goroutine, per the "one goroutine per client, suspension at I/O calls"
// option the design notes allow. What makes it cooperative rather than
// merely concurrent is the handoff in core/scheduler: a Worker resumes at
// most one Task's goroutine at a time and blocks until that goroutine
// either parks at a suspension point or returns, before resuming the next
// one. A Task therefore never runs concurrently with another Task owned by
// the same Worker.
package task

import "time"

// State is the lifecycle state of a Task, per the data model's
// {Runnable, Blocked(fd, direction), Sleeping(deadline), Done} definition.
type State int

const (
	Runnable State = iota
	Blocked
	Sleeping
	Done
)

// Direction is the readiness interest a Blocked task is waiting on.
type Direction uint8

const (
	Read Direction = iota
	Write
)

// Task is exclusively owned by one Worker for its entire lifetime; only
// that Worker's goroutine and the Task's own goroutine ever touch its
// fields, so no field is guarded by a mutex.
type Task struct {
	ID    uint64
	State State

	// Blocked state.
	FD        int
	Dir       Direction
	HangUp    bool // poller reported EPOLLHUP/EPOLLERR-equivalent while blocked
	Cancelled bool // worker is tearing the task down; next I/O call fails closed

	// Sleeping state.
	Deadline time.Time

	// sleep-heap bookkeeping, set by core/task/heap.go.
	heapIndex int

	// resume is signalled by the owning Worker exactly once per run; run
	// signals done exactly once in response, carrying the task back to
	// Runnable, Blocked, Sleeping or Done. Both channels are unbuffered:
	// the handoff is a strict rendezvous, which is what keeps only one
	// Task's body executing at a time.
	resume chan struct{}
	done   chan struct{}

	body func()
}

// New creates a Task that will run body on its own goroutine once the
// owning Worker first resumes it. body is expected to call back into the
// Worker (BlockOnFD, Sleep, Yield) at every suspension point; those calls
// are what park the goroutine on resume/done.
func New(id uint64, body func()) *Task {
	return &Task{
		ID:     id,
		State:  Runnable,
		resume: make(chan struct{}),
		done:   make(chan struct{}),
		body:   body,
	}
}

// Start launches the task's goroutine. The goroutine blocks immediately
// waiting for the first resume signal, so Start is safe to call before the
// task has been placed on a ready queue.
func (t *Task) Start() {
	go func() {
		<-t.resume
		t.body()
		t.State = Done
		t.done <- struct{}{}
	}()
}

// Resume hands control to the task's goroutine and blocks until it parks
// again (State becomes Blocked, Sleeping, or Runnable after a yield) or
// finishes (State becomes Done). Only the owning Worker's loop goroutine calls Resume.
func (t *Task) Resume() {
	t.resume <- struct{}{}
	<-t.done
}

// Park is called from inside the task's own goroutine body at a suspension
// point, after the caller has set t.State/t.FD/t.Dir/t.Deadline to
// describe why it is parking. It hands control back to the Worker and
// blocks the task's goroutine until the Worker resumes it again.
func (t *Task) Park() {
	t.done <- struct{}{}
	<-t.resume
}
