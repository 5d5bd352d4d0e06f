package task

import "container/heap"

// SleepHeap is a worker's sleep_heap: a min-heap of tasks ordered by wake
// deadline. No pack repository ships a heap primitive, so this is built on
// container/heap, the idiomatic standard-library choice for exactly this
// shape of problem.
type SleepHeap struct {
	items sleepItems
}

type sleepItems []*Task

func (s sleepItems) Len() int { return len(s) }
func (s sleepItems) Less(i, j int) bool {
	return s[i].Deadline.Before(s[j].Deadline)
}
func (s sleepItems) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].heapIndex = i
	s[j].heapIndex = j
}
func (s *sleepItems) Push(x any) {
	t := x.(*Task)
	t.heapIndex = len(*s)
	*s = append(*s, t)
}
func (s *sleepItems) Pop() any {
	old := *s
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	t.heapIndex = -1
	return t
}

// NewSleepHeap returns an empty sleep heap.
func NewSleepHeap() *SleepHeap {
	return &SleepHeap{items: make(sleepItems, 0, 64)}
}

// Push inserts t, keyed on its current Deadline.
func (h *SleepHeap) Push(t *Task) {
	heap.Push(&h.items, t)
}

// Peek returns the earliest deadline in the heap without removing it.
// ok is false when the heap is empty.
func (h *SleepHeap) Peek() (t *Task, ok bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// Pop removes and returns the task with the earliest deadline.
func (h *SleepHeap) Pop() *Task {
	return heap.Pop(&h.items).(*Task)
}

// Len returns the number of sleeping tasks.
func (h *SleepHeap) Len() int { return len(h.items) }

// Remove evicts t from the heap, used when a sleeping client is cancelled
// before its deadline (e.g. the peer closed the connection).
func (h *SleepHeap) Remove(t *Task) {
	if t.heapIndex < 0 || t.heapIndex >= len(h.items) {
		return
	}
	heap.Remove(&h.items, t.heapIndex)
}
