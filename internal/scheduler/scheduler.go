// Package scheduler runs callbacks on game ticks: once after a delay, or
// repeatedly until cancelled. All access happens on the game loop goroutine.
package scheduler

import (
	"container/heap"
	"time"

	coresys "github.com/seatcraft/server/internal/core/system"
	"go.uber.org/zap"
)

// Task is the handle of a scheduled callback.
type Task struct {
	id        uint64
	due       uint64
	interval  uint64 // 0 = one-shot
	fn        func()
	cancelled bool
	index     int // heap slot, -1 once popped
}

// Cancel stops the task from firing again. Safe to call from the task's own
// callback and safe to call more than once.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

func (t *Task) Cancelled() bool { return t.cancelled }

// Scheduler is a tick-driven timer queue. It is a PhaseUpdate system.
type Scheduler struct {
	tick   uint64
	nextID uint64
	queue  taskHeap
	log    *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

func (s *Scheduler) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *Scheduler) Update(_ time.Duration) { s.Advance() }

// CurrentTick returns the number of ticks advanced so far.
func (s *Scheduler) CurrentTick() uint64 { return s.tick }

// RunTimeout runs fn once, ticks from now. Delays below one tick mean the next tick.
func (s *Scheduler) RunTimeout(fn func(), ticks int) *Task {
	return s.push(fn, ticks, 0)
}

// RunInterval runs fn every ticks ticks, starting ticks from now, until cancelled.
func (s *Scheduler) RunInterval(fn func(), ticks int) *Task {
	if ticks < 1 {
		ticks = 1
	}
	return s.push(fn, ticks, uint64(ticks))
}

// ClearRun cancels a task. A nil task is ignored.
func (s *Scheduler) ClearRun(t *Task) { t.Cancel() }

// Pending returns the number of live tasks in the queue.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.queue {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (s *Scheduler) push(fn func(), ticks int, interval uint64) *Task {
	if ticks < 1 {
		ticks = 1
	}
	s.nextID++
	t := &Task{
		id:       s.nextID,
		due:      s.tick + uint64(ticks),
		interval: interval,
		fn:       fn,
	}
	heap.Push(&s.queue, t)
	return t
}

// Advance moves to the next tick and runs everything due, in scheduling order.
// Tasks scheduled by a running callback are due no earlier than the next tick.
func (s *Scheduler) Advance() {
	s.tick++
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if t.due > s.tick {
			return
		}
		heap.Pop(&s.queue)
		if t.cancelled {
			continue
		}
		s.run(t)
		if t.interval > 0 && !t.cancelled {
			t.due = s.tick + t.interval
			heap.Push(&s.queue, t)
		}
	}
}

func (s *Scheduler) run(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled task panicked",
				zap.Uint64("task", t.id), zap.Uint64("tick", s.tick), zap.Any("panic", r))
			t.cancelled = true
		}
	}()
	t.fn()
}

// taskHeap orders by due tick, then by id (scheduling order).
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].id < h[j].id
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
