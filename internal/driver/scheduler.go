package driver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
)

// Task is a unit of work run on a tick.
type Task func(ctx context.Context)

type job struct {
	due  uint64
	seq  uint64
	name string
	fn   Task
}

// Scheduler runs tasks on the tick they are due. Tasks due on the same tick
// run in the order they were scheduled. Tasks may be submitted from any
// goroutine; they always run on the goroutine calling Tick.
type Scheduler struct {
	tick uint64
	seq  uint64
	jobs []job

	mu sync.Mutex
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the number of ticks run so far.
func (s *Scheduler) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tick
}

// After schedules fn to run delay ticks from now. A delay of 0 runs on the
// next tick, as does a delay of 1.
func (s *Scheduler) After(delay uint64, name string, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.jobs = append(s.jobs, job{
		due:  s.tick + max(delay, 1),
		seq:  s.seq,
		name: name,
		fn:   fn,
	})
}

// Submit schedules fn on the next tick.
func (s *Scheduler) Submit(name string, fn Task) {
	s.After(1, name, fn)
}

// Do runs fn on the next tick and waits for it to finish.
func (s *Scheduler) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	s.Submit(name, func(ctx context.Context) {
		done <- fn(ctx)
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}

// Tick advances the clock and runs every task now due. Tasks scheduled
// while running wait for a later tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.mu.Lock()
	s.tick++
	now := s.tick

	var due, later []job
	for _, j := range s.jobs {
		if j.due <= now {
			due = append(due, j)
		} else {
			later = append(later, j)
		}
	}
	s.jobs = later
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})

	for _, j := range due {
		s.run(ctx, j)
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "scheduled task panicked", "task", j.name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	j.fn(ctx)
}
