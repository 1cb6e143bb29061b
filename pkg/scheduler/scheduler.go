// Package scheduler runs deferred entity state changes on virtual time.
//
// Events fire in deadline order; events sharing a deadline fire in the
// order they were scheduled. The tiebreak is an explicit counter so
// replayed sessions dispatch identically.
package scheduler

import (
	"log/slog"

	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Change is an opaque tag naming a state change. Only Disappear is
// interpreted by the scheduler; every other tag is handed to the target.
type Change string

const (
	// Disappear removes the target from the world instead of updating it
	Disappear Change = "disappear"

	// Grow advances a growable entity to its next form
	Grow Change = "grow"
)

// Target is anything that reacts to scheduled changes
type Target interface {
	Update(change Change)
}

// Remover takes targets out of the world when they disappear
type Remover interface {
	Remove(target Target)
}

// Clock is the virtual-time source used to compute deadlines
type Clock interface {
	Time() float64
	TimeFromNow(d gametime.Duration) float64
}

// Pending describes a queued event for diagnostics
type Pending struct {
	Deadline float64          `json:"deadline"`
	Change   Change           `json:"change"`
	Position geometry.Point2d `json:"position"`
}

// Scheduler is a virtual-time priority queue of state changes. Not safe
// for concurrent use; it is drained by the modeling loop that owns it.
type Scheduler struct {
	clock   Clock
	remover Remover
	queue   eventHeap
	seq     uint64
	alive   func(Target) bool
	logger  *slog.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRemover sets who handles Disappear events
func WithRemover(r Remover) Option {
	return func(s *Scheduler) { s.remover = r }
}

// WithLivenessCheck skips events whose target is no longer alive.
// Without it, events for removed targets still dispatch.
func WithLivenessCheck(alive func(Target) bool) Option {
	return func(s *Scheduler) { s.alive = alive }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler driven by clock
func New(clock Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  clock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleChange queues change for target once d has elapsed. A Never
// duration is dropped since it cannot fire.
func (s *Scheduler) ScheduleChange(d gametime.Duration, position geometry.Point2d, change Change, target Target) {
	if d.IsNever() {
		return
	}
	s.seq++
	s.queue.push(&event{
		deadline: s.clock.TimeFromNow(d),
		seq:      s.seq,
		change:   change,
		target:   target,
		position: position,
	})
}

// Update dispatches every event whose deadline is strictly before the
// current virtual time and returns how many fired. Targets may schedule
// new events while being updated; those are ordered like any other.
func (s *Scheduler) Update() int {
	now := s.clock.Time()
	fired := 0
	for {
		next := s.queue.peek()
		if next == nil || next.deadline >= now {
			return fired
		}
		ev := s.queue.pop()
		if s.alive != nil && !s.alive(ev.target) {
			s.logger.Debug("scheduler: skipped event for removed target",
				"change", ev.change, "deadline", ev.deadline)
			continue
		}
		s.dispatch(ev)
		fired++
	}
}

func (s *Scheduler) dispatch(ev *event) {
	if ev.change == Disappear {
		if s.remover != nil {
			s.remover.Remove(ev.target)
		}
		return
	}
	ev.target.Update(ev.change)
}

// Len returns the number of queued events
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Peek returns the earliest queued event without removing it
func (s *Scheduler) Peek() (Pending, bool) {
	next := s.queue.peek()
	if next == nil {
		return Pending{}, false
	}
	return Pending{Deadline: next.deadline, Change: next.change, Position: next.position}, true
}

// Pending lists queued events in no particular order
func (s *Scheduler) Pending() []Pending {
	out := make([]Pending, 0, len(s.queue))
	for _, ev := range s.queue {
		out = append(out, Pending{Deadline: ev.deadline, Change: ev.change, Position: ev.position})
	}
	return out
}
