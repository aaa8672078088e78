package sched

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/stack"
)

// Execution records one drained callback.
type Execution struct {
	Callback *Callback
	Episode  int
	Outcome  propagate.Outcome
	Err      error
}

// Scheduler holds deferred callbacks until they are drained. Each drained
// callback runs in its own episode on a new, empty call stack. It is not safe
// for concurrent use; like the stacks it creates, it belongs to the single
// logical thread driving the simulation.
type Scheduler struct {
	ids     *stack.IDSequence
	queue   []*Callback
	episode int

	// OnEpisode, if set, is called with each new stack before its callback
	// runs.
	OnEpisode func(episode int, cb *Callback, s *stack.CallStack)
}

func New(ids *stack.IDSequence) *Scheduler {
	if ids == nil {
		ids = stack.NewIDSequence()
	}
	return &Scheduler{ids: ids}
}

func (s *Scheduler) IDs() *stack.IDSequence {
	return s.ids
}

// Begin starts a new episode that the caller runs itself (typically the main
// program) and returns its number.
func (s *Scheduler) Begin() int {
	s.episode++
	return s.episode
}

// Episode is the number of the most recently started episode.
func (s *Scheduler) Episode() int {
	return s.episode
}

func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Schedule queues cb and returns without running it.
func (s *Scheduler) Schedule(cb *Callback) {
	if cb.state != Scheduled {
		panic(fmt.Sprintf("sched: callback %s cannot be scheduled from state %s", cb, cb.state))
	}
	for _, q := range s.queue {
		if q == cb {
			panic(fmt.Sprintf("sched: callback %s is already queued", cb))
		}
	}
	cb.ScheduledAt = s.episode
	s.queue = append(s.queue, cb)
	log.Debug().Str("callback", cb.String()).Uint64("origin", uint64(cb.Origin)).Int("episode", s.episode).Msg("scheduled")
}

// Drain runs every callback that was pending when it was called, oldest
// first, one at a time and each to completion. Callbacks scheduled while
// draining wait for the next call.
func (s *Scheduler) Drain() []Execution {
	batch := s.queue
	s.queue = nil
	out := make([]Execution, 0, len(batch))
	for _, cb := range batch {
		out = append(out, s.run(cb))
	}
	return out
}

func (s *Scheduler) run(cb *Callback) Execution {
	episode := s.Begin()
	cs := stack.New(s.ids)
	if s.OnEpisode != nil {
		s.OnEpisode(episode, cb, cs)
	}
	cb.state = Executing
	log.Debug().Str("callback", cb.String()).Int("episode", episode).Msg("executing")

	ex := Execution{Callback: cb, Episode: episode}
	if cb.Action == nil {
		ex.Outcome = propagate.CompletedOutcome()
		cb.state = Completed
		return ex
	}
	ex.Outcome, ex.Err = cb.Action(cs)
	if ex.Err != nil {
		cb.state = Aborted
		log.Warn().Err(ex.Err).Str("callback", cb.String()).Int("episode", episode).Msg("callback aborted")
		return ex
	}
	cb.state = stateFor(ex.Outcome)
	if ex.Outcome.Verdict == propagate.Completed && !cs.IsEmpty() {
		log.Warn().Str("callback", cb.String()).Int("depth", cs.Depth()).Msg("callback finished with frames still on the stack")
	}
	log.Debug().Str("callback", cb.String()).Int("episode", episode).Str("outcome", ex.Outcome.String()).Msg("settled")
	return ex
}
