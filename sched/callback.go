package sched

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/stack"
)

// An Action runs a deferred callback to completion on the stack it is given,
// which is always a fresh one. It returns the episode's outcome; a non-nil
// error reports misuse of the simulator (such as stack underflow), not a
// simulated error.
type Action func(s *stack.CallStack) (propagate.Outcome, error)

type State int

const (
	Scheduled State = iota
	Executing
	Completed
	Handled
	Unhandled
	Aborted
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "Scheduled"
	case Executing:
		return "Executing"
	case Completed:
		return "Completed"
	case Handled:
		return "Handled"
	case Unhandled:
		return "Unhandled"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Settled reports whether the callback has run and can never run again.
func (s State) Settled() bool {
	return s > Executing
}

type Callback struct {
	ID   uuid.UUID
	Name string
	// Origin is the frame that was on top when the callback was created. It
	// is kept for reporting and plays no part in routing errors.
	Origin      stack.FrameID
	ScheduledAt int
	Action      Action

	state State
}

// NewCallback creates a callback whose origin is the current top of origin.
// origin may be nil or empty.
func NewCallback(name string, origin *stack.CallStack, action Action) *Callback {
	cb := &Callback{
		ID:     uuid.New(),
		Name:   name,
		Action: action,
	}
	if origin != nil {
		if top, ok := origin.Top(); ok {
			cb.Origin = top.ID
		}
	}
	return cb
}

func (c *Callback) State() State {
	return c.state
}

func (c *Callback) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.ID.String()[:8])
}

func stateFor(o propagate.Outcome) State {
	switch o.Verdict {
	case propagate.Handled:
		return Handled
	case propagate.Unhandled:
		return Unhandled
	default:
		return Completed
	}
}
