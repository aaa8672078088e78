package trace

import (
	"fmt"
	"sync"

	"github.com/timewinder-dev/unwind/stack"
)

type EventKind int

const (
	EpisodeStart EventKind = iota
	Push
	Pop
	Raise
	Handled
	Unhandled
	Schedule
	EpisodeEnd
)

func (k EventKind) String() string {
	switch k {
	case EpisodeStart:
		return "EpisodeStart"
	case Push:
		return "Push"
	case Pop:
		return "Pop"
	case Raise:
		return "Raise"
	case Handled:
		return "Handled"
	case Unhandled:
		return "Unhandled"
	case Schedule:
		return "Schedule"
	case EpisodeEnd:
		return "EpisodeEnd"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Event is one step of a run. Stack is the address of the call stack as it
// stood right after the step.
type Event struct {
	Seq     int
	Episode int
	Kind    EventKind
	Frame   stack.Frame
	Detail  string
	Depth   int
	Stack   Hash
}

// Log is the ordered event history of a run, with stack snapshots kept in a
// Store so repeated stack shapes are stored once.
type Log struct {
	mu     sync.RWMutex
	store  Store
	events []Event
	stacks map[Hash]struct{}
}

func NewLog(store Store) *Log {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Log{
		store:  store,
		stacks: make(map[Hash]struct{}),
	}
}

func (l *Log) Record(episode int, kind EventKind, frame stack.Frame, detail string, s *stack.CallStack) error {
	snap := s.Snapshot()
	h, err := l.store.Put(snap)
	if err != nil {
		return fmt.Errorf("storing stack snapshot: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stacks[h] = struct{}{}
	l.events = append(l.events, Event{
		Seq:     len(l.events),
		Episode: episode,
		Kind:    kind,
		Frame:   frame,
		Detail:  detail,
		Depth:   snap.Depth(),
		Stack:   h,
	})
	return nil
}

func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Episode returns the events of one episode in order.
func (l *Log) Episode(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.Episode == n {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) Count(kind EventKind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// UniqueStacks is the number of distinct stack shapes seen so far.
func (l *Log) UniqueStacks() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.stacks)
}

// Snapshot loads the stack as it stood after e.
func (l *Log) Snapshot(e Event) (*stack.Snapshot, error) {
	return Retrieve[stack.Snapshot](l.store, e.Stack)
}
