package stack

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

var ErrStackUnderflow = errors.New("stack underflow: pop on empty call stack")

// FrameID identifies a frame across every episode that shares an IDSequence.
// Zero is never assigned and means "no frame".
type FrameID uint64

// A Frame is one function activation. Frames are handed out by value, so a
// popped frame can be inspected but never pushed again.
type Frame struct {
	ID            FrameID
	Name          string
	HandlesErrors bool
}

func (f Frame) String() string {
	if f.HandlesErrors {
		return fmt.Sprintf("%s#%d [handler]", f.Name, f.ID)
	}
	return fmt.Sprintf("%s#%d", f.Name, f.ID)
}

// IDSequence hands out monotonically increasing frame ids.
type IDSequence struct {
	last atomic.Uint64
}

func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

func (s *IDSequence) Next() FrameID {
	return FrameID(s.last.Add(1))
}

// Last returns the most recently assigned id, or 0 if none was assigned yet.
func (s *IDSequence) Last() FrameID {
	return FrameID(s.last.Load())
}

// CallStack is the ordered record of active frames for one episode. The last
// element of frames is the top.
type CallStack struct {
	ids    *IDSequence
	frames []Frame
}

// New creates an empty call stack. Stacks that must hand out distinct ids
// (for example every episode of one run) should share ids; a nil ids gets a
// private sequence.
func New(ids *IDSequence) *CallStack {
	if ids == nil {
		ids = NewIDSequence()
	}
	return &CallStack{ids: ids}
}

func (s *CallStack) IDs() *IDSequence {
	return s.ids
}

func (s *CallStack) Push(name string, handlesErrors bool) Frame {
	f := Frame{
		ID:            s.ids.Next(),
		Name:          name,
		HandlesErrors: handlesErrors,
	}
	s.frames = append(s.frames, f)
	log.Trace().Str("frame", f.Name).Uint64("id", uint64(f.ID)).Bool("handler", handlesErrors).Int("depth", len(s.frames)).Msg("push")
	return f
}

func (s *CallStack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrStackUnderflow
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	log.Trace().Str("frame", f.Name).Uint64("id", uint64(f.ID)).Int("depth", len(s.frames)).Msg("pop")
	return f, nil
}

// FromTop yields the frames from the top of the stack down to the bottom.
// Every iteration reads the stack as it is at that moment. Callers must not
// push or pop while ranging.
func (s *CallStack) FromTop() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for i := len(s.frames) - 1; i >= 0; i-- {
			if !yield(s.frames[i]) {
				return
			}
		}
	}
}

func (s *CallStack) IsEmpty() bool {
	return len(s.frames) == 0
}

func (s *CallStack) Depth() int {
	return len(s.frames)
}

func (s *CallStack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *CallStack) Contains(id FrameID) bool {
	for f := range s.FromTop() {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Teardown drops every frame at once. It models a crashed episode, where the
// frames are never returned from individually.
func (s *CallStack) Teardown() {
	log.Trace().Int("depth", len(s.frames)).Msg("teardown")
	s.frames = nil
}
