package stack

import (
	"io"
	"slices"

	"github.com/shamaton/msgpack/v2"
)

// Snapshot is a frozen copy of a call stack, bottom frame first.
type Snapshot struct {
	Frames []Frame
}

func (s *CallStack) Snapshot() *Snapshot {
	if len(s.frames) == 0 {
		return &Snapshot{}
	}
	return &Snapshot{Frames: slices.Clone(s.frames)}
}

func (s *Snapshot) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *Snapshot) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}

func (s *Snapshot) Depth() int {
	return len(s.Frames)
}

// Names lists frame names from the top down, the order the stack is drawn in.
func (s *Snapshot) Names() []string {
	out := make([]string, 0, len(s.Frames))
	for i := len(s.Frames) - 1; i >= 0; i-- {
		out = append(out, s.Frames[i].Name)
	}
	return out
}
