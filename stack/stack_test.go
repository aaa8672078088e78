package stack

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namesFromTop(s *CallStack) []string {
	var out []string
	for f := range s.FromTop() {
		out = append(out, f.Name)
	}
	return out
}

func TestPushPopReverseOrder(t *testing.T) {
	for n := 0; n <= 8; n++ {
		t.Run(fmt.Sprintf("depth%d", n), func(t *testing.T) {
			s := New(nil)
			var pushed []string
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("fn%d", i)
				s.Push(name, i%2 == 0)
				pushed = append(pushed, name)
			}
			require.Equal(t, n, s.Depth())
			for i := n - 1; i >= 0; i-- {
				f, err := s.Pop()
				require.NoError(t, err)
				assert.Equal(t, pushed[i], f.Name)
			}
			assert.True(t, s.IsEmpty())
		})
	}
}

func TestPopEmptyUnderflows(t *testing.T) {
	s := New(nil)
	_, err := s.Pop()
	require.ErrorIs(t, err, ErrStackUnderflow)

	s.Push("a", false)
	_, err = s.Pop()
	require.NoError(t, err)
	_, err = s.Pop()
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestFrameIDsIncrease(t *testing.T) {
	ids := NewIDSequence()
	a := New(ids)
	b := New(ids)
	f1 := a.Push("same", false)
	f2 := b.Push("same", false)
	_, err := a.Pop()
	require.NoError(t, err)
	f3 := a.Push("same", false)

	assert.Less(t, uint64(f1.ID), uint64(f2.ID))
	assert.Less(t, uint64(f2.ID), uint64(f3.ID))
	assert.NotEqual(t, f1, f3)
	assert.Equal(t, f3.ID, ids.Last())
	assert.NotZero(t, f1.ID)
}

func TestFromTopIsLiveAndRestartable(t *testing.T) {
	s := New(nil)
	s.Push("bottom", true)
	s.Push("middle", false)
	seq := s.FromTop()

	var first []string
	for f := range seq {
		first = append(first, f.Name)
	}
	assert.Equal(t, []string{"middle", "bottom"}, first)

	s.Push("top", false)
	var second []string
	for f := range seq {
		second = append(second, f.Name)
	}
	assert.Equal(t, []string{"top", "middle", "bottom"}, second)
	assert.Equal(t, 3, s.Depth(), "ranging must not mutate")

	for f := range seq {
		assert.Equal(t, "top", f.Name)
		break
	}
}

func TestTopAndContains(t *testing.T) {
	s := New(nil)
	_, ok := s.Top()
	assert.False(t, ok)

	h := s.Push("handler", true)
	c := s.Push("callee", false)
	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, c, top)
	assert.True(t, s.Contains(h.ID))

	s.Teardown()
	assert.True(t, s.IsEmpty())
	assert.False(t, s.Contains(h.ID))
	assert.Empty(t, namesFromTop(s))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(nil)
	s.Push("readFileAndCatchErrors", true)
	s.Push("readSomeFile", false)
	snap := s.Snapshot()

	s.Push("later", false)
	assert.Equal(t, 2, snap.Depth(), "snapshot is a copy")

	var buf bytes.Buffer
	require.NoError(t, snap.Serialize(&buf))
	out := &Snapshot{}
	require.NoError(t, out.Deserialize(&buf))
	assert.Equal(t, snap.Frames, out.Frames)
	assert.Equal(t, []string{"readSomeFile", "readFileAndCatchErrors"}, out.Names())
}

func TestFrameString(t *testing.T) {
	assert.Equal(t, "inverse#3", Frame{ID: 3, Name: "inverse"}.String())
	assert.Equal(t, "callInverseSafe#2 [handler]", Frame{ID: 2, Name: "callInverseSafe", HandlesErrors: true}.String())
}
