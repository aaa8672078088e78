package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/stack"
)

func TestReadFileCrashScenario(t *testing.T) {
	ids := stack.NewIDSequence()
	sch := New(ids)
	sch.Begin()
	main := stack.New(ids)

	main.Push("readFileAndCatchErrors", true)
	main.Push("readSomeFile", false)
	cb := NewCallback("callback", main, func(s *stack.CallStack) (propagate.Outcome, error) {
		s.Push("callback", false)
		return propagate.Raise(s, propagate.NewError("ENOENT", "no such file or directory")), nil
	})
	sch.Schedule(cb)
	_, err := main.Pop()
	require.NoError(t, err)
	_, err = main.Pop()
	require.NoError(t, err)
	require.True(t, main.IsEmpty())

	assert.Equal(t, Scheduled, cb.State())
	out := sch.Drain()
	require.Len(t, out, 1)
	assert.True(t, out[0].Outcome.IsUnhandled())
	assert.Equal(t, "ENOENT", out[0].Outcome.Err.Kind)
	assert.Equal(t, Unhandled, cb.State())
	assert.Equal(t, 2, out[0].Episode)
	assert.Equal(t, 1, cb.ScheduledAt)
	assert.Zero(t, sch.Pending())
}

func TestHandlerLiveAtScheduleTimeDoesNotCatch(t *testing.T) {
	ids := stack.NewIDSequence()
	sch := New(ids)
	origin := stack.New(ids)
	handler := origin.Push("rescuer", true)

	var seen *stack.CallStack
	cb := NewCallback("late", origin, func(s *stack.CallStack) (propagate.Outcome, error) {
		seen = s
		assert.True(t, s.IsEmpty(), "callbacks start on an empty stack")
		s.Push("late", false)
		return propagate.Raise(s, propagate.NewError("E", "")), nil
	})
	assert.Equal(t, handler.ID, cb.Origin)
	sch.Schedule(cb)

	// Even with the handler still on the original stack, the callback's
	// error is resolved against its own stack.
	out := sch.Drain()
	require.Len(t, out, 1)
	assert.NotSame(t, origin, seen)
	assert.True(t, out[0].Outcome.IsUnhandled())
	assert.True(t, origin.Contains(handler.ID))
}

func TestDrainFIFO(t *testing.T) {
	sch := New(nil)
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		sch.Schedule(NewCallback(name, nil, func(s *stack.CallStack) (propagate.Outcome, error) {
			order = append(order, name)
			f := s.Push(name, true)
			out := propagate.Raise(s, propagate.NewError("E", name))
			assert.Equal(t, f, out.Handler)
			return out, nil
		}))
	}
	assert.Empty(t, order, "schedule must not run anything")
	out := sch.Drain()
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	for i, ex := range out {
		assert.Equal(t, order[i], ex.Outcome.Handler.Name)
		assert.Equal(t, i+1, ex.Episode)
		assert.Equal(t, Handled, ex.Callback.State())
	}
}

func TestDrainEmptyIsIdempotent(t *testing.T) {
	sch := New(nil)
	assert.Empty(t, sch.Drain())
	assert.Empty(t, sch.Drain())
	assert.Zero(t, sch.Pending())
	assert.Zero(t, sch.Episode())
}

func TestNestedScheduleRunsNextDrain(t *testing.T) {
	sch := New(nil)
	var inner *Callback
	sch.Schedule(NewCallback("outer", nil, func(s *stack.CallStack) (propagate.Outcome, error) {
		s.Push("outer", false)
		inner = NewCallback("inner", s, func(s *stack.CallStack) (propagate.Outcome, error) {
			return propagate.CompletedOutcome(), nil
		})
		sch.Schedule(inner)
		_, err := s.Pop()
		return propagate.CompletedOutcome(), err
	}))

	first := sch.Drain()
	require.Len(t, first, 1)
	assert.Equal(t, Completed, first[0].Callback.State())
	assert.Equal(t, 1, sch.Pending())
	assert.Equal(t, Scheduled, inner.State())

	second := sch.Drain()
	require.Len(t, second, 1)
	assert.Same(t, inner, second[0].Callback)
	assert.NotZero(t, inner.Origin)
	assert.Empty(t, sch.Drain())
}

func TestUnderflowAbortsOnlyThatEpisode(t *testing.T) {
	sch := New(nil)
	sch.Schedule(NewCallback("bad", nil, func(s *stack.CallStack) (propagate.Outcome, error) {
		_, err := s.Pop()
		return propagate.Outcome{}, err
	}))
	sch.Schedule(NewCallback("good", nil, nil))

	out := sch.Drain()
	require.Len(t, out, 2)
	require.ErrorIs(t, out[0].Err, stack.ErrStackUnderflow)
	assert.Equal(t, Aborted, out[0].Callback.State())
	require.NoError(t, out[1].Err)
	assert.Equal(t, Completed, out[1].Callback.State())
}

func TestSettledCallbackCannotBeRescheduled(t *testing.T) {
	sch := New(nil)
	cb := NewCallback("once", nil, nil)
	sch.Schedule(cb)
	assert.Panics(t, func() { sch.Schedule(cb) })
	sch.Drain()
	assert.True(t, cb.State().Settled())
	assert.Panics(t, func() { sch.Schedule(cb) })
}

func TestOnEpisodeSeesFreshStack(t *testing.T) {
	sch := New(nil)
	var episodes []int
	sch.OnEpisode = func(episode int, cb *Callback, s *stack.CallStack) {
		assert.True(t, s.IsEmpty())
		episodes = append(episodes, episode)
	}
	sch.Begin()
	sch.Schedule(NewCallback("x", nil, nil))
	sch.Schedule(NewCallback("y", nil, nil))
	sch.Drain()
	assert.Equal(t, []int{2, 3}, episodes)
}
