package propagate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/unwind/stack"
)

func TestRaiseOnEmptyStack(t *testing.T) {
	errs := []*Error{
		NewError("ArgumentError", "Argument is `0`"),
		NewError("ENOENT", "no such file or directory"),
		NewError("", ""),
		nil,
	}
	for i, e := range errs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := stack.New(nil)
			out := Raise(s, e)
			assert.Equal(t, Unhandled, out.Verdict)
			require.NotNil(t, out.Err)
			assert.True(t, s.IsEmpty())
		})
	}
}

func TestRaiseCallInverseSafe(t *testing.T) {
	s := stack.New(nil)
	s.Push("callInverseSafe", true)
	s.Push("inverse", false)

	out := Raise(s, NewError("ArgumentError", "Argument is `0`"))
	assert.Equal(t, Handled, out.Verdict)
	assert.Equal(t, "callInverseSafe", out.Handler.Name)
	assert.Equal(t, "HandledBy(callInverseSafe)", out.String())
	assert.True(t, s.IsEmpty())
}

func TestRaiseUnwindsAboveHandlerOnly(t *testing.T) {
	s := stack.New(nil)
	main := s.Push("main", false)
	handler := s.Push("handler", true)
	s.Push("a", false)
	s.Push("b", true)
	s.Push("c", false)

	// b is the nearest handler, so it catches
	out := Raise(s, NewError("E", ""))
	assert.Equal(t, "b", out.Handler.Name)
	assert.Equal(t, 3, s.Depth())

	out = Raise(s, NewError("E", ""))
	assert.True(t, out.IsHandled())
	assert.Equal(t, handler.ID, out.Handler.ID)
	assert.False(t, s.Contains(handler.ID))
	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, main, top)
}

func TestPoppedHandlerGivesNoProtection(t *testing.T) {
	s := stack.New(nil)
	s.Push("outer", false)
	s.Push("rescuer", true)
	_, err := s.Pop()
	require.NoError(t, err)

	out := Raise(s, NewError("ENOENT", ""))
	assert.True(t, out.IsUnhandled())
	assert.Equal(t, "Unhandled(ENOENT)", out.String())
	assert.True(t, s.IsEmpty(), "crash tears the stack down")
}

func TestHandlerWithNothingAbove(t *testing.T) {
	s := stack.New(nil)
	s.Push("only", true)
	out := Raise(s, NewError("E", "m"))
	assert.True(t, out.IsHandled())
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "E: m", out.Err.Error())
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "Completed", CompletedOutcome().String())
	assert.Equal(t, "Unknown(9)", Verdict(9).String())
}
