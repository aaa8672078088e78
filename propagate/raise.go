package propagate

import (
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/unwind/stack"
)

// Raise dispatches err against s. The nearest frame from the top that handles
// errors catches it: every frame above it is unwound, then the handler itself
// returns. With no handler on the stack the episode crashes and s is torn down.
//
// Raise never fails; both results are ordinary outcomes. A nil err is raised
// as a bare "Error".
func Raise(s *stack.CallStack, err *Error) Outcome {
	if err == nil {
		err = &Error{Kind: "Error"}
	}
	handler, found := findHandler(s)
	if !found {
		log.Debug().Str("error", err.Error()).Int("depth", s.Depth()).Msg("raise: no handler, episode crashed")
		s.Teardown()
		return UnhandledError(err)
	}

	unwound := 0
	for {
		// Pop cannot underflow here: the handler is still below us.
		f, _ := s.Pop()
		if f.ID == handler.ID {
			break
		}
		unwound++
	}
	log.Debug().Str("error", err.Error()).Str("handler", handler.Name).Int("unwound", unwound).Msg("raise: handled")
	return HandledBy(handler, err)
}

func findHandler(s *stack.CallStack) (stack.Frame, bool) {
	for f := range s.FromTop() {
		if f.HandlesErrors {
			return f, true
		}
	}
	return stack.Frame{}, false
}
