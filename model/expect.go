package model

import (
	"strings"

	"github.com/timewinder-dev/unwind/propagate"
)

// MatchOutcome reports whether an episode's result fits pattern. Patterns are
// case-insensitive:
//
//	completed
//	handled            handled:<frame name>
//	unhandled          unhandled:<error kind>
//	aborted            (the episode failed with a host error)
func MatchOutcome(pattern string, o propagate.Outcome, err error) bool {
	head, arg, hasArg := strings.Cut(strings.TrimSpace(pattern), ":")
	head = strings.ToLower(strings.TrimSpace(head))
	arg = strings.TrimSpace(arg)
	if err != nil {
		return head == "aborted"
	}
	switch head {
	case "completed":
		return o.Verdict == propagate.Completed
	case "handled":
		if o.Verdict != propagate.Handled {
			return false
		}
		return !hasArg || strings.EqualFold(arg, o.Handler.Name)
	case "unhandled":
		if o.Verdict != propagate.Unhandled {
			return false
		}
		return !hasArg || (o.Err != nil && strings.EqualFold(arg, o.Err.Kind))
	default:
		return false
	}
}

// Describe renders an episode result in pattern form.
func Describe(o propagate.Outcome, err error) string {
	if err != nil {
		return "aborted"
	}
	switch o.Verdict {
	case propagate.Handled:
		return "handled:" + o.Handler.Name
	case propagate.Unhandled:
		if o.Err != nil {
			return "unhandled:" + o.Err.Kind
		}
		return "unhandled"
	default:
		return "completed"
	}
}
