package propagate

import (
	"fmt"

	"github.com/timewinder-dev/unwind/stack"
)

type Verdict int

const (
	Completed Verdict = iota // nothing was raised
	Handled
	Unhandled
)

func (v Verdict) String() string {
	switch v {
	case Completed:
		return "Completed"
	case Handled:
		return "Handled"
	case Unhandled:
		return "Unhandled"
	default:
		return fmt.Sprintf("Unknown(%d)", v)
	}
}

// Outcome is what became of a raised error, or of a whole episode.
type Outcome struct {
	Verdict Verdict
	Handler stack.Frame // set when Verdict is Handled
	Err     *Error      // nil when Verdict is Completed
}

func HandledBy(handler stack.Frame, err *Error) Outcome {
	return Outcome{Verdict: Handled, Handler: handler, Err: err}
}

func UnhandledError(err *Error) Outcome {
	return Outcome{Verdict: Unhandled, Err: err}
}

func CompletedOutcome() Outcome {
	return Outcome{Verdict: Completed}
}

func (o Outcome) IsHandled() bool   { return o.Verdict == Handled }
func (o Outcome) IsUnhandled() bool { return o.Verdict == Unhandled }

func (o Outcome) String() string {
	switch o.Verdict {
	case Handled:
		return fmt.Sprintf("HandledBy(%s)", o.Handler.Name)
	case Unhandled:
		return fmt.Sprintf("Unhandled(%s)", o.Err)
	default:
		return o.Verdict.String()
	}
}
