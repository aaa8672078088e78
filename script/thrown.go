package script

import (
	"fmt"

	"github.com/timewinder-dev/unwind/propagate"
)

// Thrown carries the outcome of a throw() up through the Starlark call chain
// until the call() of the handling frame absorbs it, or to the top of the
// episode when nothing handles it.
type Thrown struct {
	Outcome propagate.Outcome
}

func (t *Thrown) Error() string {
	if t.Outcome.IsHandled() {
		return fmt.Sprintf("%s (handled by %s)", t.Outcome.Err, t.Outcome.Handler.Name)
	}
	return fmt.Sprintf("uncaught %s", t.Outcome.Err)
}
