package propagate

import "fmt"

// Error is a simulated error, the thing a script throws. It is not a failure
// of the simulator itself.
type Error struct {
	Kind    string
	Message string
}

func NewError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
