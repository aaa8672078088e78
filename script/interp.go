package script

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/sched"
	"github.com/timewinder-dev/unwind/stack"
	"github.com/timewinder-dev/unwind/trace"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const episodeKey = "unwind.episode"

var fileOptions = &syntax.FileOptions{
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

type episode struct {
	n     int
	stack *stack.CallStack
	last  *propagate.Outcome // most recent throw, if any
}

// Interpreter executes scenario scripts. Deferred callbacks are queued on
// Scheduler; draining them is up to the caller.
type Interpreter struct {
	Scheduler *sched.Scheduler
	Log       *trace.Log // optional
	Out       io.Writer  // print() output, discarded when nil
}

func New(s *sched.Scheduler, l *trace.Log) *Interpreter {
	if s == nil {
		s = sched.New(nil)
	}
	return &Interpreter{
		Scheduler: s,
		Log:       l,
	}
}

// RunFile executes the script at path as a new main episode.
func (in *Interpreter) RunFile(path string) (propagate.Outcome, error) {
	return in.Run(path, nil)
}

// Run executes src (anything starlark.ExecFile accepts; nil reads filename)
// as a new main episode and returns how that episode ended.
func (in *Interpreter) Run(filename string, src any) (propagate.Outcome, error) {
	ep := &episode{
		n:     in.Scheduler.Begin(),
		stack: stack.New(in.Scheduler.IDs()),
	}
	thread := in.newThread("main", ep)
	in.record(ep, trace.EpisodeStart, stack.Frame{}, "main")
	_, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, in.predeclared())
	return in.settle(ep, err)
}

func (in *Interpreter) newThread(name string, ep *episode) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			log.Debug().Str("thread", t.Name).Msg(msg)
			if in.Out != nil {
				fmt.Fprintln(in.Out, msg)
			}
		},
	}
	thread.SetLocal(episodeKey, ep)
	return thread
}

func episodeOf(thread *starlark.Thread) (*episode, error) {
	ep, ok := thread.Local(episodeKey).(*episode)
	if !ok {
		return nil, errors.New("thread is not running a scenario episode")
	}
	return ep, nil
}

// deferred wraps a Starlark callable as a scheduler action.
func (in *Interpreter) deferred(name string, fn starlark.Callable) sched.Action {
	return func(s *stack.CallStack) (propagate.Outcome, error) {
		ep := &episode{
			n:     in.Scheduler.Episode(),
			stack: s,
		}
		thread := in.newThread(name, ep)
		in.record(ep, trace.EpisodeStart, stack.Frame{}, name)
		_, err := starlark.Call(thread, fn, nil, nil)
		return in.settle(ep, err)
	}
}

// settle turns the error that ended an episode into its outcome. An episode
// that runs to the end reports its last handled throw, or Completed if it
// threw nothing. Only host failures (Starlark runtime errors, stack
// underflow) come back as errors.
func (in *Interpreter) settle(ep *episode, err error) (propagate.Outcome, error) {
	if err == nil {
		if !ep.stack.IsEmpty() {
			log.Warn().Int("episode", ep.n).Int("depth", ep.stack.Depth()).Msg("episode ended with frames on the stack")
		}
		out := propagate.CompletedOutcome()
		if ep.last != nil {
			out = *ep.last
		}
		in.record(ep, trace.EpisodeEnd, stack.Frame{}, out.String())
		return out, nil
	}
	var thrown *Thrown
	if errors.As(err, &thrown) {
		in.record(ep, trace.EpisodeEnd, stack.Frame{}, thrown.Outcome.String())
		return thrown.Outcome, nil
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		log.Debug().Str("backtrace", evalErr.Backtrace()).Int("episode", ep.n).Msg("script failed")
	}
	in.record(ep, trace.EpisodeEnd, stack.Frame{}, "Aborted")
	return propagate.Outcome{}, fmt.Errorf("episode %d: %w", ep.n, err)
}

func (in *Interpreter) record(ep *episode, kind trace.EventKind, f stack.Frame, detail string) {
	if in.Log == nil {
		return
	}
	if err := in.Log.Record(ep.n, kind, f, detail, ep.stack); err != nil {
		log.Warn().Err(err).Int("episode", ep.n).Str("event", kind.String()).Msg("couldn't record trace event")
	}
}
