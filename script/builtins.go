package script

import (
	"errors"
	"fmt"

	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/sched"
	"github.com/timewinder-dev/unwind/trace"
	"go.starlark.net/starlark"
)

func (in *Interpreter) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"call":        starlark.NewBuiltin("call", in.builtinCall),
		"throw":       starlark.NewBuiltin("throw", in.builtinThrow),
		"set_timeout": starlark.NewBuiltin("set_timeout", in.builtinSetTimeout),
		"depth":       starlark.NewBuiltin("depth", builtinDepth),
		"frames":      starlark.NewBuiltin("frames", builtinFrames),
	}
}

func (in *Interpreter) builtinCall(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%s: want at least 2 positional arguments (name, fn), got %d", b.Name(), len(args))
	}
	name, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: name must be a string, not %s", b.Name(), args[0].Type())
	}
	fn, ok := args[1].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s: fn must be callable, not %s", b.Name(), args[1].Type())
	}
	var handles bool
	if err := starlark.UnpackArgs(b.Name(), nil, kwargs, "handles?", &handles); err != nil {
		return nil, err
	}
	ep, err := episodeOf(thread)
	if err != nil {
		return nil, err
	}

	f := ep.stack.Push(name, handles)
	in.record(ep, trace.Push, f, "")
	res, err := starlark.Call(thread, fn, args[2:], nil)
	if err != nil {
		var thrown *Thrown
		if errors.As(err, &thrown) && thrown.Outcome.IsHandled() && thrown.Outcome.Handler.ID == f.ID {
			// The engine already popped this frame.
			return starlark.None, nil
		}
		return nil, err
	}
	popped, err := ep.stack.Pop()
	if err != nil {
		return nil, err
	}
	in.record(ep, trace.Pop, popped, "")
	return res, nil
}

func (in *Interpreter) builtinThrow(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var kind, message string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "kind", &kind, "message?", &message); err != nil {
		return nil, err
	}
	ep, err := episodeOf(thread)
	if err != nil {
		return nil, err
	}
	e := propagate.NewError(kind, message)
	top, _ := ep.stack.Top()
	in.record(ep, trace.Raise, top, e.Error())

	out := propagate.Raise(ep.stack, e)
	ep.last = &out
	if out.IsHandled() {
		in.record(ep, trace.Handled, out.Handler, e.Error())
	} else {
		in.record(ep, trace.Unhandled, top, e.Error())
	}
	return nil, &Thrown{Outcome: out}
}

func (in *Interpreter) builtinSetTimeout(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	name := "callback"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "name?", &name); err != nil {
		return nil, err
	}
	ep, err := episodeOf(thread)
	if err != nil {
		return nil, err
	}
	cb := sched.NewCallback(name, ep.stack, in.deferred(name, fn))
	in.Scheduler.Schedule(cb)
	top, _ := ep.stack.Top()
	in.record(ep, trace.Schedule, top, cb.String())
	return starlark.String(cb.ID.String()), nil
}

func builtinDepth(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	ep, err := episodeOf(thread)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(ep.stack.Depth()), nil
}

func builtinFrames(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	ep, err := episodeOf(thread)
	if err != nil {
		return nil, err
	}
	var names []starlark.Value
	for f := range ep.stack.FromTop() {
		names = append(names, starlark.String(f.Name))
	}
	return starlark.NewList(names), nil
}
