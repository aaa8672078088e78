// Package script runs Starlark scenarios against the simulator.
//
// A scenario's top level is the main episode. It starts on an empty call
// stack and drives the simulator through these builtins:
//
//	call(name, fn, *args, handles=False)  push a frame, run fn, pop it
//	throw(kind, message="")               raise a simulated error
//	set_timeout(fn, name="callback")      defer fn to a later episode
//	depth()                               current stack depth
//	frames()                              frame names, top first
//
// A throw that is caught makes the catching call() return None, so control
// resumes in the function that made that call. A throw nobody catches ends
// the episode. An episode's outcome is that of its last throw, or Completed
// when it threw nothing.
//
//	def inverse(x):
//	    if x == 0:
//	        throw("ArgumentError", "Argument is `0`")
//	    return 1 / x
//
//	def callInverseSafe():
//	    call("inverse", inverse, 0)
//
//	call("callInverseSafe", callInverseSafe, handles=True)
package script
