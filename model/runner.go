package model

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/sched"
	"github.com/timewinder-dev/unwind/script"
	"github.com/timewinder-dev/unwind/stack"
	"github.com/timewinder-dev/unwind/trace"
)

var ErrTooManyTurns = errors.New("callbacks were still pending after the last allowed turn")

// A Runner is the context and entrypoint for running one scenario
type Runner struct {
	Scenario  *Scenario
	Scheduler *sched.Scheduler
	Log       *trace.Log
	Interp    *script.Interpreter
	Reporter  Reporter
}

// EpisodeResult is how one episode ended. Turn 0 is the main episode.
type EpisodeResult struct {
	Episode int
	Turn    int
	Name    string
	Origin  stack.FrameID
	Outcome propagate.Outcome
	Err     error
}

func (e EpisodeResult) String() string {
	return Describe(e.Outcome, e.Err)
}

type Violation struct {
	Expectation string
	Episode     int
	Name        string
	Message     string
}

type Statistics struct {
	Episodes     int
	Turns        int
	FramesPushed int
	Raises       int
	Handled      int
	Unhandled    int
	Scheduled    int
	Abandoned    int // still queued when the run ended
	UniqueStacks int
	MaxDepth     int
}

type Result struct {
	Main       EpisodeResult
	Callbacks  []EpisodeResult
	Violations []Violation
	Statistics Statistics
	Crashed    bool
	Success    bool
}

// Run executes the main episode and then drains the scheduler one turn at a
// time until nothing is pending, the program crashes, or the turn limit is
// reached. An error is returned only when the main script itself fails.
func (r *Runner) Run() (*Result, error) {
	sc := r.Scenario.Scenario
	r.Reporter.Printf("Running %s\n", sc.File)

	var src any
	if r.Scenario.Source != nil {
		src = r.Scenario.Source
	}
	out, err := r.Interp.Run(sc.File, src)
	if err != nil {
		return nil, fmt.Errorf("running main episode: %w", err)
	}
	res := &Result{
		Main: EpisodeResult{
			Episode: r.Scheduler.Episode(),
			Name:    "main",
			Outcome: out,
		},
		Crashed: out.IsUnhandled(),
	}

	turn := 0
	for r.Scheduler.Pending() > 0 {
		if res.Crashed && !sc.ContinueAfterCrash {
			log.Debug().Int("pending", r.Scheduler.Pending()).Msg("crashed, abandoning queued callbacks")
			break
		}
		if turn >= sc.MaxTurns {
			res.Violations = append(res.Violations, Violation{
				Expectation: fmt.Sprintf("settles within %d turns", sc.MaxTurns),
				Name:        "(run)",
				Message:     ErrTooManyTurns.Error(),
			})
			break
		}
		turn++
		r.Reporter.Printf("Turn %d: draining %d callback(s)\n", turn, r.Scheduler.Pending())
		for _, ex := range r.Scheduler.Drain() {
			er := EpisodeResult{
				Episode: ex.Episode,
				Turn:    turn,
				Name:    ex.Callback.Name,
				Origin:  ex.Callback.Origin,
				Outcome: ex.Outcome,
				Err:     ex.Err,
			}
			if ex.Err != nil {
				log.Error().Err(ex.Err).Str("callback", ex.Callback.String()).Msg("callback aborted")
			}
			if ex.Outcome.IsUnhandled() {
				res.Crashed = true
			}
			res.Callbacks = append(res.Callbacks, er)
		}
	}

	res.Violations = append(res.Violations, r.check(res)...)
	res.Statistics = r.statistics(res, turn)
	res.Success = len(res.Violations) == 0
	return res, nil
}

func (r *Runner) check(res *Result) []Violation {
	var out []Violation
	exp := r.Scenario.Expect
	if exp.Main != "" && !MatchOutcome(exp.Main, res.Main.Outcome, res.Main.Err) {
		out = append(out, Violation{
			Expectation: exp.Main,
			Episode:     res.Main.Episode,
			Name:        "main",
			Message:     fmt.Sprintf("main episode ended %s", res.Main),
		})
	}
	if len(exp.Callbacks) == 0 {
		return out
	}
	if len(exp.Callbacks) != len(res.Callbacks) {
		out = append(out, Violation{
			Expectation: fmt.Sprintf("%d callback(s)", len(exp.Callbacks)),
			Name:        "(callbacks)",
			Message:     fmt.Sprintf("%d callback(s) ran", len(res.Callbacks)),
		})
	}
	for i, pattern := range exp.Callbacks {
		if i >= len(res.Callbacks) {
			break
		}
		cb := res.Callbacks[i]
		if !MatchOutcome(pattern, cb.Outcome, cb.Err) {
			out = append(out, Violation{
				Expectation: pattern,
				Episode:     cb.Episode,
				Name:        cb.Name,
				Message:     fmt.Sprintf("callback %d (%s) ended %s", i+1, cb.Name, cb),
			})
		}
	}
	return out
}

func (r *Runner) statistics(res *Result, turns int) Statistics {
	st := Statistics{
		Episodes:  1 + len(res.Callbacks),
		Turns:     turns,
		Abandoned: r.Scheduler.Pending(),
	}
	if r.Log == nil {
		return st
	}
	for _, e := range r.Log.Events() {
		switch e.Kind {
		case trace.Push:
			st.FramesPushed++
		case trace.Raise:
			st.Raises++
		case trace.Handled:
			st.Handled++
		case trace.Unhandled:
			st.Unhandled++
		case trace.Schedule:
			st.Scheduled++
		}
		if e.Depth > st.MaxDepth {
			st.MaxDepth = e.Depth
		}
	}
	st.UniqueStacks = r.Log.UniqueStacks()
	return st
}
