package model

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/timewinder-dev/unwind/propagate"
	"github.com/timewinder-dev/unwind/stack"
	"github.com/timewinder-dev/unwind/trace"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

func colorOutcome(e EpisodeResult) string {
	s := e.String()
	if e.Err != nil {
		return color.Magenta.Sprint(s)
	}
	switch e.Outcome.Verdict {
	case propagate.Unhandled:
		return color.Red.Sprint(s)
	case propagate.Handled:
		return color.Yellow.Sprint(s)
	default:
		return color.Green.Sprint(s)
	}
}

// FormatResult lists every episode of a run and how it ended
func FormatResult(r *Result) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Episodes ==="))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  #%-3d %-24s %s\n", r.Main.Episode, "main", colorOutcome(r.Main)))
	for _, cb := range r.Callbacks {
		b.WriteString(fmt.Sprintf("  #%-3d %-24s %s", cb.Episode, cb.Name, colorOutcome(cb)))
		b.WriteString(color.Gray.Sprintf("  (turn %d, scheduled under frame #%d)", cb.Turn, cb.Origin))
		if cb.Err != nil {
			b.WriteString("\n       ")
			b.WriteString(color.Magenta.Sprint(cb.Err.Error()))
		}
		b.WriteString("\n")
	}
	if r.Crashed {
		b.WriteString(color.Red.Sprint("  process crashed: an error reached the bottom of its stack"))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatViolation formats a single expectation violation for display
func FormatViolation(v Violation) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	b.WriteString(color.Red.Sprint("EXPECTATION VIOLATED"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Expected: "))
	b.WriteString(color.Yellow.Sprintf("%s\n", v.Expectation))
	b.WriteString(color.Bold.Sprint("Episode:  "))
	if v.Episode > 0 {
		b.WriteString(fmt.Sprintf("#%d (%s)\n", v.Episode, v.Name))
	} else {
		b.WriteString(fmt.Sprintf("%s\n", v.Name))
	}
	b.WriteString(color.Bold.Sprint("Message:  "))
	b.WriteString(color.Red.Sprintf("%s\n", v.Message))
	return b.String()
}

func FormatAllViolations(violations []Violation) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Red.Sprintf("Found %d violation(s):\n", len(violations)))
	for _, v := range violations {
		b.WriteString(FormatViolation(v))
	}
	return b.String()
}

// FormatStack draws a snapshot top frame first, handlers marked with a star.
func FormatStack(s *stack.Snapshot, indent string) string {
	var b strings.Builder
	if s.Depth() == 0 {
		b.WriteString(indent)
		b.WriteString(color.Gray.Sprint("(empty)"))
		b.WriteString("\n")
		return b.String()
	}
	width := 0
	for _, f := range s.Frames {
		width = max(width, len(f.Name)+1)
	}
	for i := len(s.Frames) - 1; i >= 0; i-- {
		f := s.Frames[i]
		mark := " "
		if f.HandlesErrors {
			mark = color.Yellow.Sprint("*")
		}
		b.WriteString(indent)
		b.WriteString(fmt.Sprintf("| %-*s%s |", width, f.Name, mark))
		b.WriteString(color.Gray.Sprintf(" #%d", f.ID))
		b.WriteString("\n")
	}
	return b.String()
}

func eventColor(k trace.EventKind) color.Color {
	switch k {
	case trace.EpisodeStart, trace.EpisodeEnd:
		return color.Cyan
	case trace.Raise, trace.Unhandled:
		return color.Red
	case trace.Handled:
		return color.Yellow
	case trace.Schedule:
		return color.Magenta
	default:
		return color.Normal
	}
}

// FormatTrace replays a trace log, drawing the stack after every event.
func FormatTrace(l *trace.Log) string {
	var b strings.Builder
	b.WriteString(color.Gray.Sprint(thinRule))
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("Execution Trace:"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(thinRule))
	b.WriteString("\n")
	for _, e := range l.Events() {
		b.WriteString(fmt.Sprintf("%4d. [episode %d] ", e.Seq+1, e.Episode))
		b.WriteString(eventColor(e.Kind).Sprint(e.Kind.String()))
		if e.Frame.ID != 0 {
			b.WriteString(" ")
			b.WriteString(e.Frame.String())
		}
		if e.Detail != "" {
			b.WriteString(color.Gray.Sprintf("  %s", e.Detail))
		}
		b.WriteString("\n")
		if e.Kind == trace.EpisodeEnd {
			continue
		}
		snap, err := l.Snapshot(e)
		if err != nil {
			b.WriteString(color.Red.Sprintf("      (stack unavailable: %v)\n", err))
			continue
		}
		b.WriteString(FormatStack(snap, "      "))
	}
	return b.String()
}

func FormatStatistics(stats Statistics) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Run statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Episodes: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Episodes))
	b.WriteString(color.Bold.Sprint("Event loop turns: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Turns))
	b.WriteString(color.Bold.Sprint("Frames pushed: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.FramesPushed))
	b.WriteString(color.Bold.Sprint("Maximum depth: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.MaxDepth))
	b.WriteString(color.Bold.Sprint("Unique stack shapes: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.UniqueStacks))
	b.WriteString(color.Bold.Sprint("Callbacks scheduled: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Scheduled))
	b.WriteString(color.Bold.Sprint("Errors raised: "))
	b.WriteString(fmt.Sprintf("%d (handled %d, ", stats.Raises, stats.Handled))
	if stats.Unhandled > 0 {
		b.WriteString(color.Red.Sprintf("unhandled %d", stats.Unhandled))
	} else {
		b.WriteString(color.Green.Sprintf("unhandled %d", stats.Unhandled))
	}
	b.WriteString(")\n")

	if stats.Abandoned > 0 {
		b.WriteString(color.Bold.Sprint("Callbacks never run: "))
		b.WriteString(color.Yellow.Sprintf("%d\n", stats.Abandoned))
	}
	return b.String()
}
