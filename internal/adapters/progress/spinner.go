package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// SpinnerProgressReporter shows the cycle stages with a spinner and prints
// activity log lines to the terminal
type SpinnerProgressReporter struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
	lines   []string
	quiet   bool
}

type stageInfo struct {
	Stage     domain.CycleState
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// NewSpinnerProgressReporter creates a reporter writing activity to stdout
// and the spinner to stderr
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     os.Stdout,
	}
}

// SetQuiet records activity without printing it, for structured output
func (r *SpinnerProgressReporter) SetQuiet(quiet bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quiet = quiet
	if quiet && r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Lines returns every activity line appended so far
func (r *SpinnerProgressReporter) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stage := domain.CycleState(event.Stage)
	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != stage {
		if n > 0 {
			r.stages[n-1].EndTime = time.Now()
		}
		r.stages = append(r.stages, stageInfo{Stage: stage, StartTime: time.Now()})
	}
	r.stages[len(r.stages)-1].Message = event.Message

	if r.quiet {
		return
	}

	if event.Spinner {
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
	} else if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Append prints one activity log line
func (r *SpinnerProgressReporter) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	if r.quiet {
		return
	}
	r.printLocked(lineColor(line), line)
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printLocked(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printLocked(color.New(color.FgRed), message)
}

// printLocked pauses the spinner around the write
func (r *SpinnerProgressReporter) printLocked(c *color.Color, message string) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	_, _ = c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

// Summary renders the stages of the last cycle, e.g. "✓ compiling (1.2s) → ✓ deployed"
func (r *SpinnerProgressReporter) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := make([]string, 0, len(r.stages))
	for _, stage := range r.stages {
		var icon string
		var stageColor *color.Color
		switch stage.Stage {
		case domain.StateCompileFailed, domain.StateDeployFailed:
			icon = "✗"
			stageColor = color.New(color.FgRed)
		case domain.StateDeployed, domain.StateCompiled:
			icon = "✓"
			stageColor = color.New(color.FgGreen)
		default:
			icon = "●"
			stageColor = color.New(color.FgYellow)
		}

		duration := ""
		if !stage.EndTime.IsZero() {
			duration = fmt.Sprintf(" (%s)", stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond))
		}
		parts = append(parts, fmt.Sprintf("%s %s%s", icon, stageColor.Sprint(string(stage.Stage)), duration))
	}
	return strings.Join(parts, " → ")
}

// Stop halts the spinner
func (r *SpinnerProgressReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func lineColor(line string) *color.Color {
	switch {
	case strings.HasPrefix(line, "Error:"), strings.Contains(line, "Error:"), strings.Contains(line, " failed: "), strings.Contains(line, " reverted"):
		return color.New(color.FgRed)
	case strings.Contains(line, " returned: "):
		return color.New(color.FgGreen)
	case strings.Contains(line, " gas used: "):
		return color.New(color.FgYellow)
	case strings.Contains(line, " deployed at "):
		return color.New(color.FgGreen, color.Bold)
	}
	return color.New(color.FgWhite)
}

// Ensure SpinnerProgressReporter implements both sinks
var (
	_ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
	_ usecase.ActivityLog  = (*SpinnerProgressReporter)(nil)
)
