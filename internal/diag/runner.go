package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soundwell/audiodoc/internal/telemetry"
)

// Report summarizes the results of a run.
type Report struct {
	// Passed is the number of steps with StatusOK.
	Passed int
	// Warned is the number of steps with StatusWarning.
	Warned int
	// Failed is the number of steps with StatusError.
	Failed int
	// Skipped is the number of steps not executed.
	Skipped int
	// Fixed is the number of steps remediated in fix mode.
	Fixed int
}

// Options configures a run.
type Options struct {
	// Fix remediates fixable steps that fail and re-runs them once.
	Fix bool
}

// Consenter lets an interactive step customize its consent question.
// Without it the runner asks "Run <title>?".
type Consenter interface {
	ConsentPrompt() string
}

// Runner executes registered steps sequentially and reports results.
type Runner struct {
	steps []Step
}

// Register adds a step to the runner's step list. Order of registration
// is order of execution.
func (r *Runner) Register(s Step) {
	r.steps = append(r.steps, s)
}

// Run executes all registered steps in order, streaming sections to w.
// Between sections it pauses for acknowledgment when the prompter is
// interactive. Every failure is soft: the result is printed, the user
// acknowledges it, and the run continues. Returns a summary report.
func (r *Runner) Run(ctx *RunContext, w io.Writer, opts Options) *Report {
	report := &Report{}
	for i, s := range r.steps {
		if i > 0 && ctx.Prompt.Interactive() {
			ctx.Prompt.Pause("\nPress Enter to continue to the next section...")
		}
		result := RunStep(ctx, s, w, opts.Fix)
		report.tally(result)
	}
	return report
}

// RunStep executes a single step with full section formatting: header,
// consent gating for interactive steps, fix-and-rerun, output, and error
// acknowledgment. Also used directly by the remediation menu to dispatch
// one action at a time.
func RunStep(ctx *RunContext, s Step, w io.Writer, fix bool) *StepResult {
	printHeader(w, s.Title())

	var result *StepResult
	switch {
	case s.Kind() == KindInteractive && !ctx.Prompt.Interactive():
		result = &StepResult{Name: s.Name(), Status: StatusSkipped, Message: "skipped (non-interactive run)"}
	case s.Kind() == KindInteractive && !ctx.Prompt.Confirm(consentPrompt(s)):
		result = &StepResult{Name: s.Name(), Status: StatusSkipped, Message: "skipped"}
	default:
		result = s.Run(ctx)
	}

	// Attempt fix if requested and the step supports it.
	if fix && result.Status != StatusOK && result.Status != StatusSkipped && s.CanFix() {
		if err := s.Fix(ctx); err == nil {
			// Re-run to verify the fix worked.
			result = s.Run(ctx)
			if result.Status == StatusOK {
				result.Fixed = true
			}
		}
	}

	printResult(w, result, ctx.Verbose)
	record(ctx, s, result)

	if result.Status == StatusError {
		fmt.Fprintf(w, "ERROR: %s\n", result.Message) //nolint:errcheck // best-effort output
		ctx.Prompt.Pause("Press Enter to continue...")
	}
	return result
}

// tally updates the report counters for one result.
func (r *Report) tally(result *StepResult) {
	switch {
	case result.Fixed:
		r.Fixed++
		r.Passed++ // Fixed counts as passed.
	case result.Status == StatusOK:
		r.Passed++
	case result.Status == StatusWarning:
		r.Warned++
	case result.Status == StatusError:
		r.Failed++
	case result.Status == StatusSkipped:
		r.Skipped++
	}
}

// consentPrompt returns the yes/no question gating an interactive step.
func consentPrompt(s Step) string {
	if c, ok := s.(Consenter); ok {
		return c.ConsentPrompt()
	}
	return fmt.Sprintf("Run %s?", s.Title())
}

// record emits telemetry for a completed step.
func record(ctx *RunContext, s Step, result *StepResult) {
	bg := context.Background()
	if s.Kind() == KindCheck {
		telemetry.RecordCheck(bg, result.Name, statusString(result.Status))
		return
	}
	var err error
	if result.Status == StatusError {
		err = errors.New(result.Message)
	}
	telemetry.RecordAction(bg, result.Name, err)
}

// printHeader writes the banner above a section.
func printHeader(w io.Writer, title string) {
	bar := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n %s\n%s\n", bar, title, bar) //nolint:errcheck // best-effort output
}

// printResult writes a step's captured output and status line to w.
func printResult(w io.Writer, r *StepResult, verbose bool) {
	if r.Output != "" {
		fmt.Fprintln(w, strings.TrimRight(r.Output, "\n")) //nolint:errcheck // best-effort output
	}

	var icon string
	switch {
	case r.Fixed:
		icon = "✓" // Fixed shows as pass.
	case r.Status == StatusOK:
		icon = "✓"
	case r.Status == StatusWarning:
		icon = "⚠"
	case r.Status == StatusError:
		icon = "✗"
	case r.Status == StatusSkipped:
		icon = "-"
	}

	suffix := ""
	if r.Fixed {
		suffix = " (fixed)"
	}
	fmt.Fprintf(w, "  %s %s — %s%s\n", icon, r.Name, r.Message, suffix) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK && r.Status != StatusSkipped && !r.Fixed {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the final summary line to w.
func PrintSummary(w io.Writer, r *Report) {
	parts := []string{}
	if r.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", r.Passed))
	}
	if r.Warned > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", r.Warned))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.Fixed > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", r.Fixed))
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "\nNo steps ran.") //nolint:errcheck // best-effort output
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
