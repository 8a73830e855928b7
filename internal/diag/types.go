// Package diag provides audiodoc's diagnostic and remediation engine.
// It defines a Step interface and a sequential runner that executes steps
// in declared order, treats every failure as soft, optionally pauses for
// user confirmation between sections, and prints a summary report.
package diag

import (
	"github.com/soundwell/audiodoc/internal/config"
	"github.com/soundwell/audiodoc/internal/wincmd"
)

// StepStatus represents the outcome of a step.
type StepStatus int

const (
	// StatusOK means the step succeeded.
	StatusOK StepStatus = iota
	// StatusWarning means the step found a non-critical issue.
	StatusWarning
	// StatusError means the step failed (soft — the run continues).
	StatusError
	// StatusSkipped means the step was declined or not applicable.
	StatusSkipped
)

// StepKind classifies how the runner treats a step.
type StepKind int

const (
	// KindCheck is a read-only diagnostic query.
	KindCheck StepKind = iota
	// KindAction mutates host state (restarts a service or driver).
	KindAction
	// KindInteractive requires user consent before running and is
	// skipped entirely in non-interactive runs.
	KindInteractive
)

// Step is a single diagnostic or remedial unit of work. Implementations
// are registered with a Runner and executed sequentially in declared order.
type Step interface {
	// Name returns a short, unique identifier (e.g. "audio-services").
	Name() string
	// Title returns the section header shown above the step's output.
	Title() string
	// Kind classifies the step for the runner.
	Kind() StepKind
	// Run executes the step and returns a result.
	Run(ctx *RunContext) *StepResult
	// CanFix reports whether this step supports automatic remediation.
	CanFix() bool
	// Fix attempts to remediate the issue found by Run. Only called when
	// CanFix returns true and Run returned a non-OK status.
	Fix(ctx *RunContext) error
}

// RunContext carries shared state for all steps during a run. Early steps
// populate discovery fields that later steps consume; a consumer must
// tolerate an empty value when discovery failed.
type RunContext struct {
	// Cmd is the external command adapter all steps shell out through.
	Cmd wincmd.Runner
	// Cfg holds the loaded configuration.
	Cfg *config.Config
	// Prompt answers the step-internal questions ("Did you hear the
	// tone?"); never nil — non-interactive runs get NopPrompter.
	Prompt Prompter
	// IsAdmin is set by the admin check; actions that need elevation
	// consult it.
	IsAdmin bool
	// InstanceID is the PnP device instance discovered by the driver
	// status check; empty when discovery failed.
	InstanceID string
	// Verbose enables extra detail lines in printed results.
	Verbose bool
}

// StepResult holds the outcome of a single step execution. Ephemeral —
// created and consumed within one run, never persisted.
type StepResult struct {
	// Name identifies which step produced this result.
	Name string
	// Status is the outcome.
	Status StepStatus
	// Message is a one-line human-readable summary.
	Message string
	// Output is raw captured command output printed as the section body.
	Output string
	// Details holds extra lines shown only in verbose mode.
	Details []string
	// FixHint is a suggestion shown when the step fails and cannot auto-fix.
	FixHint string
	// Fixed is true when fix mode successfully remediated the issue.
	Fixed bool
}

// statusString maps a StepStatus to its telemetry label.
func statusString(s StepStatus) string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}
