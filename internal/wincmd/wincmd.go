// Package wincmd is the boundary between audiodoc and the operating
// system's diagnostic utilities (sc, net, powershell, msdt, devmgmt).
//
// Everything the tool learns about the host comes back through [Runner];
// nothing else in the repo touches os/exec. Production code uses
// [ExecRunner]; tests substitute [Fake] with canned results.
package wincmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/soundwell/audiodoc/internal/telemetry"
)

// Result holds the outcome of one external command invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the command exited zero and produced some output.
// The OS query tools audiodoc drives signal "nothing found" either way,
// so callers treat both uniformly as a soft failure.
func (r Result) Ok() bool {
	return r.ExitCode == 0 && strings.TrimSpace(r.Stdout) != ""
}

// Runner executes external commands. A synchronous Run blocks until the
// command returns — deliberately without a timeout, because the wrapped OS
// tools (msdt, driver operations) can legitimately take minutes and killing
// them mid-flight leaves devices disabled.
type Runner interface {
	// Run executes the command and waits, capturing stdout and stderr.
	// A non-zero exit is reported in Result.ExitCode with a nil error;
	// the error return is reserved for failures to invoke at all.
	Run(name string, args ...string) (Result, error)

	// Start launches the command detached and does not wait. Used for
	// GUI helpers (troubleshooter wizard, device manager console).
	Start(name string, args ...string) error

	// LookPath reports where the named binary resolves, if anywhere.
	LookPath(name string) (string, error)
}

// ExecRunner implements [Runner] with os/exec. Every invocation is traced
// via slog and recorded to telemetry.
type ExecRunner struct{}

// Run executes the command synchronously.
func (ExecRunner) Run(name string, args ...string) (Result, error) {
	start := time.Now()
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// The command ran and exited non-zero; that is a result, not an error.
		res.ExitCode = exitErr.ExitCode()
		err = nil
	}

	durMS := float64(time.Since(start).Milliseconds())
	slog.Debug("external command",
		"command", name,
		"args", strings.Join(args, " "),
		"exit", res.ExitCode,
		"duration_ms", durMS,
		"err", err,
	)
	telemetry.RecordCommand(context.Background(), name, args, durMS, err, res.Stdout, res.Stderr)
	return res, err
}

// Start launches the command without waiting for it.
func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	err := cmd.Start()
	slog.Debug("external command (detached)",
		"command", name,
		"args", strings.Join(args, " "),
		"err", err,
	)
	telemetry.RecordCommand(context.Background(), name, args, 0, err, "", "")
	if err != nil {
		return err
	}
	// Reap the child in the background so it never zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}

// LookPath delegates to exec.LookPath.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
