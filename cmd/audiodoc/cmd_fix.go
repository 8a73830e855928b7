package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/soundwell/audiodoc/internal/diag"
	"github.com/soundwell/audiodoc/internal/wincmd"
)

func newFixCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Diagnose the audio driver and run remediation actions",
		Long: `Run driver-focused diagnostics, then present a remediation menu.

The menu offers an audio driver restart, driver download guidance, a
reset of the Windows audio services, and the Windows audio
troubleshooter. A file lock prevents two remediation runs from
interleaving service restarts.`,
		Example: `  audiodoc fix
  audiodoc fix --verbose`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if doFix(wincmd.ExecRunner{}, stdin, stdout, stderr, verbose) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// lockPath is the remediation lock file, shared by all runs on the host.
func lockPath() string {
	return filepath.Join(os.TempDir(), "audiodoc-fix.lock")
}

// doFix runs the driver diagnostics and then the remediation menu loop.
func doFix(cmdr wincmd.Runner, stdin io.Reader, stdout, stderr io.Writer, verbose bool) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "audiodoc fix: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	lock := flock.New(lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(stderr, "audiodoc fix: acquiring lock: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if !locked {
		fmt.Fprintln(stderr, "audiodoc fix: another remediation run is in progress") //nolint:errcheck // best-effort stderr
		return 1
	}
	defer lock.Unlock() //nolint:errcheck // best-effort release

	prompt := newStdioPrompter(stdin, stdout)
	ctx := &diag.RunContext{Cmd: cmdr, Cfg: cfg, Prompt: prompt, Verbose: verbose}

	fmt.Fprintln(stdout, "Audio Troubleshooting Tool")                               //nolint:errcheck // best-effort stdout
	fmt.Fprintln(stdout, "This tool diagnoses the audio driver and offers repairs.") //nolint:errcheck // best-effort stdout

	r := &diag.Runner{}
	r.Register(&diag.AdminCheck{})
	r.Register(&diag.DriverStatusCheck{})
	r.Register(&diag.DriverEventsCheck{})
	report := r.Run(ctx, stdout, diag.Options{})
	diag.PrintSummary(stdout, report)

	if !ctx.IsAdmin {
		fmt.Fprintln(stdout, "\nNote: not running as administrator. Driver and service repairs will fail.") //nolint:errcheck // best-effort stdout
	}

	menuLoop(ctx, prompt, stdout, stderr)
	return 0
}

// menuLoop reads remediation choices until the user exits or stdin
// closes. Invalid input re-prompts without side effects.
func menuLoop(ctx *diag.RunContext, prompt *stdioPrompter, stdout, stderr io.Writer) {
	sleep := spinnerSleep(stderr)
	for {
		fmt.Fprint(stdout, `
============================================================
 Audio Troubleshooting Options
============================================================
  1. Restart audio driver
  2. Download latest audio driver
  3. Reset Windows audio components
  4. Run Windows Audio Troubleshooter
  5. Exit

Enter your choice (1-5): `) //nolint:errcheck // best-effort output

		line, err := prompt.readLine()
		if err != nil && strings.TrimSpace(line) == "" {
			return
		}

		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || choice < 1 || choice > 5 {
			fmt.Fprintln(stdout, "Invalid choice. Please enter a number between 1 and 5.") //nolint:errcheck // best-effort stdout
			continue
		}

		switch choice {
		case 1:
			diag.RunStep(ctx, diag.NewRestartDriverAction(sleep), stdout, false)
		case 2:
			diag.RunStep(ctx, &diag.DriverDownloadAction{}, stdout, false)
		case 3:
			diag.RunStep(ctx, diag.NewResetServicesAction(sleep), stdout, false)
		case 4:
			diag.RunStep(ctx, &diag.TroubleshooterAction{}, stdout, false)
		case 5:
			fmt.Fprintln(stdout, "Exiting audio troubleshooting. Goodbye!") //nolint:errcheck // best-effort stdout
			return
		}
	}
}
