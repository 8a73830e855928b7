package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soundwell/audiodoc/internal/diag"
	"github.com/soundwell/audiodoc/internal/wincmd"
)

func newCheckCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var yes, fix, verbose bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the audio diagnostic sequence",
		Long: `Walk through the audio diagnostic sections one at a time.

Checks admin privileges, Windows version, audio service status, device
enumeration, volume status, and the default playback device, then offers
interactive sound playback tests and the Windows audio troubleshooter.
A failing section never aborts the run. Use --fix to start stopped
audio services automatically.`,
		Example: `  audiodoc check
  audiodoc check --fix
  audiodoc check --yes`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if doCheck(wincmd.ExecRunner{}, stdin, stdout, stderr, yes, fix, verbose) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "non-interactive: skip pauses and playback prompts")
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix issues automatically")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// doCheck runs the full diagnostic sequence and prints results.
func doCheck(cmdr wincmd.Runner, stdin io.Reader, stdout, stderr io.Writer, yes, fix, verbose bool) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "audiodoc check: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	var prompt diag.Prompter
	if yes {
		prompt = diag.NopPrompter{}
	} else {
		prompt = newStdioPrompter(stdin, stdout)
	}
	ctx := &diag.RunContext{Cmd: cmdr, Cfg: cfg, Prompt: prompt, Verbose: verbose}

	fmt.Fprintln(stdout, "Windows Audio Diagnostic Tool")                               //nolint:errcheck // best-effort stdout
	fmt.Fprintln(stdout, "This tool checks the audio subsystem one section at a time.") //nolint:errcheck // best-effort stdout

	r := &diag.Runner{}
	r.Register(&diag.AdminCheck{})
	r.Register(&diag.WindowsVersionCheck{})
	for _, svc := range cfg.Services.Audio {
		r.Register(diag.NewServiceCheck(svc))
	}
	r.Register(&diag.DeviceListCheck{})
	r.Register(&diag.DeviceStatusCheck{})
	r.Register(&diag.DefaultDeviceCheck{})
	r.Register(diag.NewSystemSoundsAction(spinnerSleep(stderr)))
	r.Register(&diag.TestToneAction{})
	r.Register(&diag.TroubleshooterAction{})

	report := r.Run(ctx, stdout, diag.Options{Fix: fix})
	printAdvice(stdout)
	diag.PrintSummary(stdout, report)
	return 0
}

// printAdvice writes the closing troubleshooting guidance.
func printAdvice(w io.Writer) {
	fmt.Fprint(w, `
============================================================
 Troubleshooting Tips
============================================================
If you still have audio problems:
  1. Check the physical connections (speakers/headphones plugged in)
  2. Make sure the volume is not muted (speaker icon in the taskbar)
  3. Right-click the speaker icon > Open Sound settings and verify
     the correct output device is selected
  4. Update the audio driver from Device Manager (audiodoc fix)
  5. Restart the computer if nothing else helped
`) //nolint:errcheck // best-effort output
}
