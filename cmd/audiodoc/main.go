// audiodoc is a Windows audio subsystem diagnostic and repair CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soundwell/audiodoc/internal/config"
	"github.com/soundwell/audiodoc/internal/diag"
	"github.com/soundwell/audiodoc/internal/fsys"
	"github.com/soundwell/audiodoc/internal/logging"
	"github.com/soundwell/audiodoc/internal/telemetry"
)

func main() {
	godotenv.Load() //nolint:errcheck // a missing .env is fine

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiodoc: telemetry disabled: %v\n", err) //nolint:errcheck // best-effort stderr
	}

	code := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if shutdown != nil {
		shutdown(ctx) //nolint:errcheck // best-effort flush
	}
	os.Exit(code)
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// configFlag holds the value of the --config persistent flag.
// Empty means "audiodoc.toml in the current directory."
var configFlag string

// debugFlag enables debug tracing of external command invocations.
var debugFlag bool

// run executes the audiodoc CLI with the given args, reading prompts from
// stdin and writing output to stdout and errors to stderr. Returns the
// exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "audiodoc",
		Short:         "Diagnose and repair Windows audio problems",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Setup(stderr, debugFlag)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "audiodoc: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "",
		"path to audiodoc.toml (default: ./audiodoc.toml)")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"log external command invocations")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newCheckCmd(stdin, stdout, stderr),
		newFixCmd(stdin, stdout, stderr),
		newDevicesCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// loadConfig reads the TOML config, falling back to defaults when the
// file is absent. A present-but-broken file is an error.
func loadConfig() (*config.Config, error) {
	path := configFlag
	if path == "" {
		path = config.DefaultFileName
	}
	return config.LoadOrDefault(fsys.OSFS{}, path)
}

// spinnerSleep returns a SleepFunc that shows a spinner for the duration,
// so multi-second settle delays don't look like a hang.
func spinnerSleep(w io.Writer) diag.SleepFunc {
	return func(d time.Duration) {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Suffix = " waiting..."
		s.Start()
		time.Sleep(d)
		s.Stop()
	}
}
