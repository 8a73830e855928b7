package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/soundwell/audiodoc/internal/diag"
	"github.com/soundwell/audiodoc/internal/wincmd"
)

func newDevicesCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if doDevices(wincmd.ExecRunner{}, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

// doDevices renders the sound device table.
func doDevices(cmdr wincmd.Runner, stdout, stderr io.Writer) int {
	devices, err := diag.ListDevices(cmdr)
	if err != nil {
		fmt.Fprintf(stderr, "audiodoc devices: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(stdout, "No audio devices found.") //nolint:errcheck // best-effort stdout
		return 0
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Status", "Manufacturer"})
	for _, d := range devices {
		t.AppendRow(table.Row{d.Name, d.Status, d.Manufacturer})
	}
	t.Render()
	return 0
}
