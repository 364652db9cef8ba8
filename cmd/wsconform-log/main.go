// Command wsconform-log views and analyzes protocol log files.
//
// Log files are written by wsconform-test when run with --protocol-log.
//
// Usage:
//
//	wsconform-log <command> [flags] <file.cbor>
//
// Examples:
//
//	# View all events
//	wsconform-log view run.cbor
//
//	# View only what was echoed during case 42
//	wsconform-log view --case 42 --phase case-run --direction out run.cbor
//
//	# Export to JSON lines
//	wsconform-log export run.cbor > run.jsonl
//
//	# Keep one connection in a new file
//	wsconform-log filter --conn-id abc12345 -o conn.cbor run.cbor
//
//	# Show statistics
//	wsconform-log stats run.cbor
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wsconform/wsconform-go/cmd/wsconform-log/commands"
)

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "wsconform-log",
		Short:         "View and analyze WebSocket conformance protocol logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)

	root.AddCommand(
		newViewCmd(stdout),
		newExportCmd(stdout),
		newFilterCmd(stdout),
		newStatsCmd(stdout),
	)
	return root
}

// addFilterFlags registers the event filter flags on cmd.
func addFilterFlags(cmd *cobra.Command, opts *commands.FilterOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID prefix")
	f.StringVar(&opts.Phase, "phase", "", "Filter by phase (case-count, case-metadata, case-run, case-verdict, report-update)")
	f.IntVar(&opts.Case, "case", 0, "Filter by case number")
	f.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	f.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	f.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	f.StringVar(&opts.Category, "category", "", "Filter by category (message, control, state, error)")
}

func newViewCmd(stdout io.Writer) *cobra.Command {
	var opts commands.FilterOptions
	cmd := &cobra.Command{
		Use:   "view [flags] <file>",
		Short: "View log file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.Build()
			if err != nil {
				return err
			}
			return commands.RunView(args[0], filter, stdout)
		},
	}
	addFilterFlags(cmd, &opts)
	return cmd
}

func newExportCmd(stdout io.Writer) *cobra.Command {
	var opts commands.FilterOptions
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [flags] <file>",
		Short: "Export log file to JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.Build()
			if err != nil {
				return err
			}
			w := stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return commands.RunExport(args[0], format, filter, w)
		},
	}
	cmd.Flags().StringVar(&format, "format", "jsonl", "Output format (jsonl, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	addFilterFlags(cmd, &opts)
	return cmd
}

func newFilterCmd(stdout io.Writer) *cobra.Command {
	var opts commands.FilterOptions
	var output string
	cmd := &cobra.Command{
		Use:   "filter [flags] <file>",
		Short: "Filter log file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.Build()
			if err != nil {
				return err
			}
			return commands.RunFilter(args[0], output, filter, stdout)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("output")
	addFilterFlags(cmd, &opts)
	return cmd
}

func newStatsCmd(stdout io.Writer) *cobra.Command {
	var opts commands.FilterOptions
	cmd := &cobra.Command{
		Use:   "stats [flags] <file>",
		Short: "Show statistics about the log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.Build()
			if err != nil {
				return err
			}
			return commands.RunStats(args[0], filter, stdout)
		},
	}
	addFilterFlags(cmd, &opts)
	return cmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
