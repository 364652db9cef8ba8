// Command wsconform-test drives a WebSocket fuzzing server through its test
// cases, echoing every message back and collecting the server's verdicts.
//
// Usage:
//
//	wsconform-test [flags] [server]
//
// Examples:
//
//	# Run every case on a local fuzzing server
//	wsconform-test --all localhost
//
//	# Run cases 1 to 20 except 7, over TLS
//	wsconform-test --ssl --testrange 1,20 --skip 7 fuzz.example.com
//
//	# Run cases 5 and 12 plus everything from 10 to 14
//	wsconform-test -t 5,12 --testrange 10,14 localhost
//
//	# Only ask the server to regenerate its reports
//	wsconform-test --reports localhost
//
//	# Take all settings from a config file and write a JUnit summary
//	wsconform-test -c wsconform.json --format junit > results.xml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
	"github.com/wsconform/wsconform-go/internal/testharness/loader"
	"github.com/wsconform/wsconform-go/internal/testharness/runner"
)

// errRunFailed is returned after a run whose failure has already been
// printed by the console.
var errRunFailed = errors.New("run failed")

type options struct {
	port        int
	ssl         bool
	agent       string
	maxTime     int
	tests       []int
	skips       []int
	testRange   []int
	skipRange   []int
	all         bool
	reports     bool
	quiet       bool
	fullData    bool
	compact     bool
	noColor     bool
	debug       bool
	verbose     bool
	configFile  string
	format      string
	protocolLog string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "wsconform-test [flags] [server]",
		Short: "Run WebSocket conformance cases against a fuzzing server",
		Long: `wsconform-test connects to a WebSocket fuzzing server, runs the selected
test cases by echoing every message the server sends, and reports the
server's verdict for each case. The server keeps the detailed reports;
they are regenerated for the agent name at the end of the run.

The server may be given as the only argument or with the "server" key of
a config file. Flags given on the command line take precedence over the
config file; test and skip lists from both are combined.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args, &opts)
			if err != nil {
				return err
			}
			cfg.Output = stdout
			cfg.ErrOutput = stderr
			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	bindFlags(cmd, &opts)

	return cmd
}

// bindFlags registers the command line flags, storing their values in opts.
func bindFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.IntVarP(&opts.port, "port", "p", runner.DefaultPort, "Server port")
	f.BoolVar(&opts.ssl, "ssl", false, "Connect with TLS (self-signed certificates are accepted)")
	f.StringVar(&opts.agent, "agent", runner.DefaultAgent, "Agent name the server files results under")
	f.IntVar(&opts.maxTime, "maxtime", int(runner.DefaultMaxTime/time.Second), "Seconds a single connection may stay open")
	f.IntSliceVarP(&opts.tests, "tests", "t", nil, "Case numbers to run")
	f.IntSliceVarP(&opts.skips, "skip", "s", nil, "Case numbers to skip")
	f.IntSliceVar(&opts.testRange, "testrange", nil, "Range of cases to run: START or START,STOP")
	f.IntSliceVar(&opts.skipRange, "skiprange", nil, "Range of cases to skip: START,STOP")
	f.BoolVarP(&opts.all, "all", "a", false, "Run every case the server knows")
	f.BoolVarP(&opts.reports, "reports", "r", false, "Only update the server's reports")
	f.BoolVar(&opts.quiet, "quiet", false, "Do not print echoed messages")
	f.BoolVar(&opts.fullData, "fulldata", false, "Print text messages in full")
	f.BoolVar(&opts.compact, "compact", false, "Print one line per case")
	f.BoolVar(&opts.noColor, "nocolor", false, "Disable colored output")
	f.BoolVarP(&opts.debug, "debug", "d", false, "Log connection lifecycle to stderr")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Add per-case details to the text summary")
	f.StringVarP(&opts.configFile, "config", "c", "", "Read settings from a JSON or YAML config file")
	f.StringVar(&opts.format, "format", "text", "Summary format: text, json, junit")
	f.StringVar(&opts.protocolLog, "protocol-log", "", "Write protocol events to a CBOR log file")
}

// buildConfig merges flags, the positional server and the config file into
// a validated run configuration.
func buildConfig(cmd *cobra.Command, args []string, opts *options) (*runner.Config, error) {
	cfg := runner.DefaultConfig()
	if len(args) > 0 {
		cfg.Server = args[0]
	}
	cfg.Port = opts.port
	cfg.SSL = opts.ssl
	cfg.Agent = opts.agent
	cfg.MaxTime = time.Duration(opts.maxTime) * time.Second
	cfg.Tests = slices.Clone(opts.tests)
	cfg.Skips = slices.Clone(opts.skips)
	cfg.TestRange = caseset.Range(opts.testRange)
	cfg.SkipRange = caseset.Range(opts.skipRange)
	cfg.All = opts.all
	cfg.ReportsOnly = opts.reports
	cfg.Quiet = opts.quiet
	cfg.FullData = opts.fullData
	cfg.Compact = opts.compact
	cfg.NoColor = opts.noColor
	cfg.Debug = opts.debug
	cfg.Verbose = opts.verbose
	cfg.OutputFormat = opts.format
	cfg.ProtocolLog = opts.protocolLog

	if opts.configFile != "" {
		file, err := loader.Load(opts.configFile)
		if err != nil {
			return nil, runner.ConfigError(err)
		}
		file.Apply(cfg, func(key string) bool {
			if key == "server" {
				return len(args) > 0
			}
			return cmd.Flags().Changed(key)
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *runner.Config) error {
	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	result, err := r.Run(ctx)
	if err != nil || r.Failed() || result.Failed() {
		return errRunFailed
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
