// Package runner drives a fuzzing server through its test cases.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
	"github.com/wsconform/wsconform-go/internal/testharness/engine"
	"github.com/wsconform/wsconform-go/internal/testharness/reporter"
	"github.com/wsconform/wsconform-go/pkg/log"
	"github.com/wsconform/wsconform-go/pkg/transport"
)

// Runner executes a run against one fuzzing server. It opens exactly one
// connection at a time and keeps all run state on the calling goroutine.
type Runner struct {
	config   *Config
	dialer   transport.Dialer
	console  *reporter.Console
	reporter reporter.Reporter

	logger      *slog.Logger
	protocolLog log.Logger
	fileLog     *log.FileLogger

	// Run state. phase is the meaning of the open connection, caseCount
	// is what the server reported and failed never clears once set.
	phase     engine.Phase
	caseCount int
	failed    bool
	current   *engine.CaseResult
	conn      *phaseLog
}

// Option customizes a Runner.
type Option func(*Runner)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(r *Runner) { r.dialer = d }
}

// WithProtocolLogger adds a sink for protocol events.
func WithProtocolLogger(l log.Logger) Option {
	return func(r *Runner) { r.protocolLog = l }
}

// New validates config and creates a runner. Callers must Close it.
func New(config *Config, opts ...Option) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.ErrOutput == nil {
		config.ErrOutput = os.Stderr
	}

	r := &Runner{config: config}
	for _, opt := range opts {
		opt(r)
	}

	if r.dialer == nil {
		r.dialer = transport.NewClient(transport.ClientConfig{
			InsecureSkipVerify: config.SSL,
		})
	}

	// Machine-readable formats own stdout; live progress moves to stderr.
	consoleOut := config.Output
	if config.OutputFormat == "json" || config.OutputFormat == "junit" {
		consoleOut = config.ErrOutput
	}
	r.console = reporter.NewConsole(consoleOut, config.ErrOutput, reporter.ConsoleOptions{
		Quiet:    config.Quiet,
		FullData: config.FullData,
		Compact:  config.Compact,
		NoColor:  config.NoColor,
	})
	r.reporter = reporter.New(config.OutputFormat, config.Output, config.Verbose)

	var sinks []log.Logger
	if r.protocolLog != nil {
		sinks = append(sinks, r.protocolLog)
	}
	if config.Debug {
		r.logger = slog.New(slog.NewTextHandler(config.ErrOutput, &slog.HandlerOptions{Level: slog.LevelDebug}))
		sinks = append(sinks, log.NewSlogAdapter(r.logger))
	}
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return nil, ConfigError(fmt.Errorf("protocol log: %w", err))
		}
		r.fileLog = fl
		sinks = append(sinks, fl)
	}
	if len(sinks) > 0 {
		r.protocolLog = log.NewMultiLogger(sinks...)
	}

	return r, nil
}

// Close releases the protocol log file.
func (r *Runner) Close() error {
	if r.fileLog != nil {
		return r.fileLog.Close()
	}
	return nil
}

// Failed reports whether any verdict failed or any phase connection could
// not be established so far.
func (r *Runner) Failed() bool {
	return r.failed
}

// CaseCount returns the number of cases the server reported.
func (r *Runner) CaseCount() int {
	return r.caseCount
}

// Run prints the settings banner and performs the configured run: either
// a report update only, or the full case sequence followed by a report
// update. The returned error is an orchestration error that stopped the
// run; per-case failures are recorded in the result.
func (r *Runner) Run(ctx context.Context) (*engine.SuiteResult, error) {
	start := time.Now()
	result := &engine.SuiteResult{Agent: r.config.Agent}

	r.console.Settings(reporter.Settings{
		Agent:     r.config.Agent,
		SSL:       r.config.SSL,
		Host:      r.config.Server,
		Port:      r.config.Port,
		All:       r.config.All,
		TestRange: r.config.TestRange,
		SkipRange: r.config.SkipRange,
	})

	var err error
	if r.config.ReportsOnly {
		if err = r.UpdateReports(ctx); err != nil {
			result.ReportError = err
		}
	} else {
		err = r.runCases(ctx, result)
	}

	result.Duration = time.Since(start)
	r.console.Final(r.failed || result.Failed() || err != nil, err)
	if !r.config.ReportsOnly {
		r.reporter.ReportSuite(result)
	}
	return result, err
}

func (r *Runner) runCases(ctx context.Context, result *engine.SuiteResult) error {
	count, err := r.FetchCaseCount(ctx)
	if err != nil {
		return err
	}
	result.CaseCount = count

	runList, skipSet, err := r.SelectCases()
	if err != nil {
		return err
	}
	result.RunList = runList
	result.SkipSet = skipSet
	r.debugf("run list %v, skip set %v", runList, skipSet)

	r.console.RunList(runList, skipSet)

	for _, n := range runList {
		if err := ctx.Err(); err != nil {
			return err
		}
		if skipSet.Contains(n) {
			result.Add(&engine.CaseResult{Case: n, Outcome: engine.OutcomeSkipped})
			continue
		}
		result.Add(r.RunCase(ctx, n))
	}

	if err := r.UpdateReports(ctx); err != nil {
		result.ReportError = err
	}
	return nil
}

// FetchCaseCount asks the server how many cases it knows.
func (r *Runner) FetchCaseCount(ctx context.Context) (int, error) {
	r.caseCount = 0
	if err := r.session(ctx, engine.PhaseCaseCount, 0, r.config.caseCountURL()); err != nil {
		r.failed = true
		return 0, fmt.Errorf("failed to get case count: %w", err)
	}
	r.debugf("server reports %d cases", r.caseCount)
	return r.caseCount, nil
}

// SelectCases derives the run list and the skip set from the configuration
// and the case count fetched before. The run list is not filtered by the
// skip set.
func (r *Runner) SelectCases() ([]int, caseset.Set, error) {
	var runList []int
	var err error
	switch {
	case r.config.All:
		runList = caseset.All(r.caseCount)
	case r.config.TestRange.IsSet():
		runList, err = caseset.Merge(r.caseCount, r.config.TestRange, r.config.Tests)
		if err != nil {
			return nil, nil, ConfigError(fmt.Errorf("test range: %w", err))
		}
	default:
		runList = slices.Clone(r.config.Tests)
	}

	skips := slices.Clone(r.config.Skips)
	if r.config.SkipRange.IsSet() {
		skips, err = caseset.Merge(r.caseCount, r.config.SkipRange, r.config.Skips)
		if err != nil {
			return nil, nil, ConfigError(fmt.Errorf("skip range: %w", err))
		}
	}
	return runList, caseset.Set(skips), nil
}

// UpdateReports asks the server to regenerate its reports for the agent.
func (r *Runner) UpdateReports(ctx context.Context) error {
	r.console.UpdatingReports()
	if err := r.session(ctx, engine.PhaseReportUpdate, 0, r.config.updateReportsURL()); err != nil {
		r.console.Warnf("Failed to update reports: %v", err)
		return fmt.Errorf("failed to update reports: %w", err)
	}
	return nil
}

// caseStep is one connection of the per-case sequence.
type caseStep struct {
	connect engine.CaseState
	done    engine.CaseState
	phase   engine.Phase
	path    string
}

var caseSteps = []caseStep{
	{engine.CaseMetadataConnect, engine.CaseMetadataDone, engine.PhaseCaseMetadata, pathCaseInfo},
	{engine.CaseRunConnect, engine.CaseRunDone, engine.PhaseCaseRun, pathRunCase},
	{engine.CaseVerdictConnect, engine.CaseVerdictDone, engine.PhaseCaseVerdict, pathCaseStatus},
}

// RunCase executes one case: metadata, run and verdict connections in that
// order. A connection that cannot be established ends the case.
func (r *Runner) RunCase(ctx context.Context, n int) *engine.CaseResult {
	cr := &engine.CaseResult{Case: n, StartTime: time.Now()}
	r.current = cr
	r.debugSnapshot("case start")
	defer func() {
		cr.Duration = time.Since(cr.StartTime)
		r.debugSnapshot("case done")
		r.current = nil
		r.console.CaseDone()
	}()

	for _, step := range caseSteps {
		if err := r.transition(cr, step.connect, ""); err != nil {
			cr.Error = err
			r.failed = true
			return cr
		}
		if err := r.session(ctx, step.phase, n, r.config.caseURL(step.path, n)); err != nil {
			cr.Error = fmt.Errorf("case %d: %w", n, err)
			r.failed = true
			_ = r.transition(cr, engine.CaseFailed, err.Error())
			r.console.Warnf("Case %d: %v", n, err)
			return cr
		}
		if err := r.transition(cr, step.done, ""); err != nil {
			cr.Error = err
			r.failed = true
			return cr
		}
	}

	if cr.Outcome == engine.OutcomeNotRun {
		cr.Outcome = engine.OutcomeFail
		cr.Notes = append(cr.Notes, "no verdict received")
		r.failed = true
		r.console.Verdict(false)
	}
	return cr
}

// transition advances the case state machine and records the change.
func (r *Runner) transition(cr *engine.CaseResult, next engine.CaseState, reason string) error {
	old := cr.State
	if err := cr.State.Transition(next); err != nil {
		return err
	}
	r.debugf("case %d: %s -> %s", cr.Case, old, next)
	r.logEvent(log.Event{
		Category: log.CategoryState,
		Case:     cr.Case,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityCase,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	return nil
}

// session opens one phase connection and runs it until the server closes
// it or MaxTime elapses. Only a failure to connect is returned as an error.
func (r *Runner) session(ctx context.Context, phase engine.Phase, caseNum int, url string) error {
	r.phase = phase

	phaseCtx, cancel := context.WithTimeout(ctx, r.config.MaxTime)
	defer cancel()

	r.debugf("dial %s (%s)", url, phase)
	conn, err := r.dialer.Dial(phaseCtx, url)
	if err != nil {
		r.logEvent(log.Event{
			Category: log.CategoryError,
			Phase:    phase.String(),
			Case:     caseNum,
			URL:      url,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "connect"},
		})
		return ConnectError(fmt.Errorf("%s: %w", phase, err))
	}

	r.conn = &phaseLog{runner: r, connID: conn.ID(), phase: phase.String(), caseNum: caseNum, url: url}
	r.conn.state("", "CONNECTED", "")
	defer func() {
		_ = conn.Close(transport.CloseNormal, "")
		r.conn.state("CONNECTED", "CLOSED", "")
		r.conn = nil
	}()

	if phase == engine.PhaseCaseRun {
		r.console.Connected()
	}

	for {
		ev, err := conn.Next(phaseCtx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				r.debugf("%s: no close within %s", phase, r.config.MaxTime)
				r.note("%s connection closed by client after %s", phase, r.config.MaxTime)
			case !errors.Is(err, transport.ErrConnectionClosed):
				r.note("%s: %v", phase, err)
			}
			return nil
		}

		switch ev.Type {
		case transport.EventMessage:
			r.conn.frame(log.DirectionIn, ev.Data, ev.Binary)
			r.dispatch(phaseCtx, conn, ev)

		case transport.EventPing:
			r.conn.control(log.DirectionIn, log.ControlMsgPing, len(ev.Data), 0, "")
			r.conn.control(log.DirectionOut, log.ControlMsgPong, len(ev.Data), 0, "")
			r.console.Ping(len(ev.Data))

		case transport.EventClose:
			r.conn.control(log.DirectionIn, log.ControlMsgClose, 0, ev.CloseCode, ev.CloseReason)
			r.debugf("%s: close %d %q", phase, ev.CloseCode, ev.CloseReason)
			if phase == engine.PhaseCaseRun {
				r.console.Closed(ev.CloseCode, ev.CloseReason)
			}
			if ev.Abnormal() {
				r.conn.err(ev.Err.Error(), "read")
				r.note("abnormal close during %s: %v", phase, ev.Err)
			}
			return nil
		}
	}
}

// note records a non-fatal problem on the current case.
func (r *Runner) note(format string, args ...any) {
	if r.current != nil {
		r.current.Notes = append(r.current.Notes, fmt.Sprintf(format, args...))
	}
}
