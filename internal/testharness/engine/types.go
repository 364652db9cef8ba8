// Package engine defines the phases, case states and results shared by the
// runner and the reporters.
package engine

import (
	"fmt"
	"time"
)

// Phase describes what the messages on the currently open connection mean.
type Phase uint8

const (
	// PhaseReportUpdate asks the server to regenerate its reports.
	PhaseReportUpdate Phase = iota
	// PhaseCaseCount fetches the number of cases the server knows.
	PhaseCaseCount
	// PhaseCaseMetadata fetches the id and description of one case.
	PhaseCaseMetadata
	// PhaseCaseRun executes one case by echoing every message.
	PhaseCaseRun
	// PhaseCaseVerdict fetches the server's verdict for one case.
	PhaseCaseVerdict
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReportUpdate:
		return "report-update"
	case PhaseCaseCount:
		return "case-count"
	case PhaseCaseMetadata:
		return "case-metadata"
	case PhaseCaseRun:
		return "case-run"
	case PhaseCaseVerdict:
		return "case-verdict"
	default:
		return "unknown"
	}
}

// CaseState is a step of the per-case state machine.
type CaseState uint8

const (
	CaseIdle CaseState = iota
	CaseMetadataConnect
	CaseMetadataDone
	CaseRunConnect
	CaseRunDone
	CaseVerdictConnect
	CaseVerdictDone
	CaseFailed
)

// String returns the state name.
func (s CaseState) String() string {
	switch s {
	case CaseIdle:
		return "IDLE"
	case CaseMetadataConnect:
		return "METADATA_CONNECT"
	case CaseMetadataDone:
		return "METADATA_DONE"
	case CaseRunConnect:
		return "RUN_CONNECT"
	case CaseRunDone:
		return "RUN_DONE"
	case CaseVerdictConnect:
		return "VERDICT_CONNECT"
	case CaseVerdictDone:
		return "VERDICT_DONE"
	case CaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition is possible.
func (s CaseState) Terminal() bool {
	return s == CaseVerdictDone || s == CaseFailed
}

// CanTransition reports whether the state machine allows moving from s to next.
// Only connect steps may fail.
func (s CaseState) CanTransition(next CaseState) bool {
	switch s {
	case CaseIdle:
		return next == CaseMetadataConnect
	case CaseMetadataConnect:
		return next == CaseMetadataDone || next == CaseFailed
	case CaseMetadataDone:
		return next == CaseRunConnect
	case CaseRunConnect:
		return next == CaseRunDone || next == CaseFailed
	case CaseRunDone:
		return next == CaseVerdictConnect
	case CaseVerdictConnect:
		return next == CaseVerdictDone || next == CaseFailed
	default:
		return false
	}
}

// Transition moves the state forward, rejecting moves the state machine
// does not allow.
func (s *CaseState) Transition(next CaseState) error {
	if !s.CanTransition(next) {
		return fmt.Errorf("invalid case state transition %s -> %s", *s, next)
	}
	*s = next
	return nil
}

// Outcome is the result of one case.
type Outcome uint8

const (
	// OutcomeNotRun means no verdict was obtained.
	OutcomeNotRun Outcome = iota
	// OutcomePass means the server reported OK or INFORMATIONAL.
	OutcomePass
	// OutcomeFail means the server reported anything else.
	OutcomeFail
	// OutcomeSkipped means the case was in the skip set.
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotRun:
		return "not-run"
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsPassingBehavior reports whether a server behavior string counts as a
// pass. The comparison is exact and case-sensitive.
func IsPassingBehavior(behavior string) bool {
	return behavior == "OK" || behavior == "INFORMATIONAL"
}

// CaseResult represents the outcome of a single test case.
type CaseResult struct {
	// Case is the case number.
	Case int

	// ID is the server's case identifier (e.g. "1.1.1"), empty if the
	// metadata could not be read.
	ID string

	// Description is the server's case description.
	Description string

	// Behavior is the server's verdict string, empty if none was read.
	Behavior string

	// Outcome classifies the result.
	Outcome Outcome

	// State is the final state of the case state machine.
	State CaseState

	// Error is the orchestration error that aborted the case, if any.
	Error error

	// Notes collects non-fatal problems (parse warnings, abnormal closes).
	Notes []string

	// Messages is the number of messages echoed during the run phase.
	Messages int

	// Bytes is the number of payload bytes echoed during the run phase.
	Bytes int64

	// StartTime when the case started.
	StartTime time.Time

	// Duration is how long the case took.
	Duration time.Duration
}

// Failed reports whether the case counts against the run.
func (r *CaseResult) Failed() bool {
	return r.Error != nil || r.Outcome == OutcomeFail
}

// SuiteResult represents the outcome of a whole run.
type SuiteResult struct {
	// Agent is the agent name the run reported to the server.
	Agent string

	// CaseCount is the number of cases the server reported.
	CaseCount int

	// RunList is the final list of cases selected to run.
	RunList []int

	// SkipSet is the final list of cases excluded from the run.
	SkipSet []int

	// Results contains results for each case in execution order.
	Results []*CaseResult

	// PassCount is the number of passed cases.
	PassCount int

	// FailCount is the number of cases with a failing verdict.
	FailCount int

	// ErrorCount is the number of cases aborted by a connection failure.
	ErrorCount int

	// SkipCount is the number of skipped cases.
	SkipCount int

	// ReportError is set when the final report update failed.
	ReportError error

	// Duration is the total time for the run.
	Duration time.Duration
}

// Add records a case result and updates the counters.
func (s *SuiteResult) Add(r *CaseResult) {
	s.Results = append(s.Results, r)
	switch {
	case r.Outcome == OutcomeSkipped:
		s.SkipCount++
	case r.Error != nil:
		s.ErrorCount++
	case r.Outcome == OutcomePass:
		s.PassCount++
	case r.Outcome == OutcomeFail:
		s.FailCount++
	}
}

// Failed reports whether any case failed or was aborted.
func (s *SuiteResult) Failed() bool {
	return s.FailCount > 0 || s.ErrorCount > 0
}
