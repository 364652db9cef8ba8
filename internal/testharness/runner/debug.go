package runner

import (
	"fmt"
	"strings"

	"github.com/wsconform/wsconform-go/internal/testharness/engine"
)

// RunnerSnapshot captures the runner's state for debugging and assertions.
type RunnerSnapshot struct {
	// Phase is the meaning of the most recent connection.
	Phase engine.Phase

	// CaseCount is the number of cases the server reported.
	CaseCount int

	// Failed is the run's failure flag.
	Failed bool

	// Case is the case being executed, 0 between cases.
	Case int

	// CaseState is the state of the case being executed.
	CaseState engine.CaseState

	// Connected reports whether a phase connection is open.
	Connected bool

	// ConnID is the ID of the open connection.
	ConnID string
}

// snapshot returns a point-in-time snapshot of the runner's state.
func (r *Runner) snapshot() RunnerSnapshot {
	s := RunnerSnapshot{
		Phase:     r.phase,
		CaseCount: r.caseCount,
		Failed:    r.failed,
		Connected: r.conn != nil,
	}
	if r.current != nil {
		s.Case = r.current.Case
		s.CaseState = r.current.State
	}
	if r.conn != nil {
		s.ConnID = r.conn.connID
	}
	return s
}

// String returns a human-readable summary of the snapshot for debug logging.
func (s RunnerSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s count=%d failed=%v", s.Phase, s.CaseCount, s.Failed)
	if s.Case > 0 {
		fmt.Fprintf(&b, " case={%d %s}", s.Case, s.CaseState)
	}
	if s.Connected {
		fmt.Fprintf(&b, " conn=%s", shortID(s.ConnID))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// debugf logs a debug message when the runner's Debug config is enabled.
func (r *Runner) debugf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(fmt.Sprintf(format, args...))
}

// debugSnapshot logs the current runner state when debug is enabled.
func (r *Runner) debugSnapshot(label string) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(label, "state", r.snapshot().String())
}
