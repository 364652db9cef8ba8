package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wsconform/wsconform-go/internal/testharness/engine"
	"github.com/wsconform/wsconform-go/pkg/log"
	"github.com/wsconform/wsconform-go/pkg/transport"
)

// caseInfo is the getCaseInfo payload.
type caseInfo struct {
	ID          *string `json:"id"`
	Description *string `json:"description"`
}

// caseStatus is the getCaseStatus payload.
type caseStatus struct {
	Behavior *string `json:"behavior"`
}

// parseCaseCount reads the getCaseCount payload. Anything that is not a
// plain integer counts as zero.
func parseCaseCount(data []byte) int {
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return n
}

// parseCaseInfo decodes a getCaseInfo payload; id and description are
// required strings.
func parseCaseInfo(data []byte) (id, description string, err error) {
	var info caseInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return "", "", ParseError(fmt.Errorf("case info: %w", err))
	}
	if info.ID == nil {
		return "", "", ParseError(errors.New(`case info: missing string field "id"`))
	}
	if info.Description == nil {
		return "", "", ParseError(errors.New(`case info: missing string field "description"`))
	}
	return *info.ID, *info.Description, nil
}

// parseCaseStatus decodes a getCaseStatus payload; behavior is a required
// string.
func parseCaseStatus(data []byte) (string, error) {
	var status caseStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return "", ParseError(fmt.Errorf("case status: %w", err))
	}
	if status.Behavior == nil {
		return "", ParseError(errors.New(`case status: missing string field "behavior"`))
	}
	return *status.Behavior, nil
}

// dispatch interprets one data message according to the current phase.
func (r *Runner) dispatch(ctx context.Context, conn transport.Conn, ev transport.Event) {
	switch r.phase {
	case engine.PhaseReportUpdate:
		r.console.Report(string(ev.Data))

	case engine.PhaseCaseCount:
		r.caseCount = parseCaseCount(ev.Data)

	case engine.PhaseCaseMetadata:
		id, desc, err := parseCaseInfo(ev.Data)
		if err != nil {
			r.console.Warnf("Failed to parse test info: %v", err)
			r.note("%v", err)
			return
		}
		if r.current != nil {
			r.current.ID = id
			r.current.Description = desc
			r.console.CaseInfo(r.current.Case, id, desc)
		}

	case engine.PhaseCaseRun:
		r.console.Message(ev.Data, ev.Binary)
		if err := conn.Send(ctx, ev.Data, ev.Binary); err != nil {
			r.conn.err(err.Error(), "echo")
			r.note("echo failed: %v", err)
			return
		}
		r.conn.frame(log.DirectionOut, ev.Data, ev.Binary)
		if r.current != nil {
			r.current.Messages++
			r.current.Bytes += int64(len(ev.Data))
		}

	case engine.PhaseCaseVerdict:
		r.handleVerdict(ev.Data)
	}
}

// handleVerdict folds a server verdict into the current case and the run.
func (r *Runner) handleVerdict(data []byte) {
	behavior, err := parseCaseStatus(data)
	pass := err == nil && engine.IsPassingBehavior(behavior)
	if err != nil {
		r.console.Warnf("Failed to parse test status: %v", err)
		r.note("%v", err)
	}
	if !pass {
		r.failed = true
	}

	if r.current != nil {
		r.current.Behavior = behavior
		if pass {
			r.current.Outcome = engine.OutcomePass
		} else {
			r.current.Outcome = engine.OutcomeFail
		}
	}
	r.console.Verdict(pass)
}
