// Package reporter provides test result formatting and output.
package reporter

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wsconform/wsconform-go/internal/testharness/engine"
)

// Reporter formats and outputs test results.
type Reporter interface {
	// ReportSuite reports results for a whole run.
	ReportSuite(result *engine.SuiteResult)

	// ReportCase reports the result of a single case.
	ReportCase(result *engine.CaseResult)
}

// New returns the reporter for the given format ("text", "json" or
// "junit"). Unknown formats fall back to text.
func New(format string, w io.Writer, verbose bool) Reporter {
	switch format {
	case "json":
		return NewJSONReporter(w, true)
	case "junit":
		return NewJUnitReporter(w)
	default:
		return NewTextReporter(w, verbose)
	}
}

// caseStatus maps a case result to the status word used by all formats.
func caseStatus(r *engine.CaseResult) string {
	switch {
	case r.Outcome == engine.OutcomeSkipped:
		return "skipped"
	case r.Error != nil:
		return "error"
	case r.Outcome == engine.OutcomePass:
		return "passed"
	case r.Outcome == engine.OutcomeFail:
		return "failed"
	default:
		return "not-run"
	}
}

func suiteName(result *engine.SuiteResult) string {
	if result.Agent == "" {
		return "wsconform"
	}
	return result.Agent
}

func passRate(result *engine.SuiteResult) float64 {
	total := result.PassCount + result.FailCount + result.ErrorCount
	if total == 0 {
		return 0
	}
	return float64(result.PassCount) / float64(total) * 100
}

// caseName is the display name of a case: its server id when known.
func caseName(r *engine.CaseResult) string {
	if r.ID != "" {
		return r.ID
	}
	return "case " + strconv.Itoa(r.Case)
}

// TextReporter outputs human-readable text reports.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{
		writer:  w,
		verbose: verbose,
	}
}

// ReportSuite reports suite results in text format.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "\n=== Suite: %s ===\n", suiteName(result))
	fmt.Fprintf(r.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.writer, "\n")

	for _, cr := range result.Results {
		r.ReportCase(cr)
	}

	r.ReportSummary(result)
}

// ReportSummary prints the counters and the slowest cases.
func (r *TextReporter) ReportSummary(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "\n--- Summary ---\n")
	fmt.Fprintf(r.writer, "Server cases: %d\n", result.CaseCount)
	fmt.Fprintf(r.writer, "Total:   %d\n", len(result.Results))
	fmt.Fprintf(r.writer, "Passed:  %d\n", result.PassCount)
	fmt.Fprintf(r.writer, "Failed:  %d\n", result.FailCount)
	fmt.Fprintf(r.writer, "Errors:  %d\n", result.ErrorCount)
	fmt.Fprintf(r.writer, "Skipped: %d\n", result.SkipCount)

	if result.PassCount+result.FailCount+result.ErrorCount > 0 {
		fmt.Fprintf(r.writer, "Pass Rate: %.1f%%\n", passRate(result))
	}
	if result.ReportError != nil {
		fmt.Fprintf(r.writer, "Report update failed: %v\n", result.ReportError)
	}

	r.reportSlowest(result)
}

const slowestCount = 10

func (r *TextReporter) reportSlowest(result *engine.SuiteResult) {
	var ran []*engine.CaseResult
	for _, cr := range result.Results {
		if cr.Outcome != engine.OutcomeSkipped {
			ran = append(ran, cr)
		}
	}
	if len(ran) < 3 {
		return
	}

	slices.SortStableFunc(ran, func(a, b *engine.CaseResult) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	if len(ran) > slowestCount {
		ran = ran[:slowestCount]
	}

	fmt.Fprintf(r.writer, "\n--- Slowest Cases ---\n")
	for i, cr := range ran {
		fmt.Fprintf(r.writer, "%2d. [%3d] %-10s %s\n", i+1, cr.Case, caseName(cr), cr.Duration.Round(time.Millisecond))
	}
}

// ReportCase reports a single case result in text format.
func (r *TextReporter) ReportCase(result *engine.CaseResult) {
	var status string
	switch caseStatus(result) {
	case "skipped":
		status = "SKIP"
	case "passed":
		status = "PASS"
	case "error":
		status = "ERR "
	default:
		status = "FAIL"
	}

	fmt.Fprintf(r.writer, "[%s] %3d %s (%s)\n",
		status, result.Case, caseName(result), result.Duration.Round(time.Millisecond))

	if result.Error != nil {
		fmt.Fprintf(r.writer, "       Error: %v\n", result.Error)
	} else if result.Behavior != "" && result.Outcome == engine.OutcomeFail {
		fmt.Fprintf(r.writer, "       Behavior: %s\n", result.Behavior)
	}

	if r.verbose {
		if result.Description != "" {
			fmt.Fprintf(r.writer, "       %s\n", result.Description)
		}
		if result.Outcome != engine.OutcomeSkipped {
			fmt.Fprintf(r.writer, "       State: %s, echoed %d messages (%d bytes)\n",
				result.State, result.Messages, result.Bytes)
		}
		for _, note := range result.Notes {
			fmt.Fprintf(r.writer, "       Note: %s\n", note)
		}
	}
}

// JSONReporter outputs JSON-formatted reports.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: w,
		pretty: pretty,
	}
}

// JSONSuiteResult is the JSON representation of suite results.
type JSONSuiteResult struct {
	Agent       string           `json:"agent"`
	CaseCount   int              `json:"case_count"`
	RunList     []int            `json:"run_list"`
	SkipSet     []int            `json:"skip_set,omitempty"`
	Duration    string           `json:"duration"`
	Total       int              `json:"total"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	Errors      int              `json:"errors"`
	Skipped     int              `json:"skipped"`
	PassRate    float64          `json:"pass_rate"`
	ReportError string           `json:"report_error,omitempty"`
	Cases       []JSONCaseResult `json:"cases"`
}

// JSONCaseResult is the JSON representation of a case result.
type JSONCaseResult struct {
	Case        int      `json:"case"`
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description,omitempty"`
	Behavior    string   `json:"behavior,omitempty"`
	Status      string   `json:"status"`
	State       string   `json:"state"`
	Duration    string   `json:"duration"`
	Messages    int      `json:"messages"`
	Bytes       int64    `json:"bytes"`
	Error       string   `json:"error,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

// ReportSuite reports suite results in JSON format.
func (r *JSONReporter) ReportSuite(result *engine.SuiteResult) {
	jr := JSONSuiteResult{
		Agent:     result.Agent,
		CaseCount: result.CaseCount,
		RunList:   result.RunList,
		SkipSet:   result.SkipSet,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Total:     len(result.Results),
		Passed:    result.PassCount,
		Failed:    result.FailCount,
		Errors:    result.ErrorCount,
		Skipped:   result.SkipCount,
		PassRate:  passRate(result),
		Cases:     make([]JSONCaseResult, 0, len(result.Results)),
	}
	if result.ReportError != nil {
		jr.ReportError = result.ReportError.Error()
	}

	for _, cr := range result.Results {
		jr.Cases = append(jr.Cases, caseToJSON(cr))
	}

	r.writeJSON(jr)
}

// ReportCase reports a single case result in JSON format.
func (r *JSONReporter) ReportCase(result *engine.CaseResult) {
	r.writeJSON(caseToJSON(result))
}

func caseToJSON(result *engine.CaseResult) JSONCaseResult {
	jr := JSONCaseResult{
		Case:        result.Case,
		ID:          result.ID,
		Description: result.Description,
		Behavior:    result.Behavior,
		Status:      caseStatus(result),
		State:       result.State.String(),
		Duration:    result.Duration.Round(time.Millisecond).String(),
		Messages:    result.Messages,
		Bytes:       result.Bytes,
		Notes:       result.Notes,
	}
	if result.Error != nil {
		jr.Error = result.Error.Error()
	}
	return jr
}

func (r *JSONReporter) writeJSON(v any) {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		fmt.Fprintf(r.writer, `{"error": "failed to marshal: %s"}`, err)
		return
	}

	fmt.Fprintln(r.writer, string(data))
}

// JUnitReporter outputs JUnit XML format for CI integration.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a new JUnit reporter.
func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

// ReportSuite reports suite results in JUnit XML format.
func (r *JUnitReporter) ReportSuite(result *engine.SuiteResult) {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("\n")

	fmt.Fprintf(&b, `<testsuite name="%s" tests="%d" failures="%d" errors="%d" skipped="%d" time="%.3f">`,
		escapeXML(suiteName(result)),
		len(result.Results),
		result.FailCount,
		result.ErrorCount,
		result.SkipCount,
		result.Duration.Seconds())
	b.WriteString("\n")

	for _, cr := range result.Results {
		fmt.Fprintf(&b, `  <testcase name="%s" classname="case.%d" time="%.3f">`,
			escapeXML(caseName(cr)),
			cr.Case,
			cr.Duration.Seconds())
		b.WriteString("\n")

		switch caseStatus(cr) {
		case "skipped":
			b.WriteString(`    <skipped message="in skip set"/>`)
			b.WriteString("\n")
		case "error":
			fmt.Fprintf(&b, `    <error message="%s"/>`, escapeXML(cr.Error.Error()))
			b.WriteString("\n")
		case "failed":
			fmt.Fprintf(&b, `    <failure message="%s">`, escapeXML("behavior "+cr.Behavior))
			b.WriteString("\n")
			b.WriteString("      <![CDATA[")
			b.WriteString(cr.Description)
			for _, note := range cr.Notes {
				b.WriteString("\n" + note)
			}
			b.WriteString("]]>\n")
			b.WriteString("    </failure>\n")
		}

		b.WriteString("  </testcase>\n")
	}

	b.WriteString("</testsuite>\n")

	fmt.Fprint(r.writer, b.String())
}

// ReportCase reports a single case in JUnit format (wraps in minimal testsuite).
func (r *JUnitReporter) ReportCase(result *engine.CaseResult) {
	suite := &engine.SuiteResult{Duration: result.Duration}
	suite.Add(result)
	r.ReportSuite(suite)
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
