package reporter_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wsconform/wsconform-go/internal/testharness/engine"
	"github.com/wsconform/wsconform-go/internal/testharness/reporter"
)

func createCaseResult(n int, id string, outcome engine.Outcome, err error) *engine.CaseResult {
	r := &engine.CaseResult{
		Case:        n,
		ID:          id,
		Description: "Send a text message.",
		Outcome:     outcome,
		State:       engine.CaseVerdictDone,
		Error:       err,
		Messages:    2,
		Bytes:       26,
		Duration:    100 * time.Millisecond,
	}
	switch outcome {
	case engine.OutcomePass:
		r.Behavior = "OK"
	case engine.OutcomeFail:
		r.Behavior = "FAILED"
	case engine.OutcomeSkipped:
		r.State = engine.CaseIdle
	}
	if err != nil {
		r.State = engine.CaseFailed
	}
	return r
}

func createSuiteResult() *engine.SuiteResult {
	s := &engine.SuiteResult{
		Agent:     "Test Agent",
		CaseCount: 10,
		RunList:   []int{1, 2, 3, 4},
		SkipSet:   []int{3},
		Duration:  500 * time.Millisecond,
	}
	s.Add(createCaseResult(1, "1.1.1", engine.OutcomePass, nil))
	s.Add(createCaseResult(2, "1.1.2", engine.OutcomeFail, nil))
	s.Add(createCaseResult(3, "", engine.OutcomeSkipped, nil))
	s.Add(createCaseResult(4, "", engine.OutcomeNotRun, errors.New("connection refused")))
	return s
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, false)

	r.ReportSuite(createSuiteResult())

	output := buf.String()

	if !strings.Contains(output, "=== Suite: Test Agent ===") {
		t.Error("Missing suite header")
	}

	for _, want := range []string{
		"[PASS]   1 1.1.1",
		"[FAIL]   2 1.1.2",
		"Behavior: FAILED",
		"[SKIP]   3 case 3",
		"[ERR ]   4 case 4",
		"Error: connection refused",
		"Server cases: 10",
		"Total:   4",
		"Passed:  1",
		"Failed:  1",
		"Errors:  1",
		"Skipped: 1",
		"Pass Rate: 33.3%",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Missing %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Note:") {
		t.Error("Notes should only be printed in verbose mode")
	}
}

func TestTextReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, true)

	result := createCaseResult(1, "1.1.1", engine.OutcomePass, nil)
	result.Notes = []string{"abnormal close during case-run"}
	r.ReportCase(result)

	output := buf.String()

	if !strings.Contains(output, "Send a text message.") {
		t.Error("Missing description in verbose mode")
	}
	if !strings.Contains(output, "echoed 2 messages (26 bytes)") {
		t.Error("Missing echo counters in verbose mode")
	}
	if !strings.Contains(output, "Note: abnormal close during case-run") {
		t.Error("Missing note in verbose mode")
	}
}

func TestTextReporterReportError(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, false)

	s := createSuiteResult()
	s.ReportError = errors.New("dial failed")
	r.ReportSummary(s)

	if !strings.Contains(buf.String(), "Report update failed: dial failed") {
		t.Error("Missing report update failure")
	}
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJSONReporter(&buf, true)

	r.ReportSuite(createSuiteResult())

	var result reporter.JSONSuiteResult
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if result.Agent != "Test Agent" {
		t.Errorf("Expected agent 'Test Agent', got %s", result.Agent)
	}
	if result.Total != 4 || result.Passed != 1 || result.Failed != 1 || result.Errors != 1 || result.Skipped != 1 {
		t.Errorf("Unexpected counters %+v", result)
	}
	if len(result.RunList) != 4 || len(result.SkipSet) != 1 {
		t.Errorf("Unexpected lists run=%v skip=%v", result.RunList, result.SkipSet)
	}

	if len(result.Cases) != 4 {
		t.Fatalf("Expected 4 cases, got %d", len(result.Cases))
	}
	wantStatus := []string{"passed", "failed", "skipped", "error"}
	for i, want := range wantStatus {
		if result.Cases[i].Status != want {
			t.Errorf("Case %d should be %s, got %s", i+1, want, result.Cases[i].Status)
		}
	}
	if result.Cases[3].Error != "connection refused" || result.Cases[3].State != "FAILED" {
		t.Errorf("Unexpected error case %+v", result.Cases[3])
	}
}

func TestJSONReporterSingleCase(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJSONReporter(&buf, false)

	r.ReportCase(createCaseResult(7, "2.1", engine.OutcomePass, nil))

	var jr reporter.JSONCaseResult
	if err := json.Unmarshal(buf.Bytes(), &jr); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if jr.Case != 7 || jr.ID != "2.1" || jr.Behavior != "OK" || jr.Status != "passed" {
		t.Errorf("Unexpected case %+v", jr)
	}
}

func TestJUnitReporter(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJUnitReporter(&buf)

	r.ReportSuite(createSuiteResult())

	output := buf.String()

	if !strings.HasPrefix(output, `<?xml version="1.0"`) {
		t.Error("Missing XML header")
	}
	for _, want := range []string{
		`<testsuite name="Test Agent"`,
		`tests="4"`,
		`failures="1"`,
		`errors="1"`,
		`skipped="1"`,
		`<testcase name="1.1.1" classname="case.1"`,
		`<failure message="behavior FAILED">`,
		`<error message="connection refused"/>`,
		`<skipped message="in skip set"/>`,
		`</testsuite>`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Missing %q", want)
		}
	}
}

func TestJUnitReporterSingleCase(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJUnitReporter(&buf)

	r.ReportCase(createCaseResult(1, "1.1.1", engine.OutcomePass, nil))

	output := buf.String()
	if !strings.Contains(output, `<testsuite name="wsconform"`) {
		t.Error("Single case should be wrapped in suite")
	}
	if !strings.Contains(output, `tests="1"`) {
		t.Error("Should have 1 test")
	}
}

func TestJUnitReporterEscapesXML(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJUnitReporter(&buf)

	r.ReportCase(createCaseResult(1, "<a&b>", engine.OutcomePass, nil))

	if !strings.Contains(buf.String(), `name="&lt;a&amp;b&gt;"`) {
		t.Errorf("Case id not escaped: %s", buf.String())
	}
}

func TestReportSummary_IncludesSlowestCases(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, false)

	suite := &engine.SuiteResult{Agent: "slow", Duration: 2 * time.Minute}
	for i := range 15 {
		suite.Add(&engine.CaseResult{
			Case:     i + 1,
			ID:       fmt.Sprintf("9.%d", i+1),
			Outcome:  engine.OutcomePass,
			Duration: time.Duration(i+1) * time.Second,
		})
	}
	r.ReportSummary(suite)

	output := buf.String()

	if !strings.Contains(output, "--- Slowest Cases ---") {
		t.Fatal("Missing slowest cases section")
	}
	if !strings.Contains(output, " 1. [ 15] 9.15") {
		t.Errorf("Slowest case should be listed first:\n%s", output)
	}
	if strings.Contains(output, "9.5 ") {
		t.Error("9.5 should not appear in top 10")
	}
	if !strings.Contains(output, "9.6 ") {
		t.Error("Missing 9.6 (rank 10)")
	}
}

func TestReportSummary_SkippedExcludedFromSlowest(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, false)

	suite := &engine.SuiteResult{}
	suite.Add(&engine.CaseResult{Case: 1, ID: "1.1", Outcome: engine.OutcomePass, Duration: 5 * time.Second})
	suite.Add(&engine.CaseResult{Case: 2, ID: "1.2", Outcome: engine.OutcomeSkipped, Duration: 99 * time.Second})
	suite.Add(&engine.CaseResult{Case: 3, ID: "1.3", Outcome: engine.OutcomePass, Duration: 3 * time.Second})
	suite.Add(&engine.CaseResult{Case: 4, ID: "1.4", Outcome: engine.OutcomeFail, Duration: time.Second})
	r.ReportSummary(suite)

	output := buf.String()

	if !strings.Contains(output, "--- Slowest Cases ---") {
		t.Fatal("Missing slowest cases section")
	}
	if strings.Contains(output, "1.2") {
		t.Error("Skipped case 1.2 should not appear in slowest cases")
	}
}

func TestReportSummary_FewCases_NoSlowestSection(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewTextReporter(&buf, false)

	suite := &engine.SuiteResult{}
	suite.Add(&engine.CaseResult{Case: 1, Outcome: engine.OutcomePass, Duration: time.Second})
	r.ReportSummary(suite)

	if strings.Contains(buf.String(), "Slowest") {
		t.Error("Should not show slowest cases with fewer than 3 cases")
	}
}

func TestNewSelectsFormat(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := reporter.New("json", &buf, false).(*reporter.JSONReporter); !ok {
		t.Error("json format should give a JSONReporter")
	}
	if _, ok := reporter.New("junit", &buf, false).(*reporter.JUnitReporter); !ok {
		t.Error("junit format should give a JUnitReporter")
	}
	if _, ok := reporter.New("", &buf, false).(*reporter.TextReporter); !ok {
		t.Error("default format should give a TextReporter")
	}
}
