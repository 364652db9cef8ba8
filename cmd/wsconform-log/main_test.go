package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wsconform/wsconform-go/pkg/log"
)

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	ts := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	logger.Log(log.Event{Timestamp: ts, ConnectionID: "conn-1", Phase: "case-count",
		Category: log.CategoryMessage, Frame: log.NewFrameEvent([]byte("12"), false)})
	logger.Log(log.Event{Timestamp: ts.Add(time.Second), ConnectionID: "conn-2", Phase: "case-run", Case: 7,
		Category: log.CategoryMessage, Direction: log.DirectionOut, Frame: log.NewFrameEvent([]byte("x"), false)})
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestViewWithCaseFilter(t *testing.T) {
	path := writeLog(t)

	out, err := execute(t, "view", "--case", "7", path)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if !strings.Contains(out, "case-run#7") {
		t.Errorf("expected case 7 event, got:\n%s", out)
	}
	if strings.Contains(out, "case-count") {
		t.Errorf("case-count event should be filtered out:\n%s", out)
	}
}

func TestExportCSVFlag(t *testing.T) {
	path := writeLog(t)

	out, err := execute(t, "export", "--format", "csv", "--phase", "case-count", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got:\n%s", out)
	}
}

func TestFilterRequiresOutput(t *testing.T) {
	path := writeLog(t)

	if _, err := execute(t, "filter", path); err == nil {
		t.Fatal("expected error without --output")
	}
}

func TestBadFilterFlag(t *testing.T) {
	path := writeLog(t)

	_, err := execute(t, "stats", "--direction", "up", path)
	if err == nil || !strings.Contains(err.Error(), "invalid direction") {
		t.Fatalf("expected invalid direction error, got %v", err)
	}
}

func TestMissingFileArgument(t *testing.T) {
	if _, err := execute(t, "view"); err == nil {
		t.Fatal("expected error without file argument")
	}
}
