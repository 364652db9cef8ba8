package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wslog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), ConnectionID: "conn-1", Direction: DirectionIn, Category: CategoryMessage},
		{Timestamp: time.Now(), ConnectionID: "conn-2", Direction: DirectionOut, Category: CategoryMessage},
		{Timestamp: time.Now(), ConnectionID: "conn-3", Direction: DirectionIn, Category: CategoryState},
	}
	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].ConnectionID != "conn-1" || read[2].ConnectionID != "conn-3" {
		t.Errorf("unexpected order: %q ... %q", read[0].ConnectionID, read[2].ConnectionID)
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.wslog")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "aaaaaaaa-1", Direction: DirectionIn, Category: CategoryMessage, Phase: "case-run", Case: 1},
		{Timestamp: base.Add(time.Second), ConnectionID: "aaaaaaaa-1", Direction: DirectionOut, Category: CategoryMessage, Phase: "case-run", Case: 1},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "bbbbbbbb-2", Direction: DirectionIn, Category: CategoryControl, Phase: "case-verdict", Case: 2},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "bbbbbbbb-2", Direction: DirectionIn, Category: CategoryError, Phase: "case-verdict", Case: 2},
	}
	path := createTestLogFile(t, events)

	out := DirectionOut
	ctrl := CategoryControl
	start := base.Add(2 * time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"conn prefix", Filter{ConnectionID: "aaaaaaaa"}, 2},
		{"direction", Filter{Direction: &out}, 1},
		{"category", Filter{Category: &ctrl}, 1},
		{"phase", Filter{Phase: "case-verdict"}, 2},
		{"case", Filter{Case: 1}, 2},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 1},
		{"no match", Filter{Case: 9}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			got, err := reader.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wslog")
	if err := os.WriteFile(path, []byte{0xff, 0x00, 0x13}, 0644); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err == nil || err == io.EOF {
		t.Errorf("expected decode error, got %v", err)
	}
}
