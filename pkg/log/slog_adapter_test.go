package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logOne(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := logOne(t, Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Category:     CategoryMessage,
		Phase:        "case-run",
		Case:         42,
		Frame:        &FrameEvent{Size: 256, Binary: true},
	})

	want := map[string]any{
		"msg":       "protocol",
		"conn_id":   "conn-123",
		"direction": "IN",
		"category":  "MESSAGE",
		"phase":     "case-run",
		"case":      float64(42),
		"size":      float64(256),
		"binary":    true,
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterLogsCloseEvent(t *testing.T) {
	entry := logOne(t, Event{
		Category:   CategoryControl,
		ControlMsg: &ControlMsgEvent{Type: ControlMsgClose, CloseCode: 1000, CloseReason: "bye"},
	})

	if entry["ctrl_type"] != "CLOSE" || entry["close_code"] != float64(1000) || entry["close_reason"] != "bye" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["case"]; ok {
		t.Error("case attribute should be omitted when zero")
	}
}

func TestSlogAdapterLogsStateAndError(t *testing.T) {
	entry := logOne(t, Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityCase, OldState: "IDLE", NewState: "METADATA_CONNECT"},
	})
	if entry["entity"] != "CASE" || entry["new_state"] != "METADATA_CONNECT" {
		t.Errorf("unexpected state entry %v", entry)
	}

	entry = logOne(t, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Message: "refused", Context: "connect"},
	})
	if entry["error_msg"] != "refused" || entry["error_context"] != "connect" {
		t.Errorf("unexpected error entry %v", entry)
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Category: CategoryMessage})

	if buf.Len() != 0 {
		t.Errorf("debug events should be dropped at info level, got %q", buf.String())
	}
}
