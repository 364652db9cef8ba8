package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wsconform/wsconform-go/pkg/log"
)

// RunExport writes the events of path matching filter to w in the given
// format (jsonl or csv).
func RunExport(path, format string, filter log.Filter, w io.Writer) error {
	switch format {
	case "jsonl", "csv":
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

// jsonEvent is the JSON lines form of an event. Enums are written as names.
type jsonEvent struct {
	Timestamp    string              `json:"timestamp"`
	ConnectionID string              `json:"connection_id,omitempty"`
	Direction    string              `json:"direction"`
	Category     string              `json:"category"`
	Phase        string              `json:"phase,omitempty"`
	Case         int                 `json:"case,omitempty"`
	URL          string              `json:"url,omitempty"`
	Frame        *log.FrameEvent     `json:"frame,omitempty"`
	State        *jsonState          `json:"state,omitempty"`
	Control      *jsonControl        `json:"control,omitempty"`
	Error        *log.ErrorEventData `json:"error,omitempty"`
}

type jsonState struct {
	Entity   string `json:"entity"`
	OldState string `json:"old,omitempty"`
	NewState string `json:"new"`
	Reason   string `json:"reason,omitempty"`
}

type jsonControl struct {
	Type        string `json:"type"`
	Size        int    `json:"size,omitempty"`
	CloseCode   int    `json:"close_code,omitempty"`
	CloseReason string `json:"close_reason,omitempty"`
}

func toJSONEvent(event log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:    event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ConnectionID: event.ConnectionID,
		Direction:    event.Direction.String(),
		Category:     event.Category.String(),
		Phase:        event.Phase,
		Case:         event.Case,
		URL:          event.URL,
		Frame:        event.Frame,
		Error:        event.Error,
	}
	if sc := event.StateChange; sc != nil {
		je.State = &jsonState{
			Entity:   sc.Entity.String(),
			OldState: sc.OldState,
			NewState: sc.NewState,
			Reason:   sc.Reason,
		}
	}
	if c := event.ControlMsg; c != nil {
		je.Control = &jsonControl{
			Type:        c.Type.String(),
			Size:        c.Size,
			CloseCode:   c.CloseCode,
			CloseReason: c.CloseReason,
		}
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "connection_id", "direction", "category", "phase", "case", "type", "size"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		eventType := "unknown"
		size := ""
		switch {
		case event.Frame != nil:
			eventType = "text"
			if event.Frame.Binary {
				eventType = "binary"
			}
			size = strconv.Itoa(event.Frame.Size)
		case event.StateChange != nil:
			eventType = "state"
		case event.ControlMsg != nil:
			eventType = event.ControlMsg.Type.String()
			size = strconv.Itoa(event.ControlMsg.Size)
		case event.Error != nil:
			eventType = "error"
		}

		caseNum := ""
		if event.Case > 0 {
			caseNum = strconv.Itoa(event.Case)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.Category.String(),
			event.Phase,
			caseNum,
			eventType,
			size,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
