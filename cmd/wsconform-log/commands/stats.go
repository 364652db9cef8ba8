package commands

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/wsconform/wsconform-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByPhase     map[string]int
	Connections       map[string]*ConnectionStats
	Cases             map[int]bool
	MessageBytes      int64
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Phase     string
	Case      int
	Messages  int
	CloseCode int
}

// CollectStats reads every event of path matching filter.
func CollectStats(path string, filter log.Filter) (*Stats, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByPhase:     make(map[string]int),
		Connections:       make(map[string]*ConnectionStats),
		Cases:             make(map[int]bool),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++
	if event.Phase != "" {
		s.EventsByPhase[event.Phase]++
	}
	if event.Case > 0 {
		s.Cases[event.Case] = true
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Error != nil {
		s.Errors++
	}
	if event.Frame != nil {
		s.MessageBytes += int64(event.Frame.Size)
	}

	// Case state transitions carry no connection.
	if event.ConnectionID == "" {
		return
	}
	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
			Phase:     event.Phase,
			Case:      event.Case,
		}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if event.Frame != nil && event.Direction == log.DirectionIn {
		conn.Messages++
	}
	if event.ControlMsg != nil && event.ControlMsg.Type == log.ControlMsgClose {
		conn.CloseCode = event.ControlMsg.CloseCode
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := CollectStats(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== WebSocket Conformance Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Cases:        %d\n", len(stats.Cases))
	fmt.Fprintf(w, "Frame Bytes:  %d\n", stats.MessageBytes)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.EventsByPhase) > 0 {
		fmt.Fprintln(w, "Events by Phase:")
		phases := make([]string, 0, len(stats.EventsByPhase))
		for p := range stats.EventsByPhase {
			phases = append(phases, p)
		}
		slices.Sort(phases)
		for _, p := range phases {
			fmt.Fprintf(w, "  %-14s %d\n", p+":", stats.EventsByPhase[p])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		slices.SortFunc(conns, func(a, b connInfo) int {
			return cmp.Compare(a.stats.FirstSeen.UnixNano(), b.stats.FirstSeen.UnixNano())
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s", shortenConnID(c.id), c.stats.Phase)
			if c.stats.Case > 0 {
				fmt.Fprintf(w, " case %d", c.stats.Case)
			}
			fmt.Fprintf(w, ": %d events, %d messages, duration %s", c.stats.Events, c.stats.Messages, duration)
			if c.stats.CloseCode != 0 {
				fmt.Fprintf(w, ", close %d", c.stats.CloseCode)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
