package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Phase != "" {
		attrs = append(attrs, slog.String("phase", event.Phase))
	}
	if event.Case != 0 {
		attrs = append(attrs, slog.Int("case", event.Case))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("size", event.Frame.Size),
			slog.Bool("binary", event.Frame.Binary),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.ControlMsg != nil:
		attrs = append(attrs, slog.String("ctrl_type", event.ControlMsg.Type.String()))
		if event.ControlMsg.Type == ControlMsgClose {
			attrs = append(attrs,
				slog.Int("close_code", event.ControlMsg.CloseCode),
				slog.String("close_reason", event.ControlMsg.CloseReason),
			)
		} else {
			attrs = append(attrs, slog.Int("size", event.ControlMsg.Size))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
