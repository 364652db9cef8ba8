package runner

import (
	"time"

	"github.com/wsconform/wsconform-go/pkg/log"
)

// phaseLog stamps protocol events with the identity of the open connection.
type phaseLog struct {
	runner  *Runner
	connID  string
	phase   string
	caseNum int
	url     string
}

func (p *phaseLog) emit(ev log.Event) {
	ev.ConnectionID = p.connID
	ev.Phase = p.phase
	ev.Case = p.caseNum
	ev.URL = p.url
	p.runner.logEvent(ev)
}

func (p *phaseLog) frame(dir log.Direction, data []byte, binary bool) {
	p.emit(log.Event{
		Direction: dir,
		Category:  log.CategoryMessage,
		Frame:     log.NewFrameEvent(data, binary),
	})
}

func (p *phaseLog) control(dir log.Direction, typ log.ControlMsgType, size, code int, reason string) {
	p.emit(log.Event{
		Direction: dir,
		Category:  log.CategoryControl,
		ControlMsg: &log.ControlMsgEvent{
			Type:        typ,
			Size:        size,
			CloseCode:   code,
			CloseReason: reason,
		},
	})
}

func (p *phaseLog) state(old, next, reason string) {
	p.emit(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old,
			NewState: next,
			Reason:   reason,
		},
	})
}

func (p *phaseLog) err(msg, context string) {
	p.emit(log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Message: msg, Context: context},
	})
}

// logEvent timestamps an event and hands it to the protocol sinks.
func (r *Runner) logEvent(ev log.Event) {
	if r.protocolLog == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Phase == "" {
		ev.Phase = r.phase.String()
	}
	r.protocolLog.Log(ev)
}
