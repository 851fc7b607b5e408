package domain

import (
	"context"
	"errors"
	"time"
)

// TurnEvent describes one inbound callback handled by the dialog.
type TurnEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	State     State         `json:"state"`
	CallID    string        `json:"call_id,omitempty"`
	Outcome   error         `json:"-"`
	Fault     error         `json:"-"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// OutcomeLabel returns a short, stable name for the event outcome.
func (e *TurnEvent) OutcomeLabel() string {
	switch {
	case e.Fault != nil:
		return "fault"
	case e.Outcome == nil:
		return "ok"
	case errors.Is(e.Outcome, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(e.Outcome, ErrNotFound):
		return "not_found"
	case errors.Is(e.Outcome, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(e.Outcome, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(e.Outcome, ErrUnknownCaller):
		return "unknown_caller"
	default:
		return "other"
	}
}

// ExternalEvent describes a call to an external collaborator.
type ExternalEvent struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// TurnHooks defines callbacks for dialog observability.
type TurnHooks struct {
	OnTurnStart func(context.Context, *TurnEvent)
	OnTurnEnd   func(context.Context, *TurnEvent)
	OnExternal  func(context.Context, *ExternalEvent)
}
