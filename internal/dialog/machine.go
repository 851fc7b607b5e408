// Package dialog is the call-flow state machine.
//
// Every inbound callback is one turn: the machine takes the state named by the callback
// endpoint, the digits the caller pressed and the continuation values echoed back from the
// previous turn, and returns the document for the next turn. It keeps no state of its own
// between turns.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mause/menu-system/internal/config"
	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/instruction"
	"github.com/Mause/menu-system/pkg/ports"
	"github.com/Mause/menu-system/pkg/twiml"
)

// Turn is the input of one callback.
type Turn struct {
	// Digits are the keys the caller pressed. Empty on the first turn of a flow.
	Digits string
	// Caller identifies the calling party (the From number).
	Caller string
	// CallID correlates turns of the same call in logs.
	CallID string
	// Params are the continuation values written by the previous turn.
	Params continuation.Params
}

// Decision is the result of one turn.
type Decision struct {
	Response *twiml.Response
	// Outcome is nil on the happy path, or one of the domain outcome errors
	// when the caller heard a rejection.
	Outcome error
}

// Machine decides each turn of the location and message flows.
type Machine struct {
	cfg        config.Config
	locator    ports.PayphoneLocator
	directions ports.DirectionsProvider
	normalizer *instruction.Normalizer
	hooks      domain.TurnHooks
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the Machine.
type Option func(*Machine)

// WithHooks registers observability hooks.
func WithHooks(hooks domain.TurnHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets a structured logger for turn events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithClock replaces the time source used for departure times and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New creates a Machine. cfg is treated as immutable.
func New(cfg config.Config, locator ports.PayphoneLocator, directions ports.DirectionsProvider, opts ...Option) *Machine {
	m := &Machine{
		cfg:        cfg,
		locator:    locator,
		directions: directions,
		normalizer: instruction.New(cfg.Abbreviations),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle runs one turn for state. The returned error is a fault (for example an
// undecodable continuation); callers answer faults with Fallback.
func (m *Machine) Handle(ctx context.Context, state domain.State, turn Turn) (d Decision, err error) {
	event := &domain.TurnEvent{
		Timestamp: m.now(),
		State:     state,
		CallID:    turn.CallID,
	}
	if m.hooks.OnTurnStart != nil {
		m.hooks.OnTurnStart(ctx, event)
	}

	start := time.Now()
	defer func() {
		event.Duration = time.Since(start)
		event.Outcome = d.Outcome
		event.Fault = err
		m.logTurn(ctx, event)
		if m.hooks.OnTurnEnd != nil {
			m.hooks.OnTurnEnd(ctx, event)
		}
	}()

	switch state {
	case domain.StateEntryPrompt:
		return m.entryPrompt(), nil
	case domain.StateIdentifierReceived:
		return m.identifierReceived(ctx, turn), nil
	case domain.StateSelectionReceived:
		return m.selectionReceived(turn)
	case domain.StateModeReceived:
		return m.modeReceived(ctx, turn)
	case domain.StateRepeatPrompt:
		return m.repeatPrompt(ctx, turn)
	case domain.StatePasscodePrompt:
		return m.passcodePrompt(turn), nil
	case domain.StatePasscodeReceived:
		return m.passcodeReceived(turn), nil
	default:
		return Decision{}, fmt.Errorf("unknown state %q", state)
	}
}

// Fallback is the document answered when a turn cannot be built.
func (m *Machine) Fallback() *twiml.Response {
	return m.response().Say(sayApology).Hangup()
}

func (m *Machine) logTurn(ctx context.Context, e *domain.TurnEvent) {
	attrs := []any{
		"state", e.State,
		"outcome", e.OutcomeLabel(),
		"duration", e.Duration,
	}
	if e.CallID != "" {
		attrs = append(attrs, "call_sid", e.CallID)
	}
	switch {
	case e.Fault != nil:
		m.logger.ErrorContext(ctx, "turn failed", append(attrs, "error", e.Fault)...)
	case e.Outcome != nil:
		m.logger.InfoContext(ctx, "turn rejected", append(attrs, "reason", e.Outcome.Error())...)
	default:
		m.logger.DebugContext(ctx, "turn", attrs...)
	}
}

// external times a call to a collaborator and reports it to the hooks.
func (m *Machine) external(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if m.hooks.OnExternal != nil {
		m.hooks.OnExternal(ctx, &domain.ExternalEvent{
			Name:     name,
			Duration: time.Since(start),
			Err:      err,
		})
	}
	if err != nil {
		m.logger.WarnContext(ctx, "external call failed", "name", name, "error", err)
	}
	return err
}

func (m *Machine) response() *twiml.Response {
	return twiml.New(m.cfg.Language)
}

func (m *Machine) url(c continuation.Continuation) string {
	return c.URL(m.cfg.BaseURL)
}

func reject(res *twiml.Response, text string, outcome error) Decision {
	res.Say(text).Hangup()
	return Decision{Response: res, Outcome: outcome}
}

func ok(res *twiml.Response) Decision {
	return Decision{Response: res}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
