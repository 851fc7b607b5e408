package dialog

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/Mause/menu-system/internal/config"
	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/twiml"
)

// SpellDigits separates digits with spaces so they are read out one at a time.
func SpellDigits(digits string) string {
	return strings.Join(strings.Split(digits, ""), " ")
}

func (m *Machine) caller(turn Turn) (config.Caller, bool) {
	c, ok := m.cfg.Callers[turn.Caller]
	return c, ok
}

func (m *Machine) passcodePrompt(turn Turn) Decision {
	res := m.response()
	c, registered := m.caller(turn)
	if !registered {
		return reject(res, sayNotRegistered, fmt.Errorf("%w: %q", domain.ErrUnknownCaller, turn.Caller))
	}

	n := len(c.Passcode)
	res.Gather(n, m.url(continuation.New(domain.PathPasscodeReceived)), func(g *twiml.Gather) {
		g.Say(fmt.Sprintf(promptPasscode, n))
	})
	res.Say(sayNoInput).Hangup()
	return ok(res)
}

func (m *Machine) passcodeReceived(turn Turn) Decision {
	res := m.response()
	c, registered := m.caller(turn)
	if !registered {
		return reject(res, sayNotRegistered, fmt.Errorf("%w: %q", domain.ErrUnknownCaller, turn.Caller))
	}

	digits := strings.TrimSpace(turn.Digits)
	if digits != "" {
		res.Say(fmt.Sprintf(promptEntered, SpellDigits(digits)))
	}

	if subtle.ConstantTimeCompare([]byte(digits), []byte(c.Passcode)) != 1 {
		res.Say(sayIncorrect).Say(promptClosing).Hangup()
		return Decision{Response: res, Outcome: fmt.Errorf("%w: caller %q", domain.ErrUnauthorized, turn.Caller)}
	}

	pause := m.cfg.PauseSeconds
	res.Pause(pause)
	if c.Name != "" {
		res.Say(fmt.Sprintf(promptHello, c.Name))
	}
	res.Say(promptRetrieving).Pause(pause)
	res.Say(promptMessageFollows).Pause(pause)
	for _, url := range c.Messages {
		res.Play(url).Pause(pause)
	}
	res.Say(promptEndOfMessage).Say(promptClosing).Hangup()
	return ok(res)
}
