package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/ports"
	"github.com/Mause/menu-system/pkg/twiml"
)

// MaxChoices is the number of candidates offered at the selection prompt.
// A single keypress selects one, so anything beyond 9 cannot be chosen.
const MaxChoices = 9

// Continuation keys.
const (
	keyCandidates = "candidates"
	keyOrigin     = "origin"
	keyMode       = "mode"
)

// External call names reported to the hooks.
const (
	callLookup     = "payphone_lookup"
	callDirections = "directions"
)

// LookupPattern turns entered digits into the identifier pattern sent to the locator:
// the wildcard sits between the second-to-last and last digit, matching any single
// character there. "123456789" becomes "12345678_9".
func LookupPattern(digits string) string {
	n := len(digits)
	if n == 0 {
		return ""
	}
	return digits[:n-1] + ports.Wildcard + digits[n-1:]
}

// AscendingSequence returns the digits 1, 2, 3 and so on up to n digits, wrapping 9 to 0.
func AscendingSequence(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteByte(byte('0' + i%10))
	}
	return b.String()
}

// SelectCandidate returns the candidate chosen by a one-based keypress.
func SelectCandidate(candidates []domain.Payphone, digits string) (domain.Payphone, error) {
	k, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil {
		return domain.Payphone{}, fmt.Errorf("%w: selection %q", domain.ErrMalformedInput, digits)
	}
	if k < 1 || k > len(candidates) {
		return domain.Payphone{}, fmt.Errorf("%w: selection %d of %d", domain.ErrOutOfRange, k, len(candidates))
	}
	return candidates[k-1], nil
}

func (m *Machine) entryPrompt() Decision {
	n := m.cfg.IdentifierLength
	res := m.response()
	res.Gather(n, m.url(continuation.New(domain.PathIdentifierReceived)), func(g *twiml.Gather) {
		g.Say(fmt.Sprintf(promptIdentifier, n))
	})
	res.Say(sayNoInput).Hangup()
	return ok(res)
}

func (m *Machine) identifierReceived(ctx context.Context, turn Turn) Decision {
	res := m.response()
	digits := strings.TrimSpace(turn.Digits)

	if digits == AscendingSequence(m.cfg.IdentifierLength) {
		res.Play(m.cfg.EasterEggURL).Hangup()
		return ok(res)
	}

	if len(digits) != m.cfg.IdentifierLength || !isDigits(digits) {
		return reject(res, sayInvalidID, fmt.Errorf("%w: identifier %q", domain.ErrMalformedInput, digits))
	}

	var found []domain.Payphone
	err := m.external(ctx, callLookup, func() error {
		var err error
		found, err = m.locator.LookupByID(ctx, LookupPattern(digits))
		return err
	})
	if err != nil {
		return reject(res, sayNotFound, fmt.Errorf("%w: %v", domain.ErrNotFound, err))
	}

	switch len(found) {
	case 0:
		return reject(res, sayNotFound, fmt.Errorf("%w: identifier %s", domain.ErrNotFound, digits))
	case 1:
		return ok(m.modePrompt(res, found[0]))
	default:
		return m.selectionPrompt(res, found)
	}
}

func (m *Machine) selectionPrompt(res *twiml.Response, found []domain.Payphone) Decision {
	offered := found
	if len(offered) > MaxChoices {
		offered = offered[:MaxChoices]
	}

	next, err := continuation.New(domain.PathSelectionReceived).WithJSON(keyCandidates, offered)
	if err != nil {
		return reject(res, sayNotFound, fmt.Errorf("%w: %v", domain.ErrNotFound, err))
	}

	res.Gather(1, m.url(next), func(g *twiml.Gather) {
		if len(found) > len(offered) {
			g.Say(fmt.Sprintf(promptFoundFirst, len(found), len(offered)))
		} else {
			g.Say(fmt.Sprintf(promptFoundMany, len(found)))
		}
		for i, p := range offered {
			g.Say(fmt.Sprintf(promptChoice, i+1, p.Name))
		}
	})
	res.Say(sayNoInput).Hangup()
	return ok(res)
}

func (m *Machine) selectionReceived(turn Turn) (Decision, error) {
	var candidates []domain.Payphone
	if err := turn.Params.JSON(keyCandidates, &candidates); err != nil {
		return Decision{}, err
	}

	res := m.response()
	chosen, err := SelectCandidate(candidates, turn.Digits)
	if err != nil {
		return reject(res, sayInvalidSelection, err), nil
	}
	return ok(m.modePrompt(res, chosen)), nil
}

func (m *Machine) modePrompt(res *twiml.Response, p domain.Payphone) *twiml.Response {
	next := continuation.New(domain.PathModeReceived).With(keyOrigin, p.Location().String())

	res.Say(fmt.Sprintf(promptFound, p.Name))
	res.Gather(1, m.url(next), func(g *twiml.Gather) {
		g.Say(promptMode)
	})
	return res.Say(sayNoInput).Hangup()
}

func (m *Machine) modeReceived(ctx context.Context, turn Turn) (Decision, error) {
	mode, valid := domain.ModeForDigit(strings.TrimSpace(turn.Digits))
	if !valid {
		return reject(m.response(), sayInvalidInput, fmt.Errorf("%w: mode %q", domain.ErrMalformedInput, turn.Digits)), nil
	}
	from, err := decodeOrigin(turn.Params)
	if err != nil {
		return Decision{}, err
	}
	return m.instructions(ctx, mode, from), nil
}

func (m *Machine) repeatPrompt(ctx context.Context, turn Turn) (Decision, error) {
	if strings.TrimSpace(turn.Digits) != "1" {
		return ok(m.response().Say(sayFarewell).Hangup()), nil
	}

	raw, err := turn.Params.String(keyMode)
	if err != nil {
		return Decision{}, err
	}
	mode, err := domain.ParseTravelMode(raw)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", continuation.ErrInvalidParam, err)
	}
	from, err := decodeOrigin(turn.Params)
	if err != nil {
		return Decision{}, err
	}
	return m.instructions(ctx, mode, from), nil
}

func decodeOrigin(p continuation.Params) (domain.LatLng, error) {
	raw, err := p.String(keyOrigin)
	if err != nil {
		return domain.LatLng{}, err
	}
	ll, err := domain.ParseLatLng(raw)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("%w: %v", continuation.ErrInvalidParam, err)
	}
	return ll, nil
}

// instructions speaks the first route from origin to the destination. The output depends
// only on mode, origin and what the directions provider returns, so the repeat prompt
// reproduces it exactly.
func (m *Machine) instructions(ctx context.Context, mode domain.TravelMode, from domain.LatLng) Decision {
	res := m.response()

	var routes []domain.Route
	err := m.external(ctx, callDirections, func() error {
		var err error
		routes, err = m.directions.Directions(ctx, domain.DirectionsRequest{
			Origin:        from,
			Destination:   m.cfg.Destination,
			Mode:          mode,
			DepartureTime: m.now(),
		})
		return err
	})
	if err != nil {
		return reject(res, sayNoRoute, fmt.Errorf("%w: %v", domain.ErrNotFound, err))
	}

	var spoken []string
	if len(routes) > 0 {
		spoken = m.describeRoute(routes[0])
	}
	if len(spoken) == 0 {
		return reject(res, sayNoRoute, fmt.Errorf("%w: no route to %s", domain.ErrNotFound, m.cfg.Destination))
	}

	for _, text := range spoken {
		res.Say(text).Pause(m.cfg.PauseSeconds)
	}
	res.Say(promptEndOfSteps)

	next := continuation.New(domain.PathRepeatPrompt).
		With(keyMode, string(mode)).
		With(keyOrigin, from.String())
	res.Gather(1, m.url(next), func(g *twiml.Gather) {
		g.Say(promptRepeat)
	})
	res.Say(sayFarewell).Hangup()
	return ok(res)
}

func (m *Machine) describeRoute(route domain.Route) []string {
	var out []string
	for _, leg := range route.Legs {
		for _, step := range leg.Steps {
			if text := m.describeStep(step); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func (m *Machine) describeStep(step domain.Step) string {
	if step.Transit == nil {
		return m.normalizer.Normalize(step.Instructions)
	}
	return m.normalizer.Normalize(DescribeTransit(*step.Transit))
}

// DescribeTransit renders a public transport step as a sentence.
func DescribeTransit(t domain.TransitDetails) string {
	line := t.Line
	if t.Vehicle != "" {
		line += " " + strings.ToLower(t.Vehicle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, transitStep, line, t.Headsign, t.DepartureStop)
	if !t.DepartureTime.IsZero() {
		fmt.Fprintf(&b, transitAt, t.DepartureTime.Format("3:04 PM"))
	}
	fmt.Fprintf(&b, transitArrival, t.ArrivalStop)
	switch {
	case t.NumStops == 1:
		fmt.Fprintf(&b, transitStops, t.NumStops, "stop")
	case t.NumStops > 1:
		fmt.Fprintf(&b, transitStops, t.NumStops, "stops")
	}
	b.WriteByte('.')
	return b.String()
}
