package dialog_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/Mause/menu-system/internal/config"
	"github.com/Mause/menu-system/internal/dialog"
	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/twiml"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://calls.example.com"

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) LookupByID(ctx context.Context, pattern string) ([]domain.Payphone, error) {
	args := m.Called(ctx, pattern)
	phones, _ := args.Get(0).([]domain.Payphone)
	return phones, args.Error(1)
}

type mockDirections struct {
	mock.Mock
}

func (m *mockDirections) Directions(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error) {
	args := m.Called(ctx, req)
	routes, _ := args.Get(0).([]domain.Route)
	return routes, args.Error(1)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Callers = map[string]config.Caller{
		"+61416041357": {
			Name:     "Dominic",
			Passcode: "123456789012",
			Messages: []string{"https://media.example.com/one.wav", "https://media.example.com/two.wav"},
		},
	}
	return cfg
}

type fixture struct {
	cfg        config.Config
	locator    *mockLocator
	directions *mockDirections
	machine    *dialog.Machine
}

func newFixture(t *testing.T, opts ...dialog.Option) *fixture {
	t.Helper()
	f := &fixture{
		cfg:        testConfig(),
		locator:    &mockLocator{},
		directions: &mockDirections{},
	}
	opts = append([]dialog.Option{dialog.WithClock(func() time.Time { return fixedNow })}, opts...)
	f.machine = dialog.New(f.cfg, f.locator, f.directions, opts...)
	t.Cleanup(func() {
		f.locator.AssertExpectations(t)
		f.directions.AssertExpectations(t)
	})
	return f
}

func (f *fixture) handle(t *testing.T, state domain.State, turn dialog.Turn) dialog.Decision {
	t.Helper()
	d, err := f.machine.Handle(context.Background(), state, turn)
	require.NoError(t, err)
	require.NotNil(t, d.Response)
	return d
}

// follow decodes the continuation carried by the action URL of the gather in res.
func follow(t *testing.T, res *twiml.Response) (path string, params continuation.Params) {
	t.Helper()
	for _, v := range res.Verbs() {
		g, ok := v.(twiml.Gather)
		if !ok {
			continue
		}
		u, err := url.Parse(g.Action)
		require.NoError(t, err)
		params, err := continuation.Decode(u.Query())
		require.NoError(t, err)
		return u.Path, params
	}
	t.Fatalf("no gather in %v", res.Verbs())
	return "", nil
}
