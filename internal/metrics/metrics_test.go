package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mause/menu-system/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_RecordTurns(t *testing.T) {
	m := New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTurnEnd(ctx, &domain.TurnEvent{State: domain.StateIdentifierReceived, Duration: time.Millisecond})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{State: domain.StateIdentifierReceived, Outcome: domain.ErrNotFound})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{State: domain.StateIdentifierReceived, Outcome: domain.ErrNotFound})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("identifier_received", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("identifier_received", "not_found")))
}

func TestHooks_RecordExternal(t *testing.T) {
	m := New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnExternal(ctx, &domain.ExternalEvent{Name: "payphones"})
	hooks.OnExternal(ctx, &domain.ExternalEvent{Name: "payphones", Err: errors.New("timeout")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalCalls.WithLabelValues("payphones", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalCalls.WithLabelValues("payphones", "error")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.Fallback()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "menu_fallback_responses_total 1")
}

func TestMapsReporter(t *testing.T) {
	m := New()
	reporter := m.MapsReporter()

	reporter.NewRequest("/maps/api/directions/json").
		EndRequest(context.Background(), nil, &http.Response{StatusCode: http.StatusOK}, "")
	reporter.NewRequest("/maps/api/directions/json").
		EndRequest(context.Background(), errors.New("timeout"), nil, "")

	assert.Equal(t, 2, testutil.CollectAndCount(m.mapsRequests))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.Contains(t, body, `menu_maps_request_duration_seconds_count{code="200",path="/maps/api/directions/json"} 1`)
	assert.Contains(t, body, `menu_maps_request_duration_seconds_count{code="error",path="/maps/api/directions/json"} 1`)
}
