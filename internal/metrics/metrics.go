// Package metrics exposes dialog activity as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Mause/menu-system/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mapsmetrics "googlemaps.github.io/maps/metrics"
)

// Metrics holds the collectors fed by dialog turn hooks.
type Metrics struct {
	registry *prometheus.Registry

	turns            *prometheus.CounterVec
	turnDuration     *prometheus.HistogramVec
	externalCalls    *prometheus.CounterVec
	externalDuration *prometheus.HistogramVec
	fallbacks        prometheus.Counter
	mapsRequests     *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menu_turns_total",
				Help: "Total number of dialog turns by state and outcome",
			},
			[]string{"state", "outcome"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menu_turn_duration_seconds",
				Help:    "Time spent building a turn response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"state"},
		),
		externalCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menu_external_calls_total",
				Help: "Calls to external collaborators by name and result",
			},
			[]string{"name", "result"},
		),
		externalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menu_external_duration_seconds",
				Help:    "Duration of calls to external collaborators",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"name"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "menu_fallback_responses_total",
				Help: "Turns answered with the generic apology document",
			},
		),
		mapsRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menu_maps_request_duration_seconds",
				Help:    "Google Maps API requests by path and status code",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "code"},
		),
	}
	m.registry.MustRegister(
		m.turns,
		m.turnDuration,
		m.externalCalls,
		m.externalDuration,
		m.fallbacks,
		m.mapsRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Fallback records a turn answered with the apology document.
func (m *Metrics) Fallback() {
	m.fallbacks.Inc()
}

// Hooks returns turn hooks that record into the collectors.
func (m *Metrics) Hooks() domain.TurnHooks {
	return domain.TurnHooks{
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(string(e.State), e.OutcomeLabel()).Inc()
			m.turnDuration.WithLabelValues(string(e.State)).Observe(e.Duration.Seconds())
		},
		OnExternal: func(ctx context.Context, e *domain.ExternalEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.externalCalls.WithLabelValues(e.Name, result).Inc()
			m.externalDuration.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
		},
	}
}

// MapsReporter returns a reporter for the Maps client that records each request.
func (m *Metrics) MapsReporter() mapsmetrics.Reporter {
	return mapsReporter{m: m}
}

type mapsReporter struct {
	m *Metrics
}

func (r mapsReporter) NewRequest(name string) mapsmetrics.Request {
	return &mapsRequest{m: r.m, path: name, start: time.Now()}
}

type mapsRequest struct {
	m     *Metrics
	path  string
	start time.Time
}

func (r *mapsRequest) EndRequest(_ context.Context, err error, resp *http.Response, _ string) {
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	r.m.mapsRequests.WithLabelValues(r.path, code).Observe(time.Since(r.start).Seconds())
}
