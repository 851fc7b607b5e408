// Package directions implements ports.DirectionsProvider with the Google Maps Directions API.
package directions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Mause/menu-system/pkg/domain"
	"googlemaps.github.io/maps"
	mapsmetrics "googlemaps.github.io/maps/metrics"
)

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("directions: no API key configured")

// Config configures the Client.
type Config struct {
	APIKey string
	// Region biases results towards a country code top-level domain, for example "au".
	Region     string
	Language   string
	BaseURL    string
	HTTPClient *http.Client
	Reporter   mapsmetrics.Reporter
}

// Client queries the Directions API.
type Client struct {
	maps     *maps.Client
	region   string
	language string
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Reporter != nil {
		opts = append(opts, maps.WithMetricReporter(cfg.Reporter))
	}
	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{maps: mc, region: cfg.Region, language: cfg.Language}, nil
}

// Directions implements ports.DirectionsProvider.
func (c *Client) Directions(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error) {
	routes, _, err := c.maps.Directions(ctx, c.request(req))
	if err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}
	return toRoutes(routes), nil
}

func (c *Client) request(req domain.DirectionsRequest) *maps.DirectionsRequest {
	r := &maps.DirectionsRequest{
		Origin:      req.Origin.String(),
		Destination: req.Destination,
		Mode:        travelMode(req.Mode),
		Region:      c.region,
		Language:    c.language,
	}
	if req.Mode == domain.TravelModeTransit {
		r.DepartureTime = "now"
		if !req.DepartureTime.IsZero() {
			r.DepartureTime = strconv.FormatInt(req.DepartureTime.Unix(), 10)
		}
	}
	return r
}

func travelMode(m domain.TravelMode) maps.Mode {
	if m == domain.TravelModeTransit {
		return maps.TravelModeTransit
	}
	return maps.TravelModeWalking
}

func toRoutes(in []maps.Route) []domain.Route {
	out := make([]domain.Route, 0, len(in))
	for _, r := range in {
		route := domain.Route{Summary: r.Summary}
		for _, leg := range r.Legs {
			if leg == nil {
				continue
			}
			var l domain.Leg
			for _, step := range leg.Steps {
				if step == nil {
					continue
				}
				l.Steps = append(l.Steps, toStep(step))
			}
			route.Legs = append(route.Legs, l)
		}
		out = append(out, route)
	}
	return out
}

func toStep(s *maps.Step) domain.Step {
	step := domain.Step{
		TravelMode:   s.TravelMode,
		Instructions: s.HTMLInstructions,
		Duration:     s.Duration,
	}
	if t := s.TransitDetails; t != nil {
		line := t.Line.ShortName
		if line == "" {
			line = t.Line.Name
		}
		step.Transit = &domain.TransitDetails{
			Line:          line,
			Vehicle:       t.Line.Vehicle.Name,
			DepartureStop: t.DepartureStop.Name,
			ArrivalStop:   t.ArrivalStop.Name,
			Headsign:      t.Headsign,
			DepartureTime: t.DepartureTime,
			ArrivalTime:   t.ArrivalTime,
			NumStops:      int(t.NumStops),
		}
	}
	return step
}

// Unavailable is the provider used when no API key is configured. Every request fails,
// which the dialog speaks as "no route".
func Unavailable(context.Context, domain.DirectionsRequest) ([]domain.Route, error) {
	return nil, ErrNotConfigured
}
