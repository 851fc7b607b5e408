// Package cache wraps the lookup collaborators with a ports.Cache.
//
// Cache failures are logged and otherwise ignored; the wrapped collaborator stays the
// source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/ports"
)

const (
	payphonePrefix   = "payphones:"
	directionsPrefix = "directions:"
)

// Option configures the decorators.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func build(opts []Option) options {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Locator caches payphone lookups by pattern.
type Locator struct {
	next  ports.PayphoneLocator
	cache ports.Cache
	ttl   time.Duration
	opts  options
}

// NewLocator wraps next.
func NewLocator(next ports.PayphoneLocator, c ports.Cache, ttl time.Duration, opts ...Option) *Locator {
	return &Locator{next: next, cache: c, ttl: ttl, opts: build(opts)}
}

// LookupByID implements ports.PayphoneLocator.
func (l *Locator) LookupByID(ctx context.Context, pattern string) ([]domain.Payphone, error) {
	key := payphonePrefix + pattern

	var phones []domain.Payphone
	if load(ctx, l.cache, key, &phones, l.opts.logger) {
		return phones, nil
	}

	phones, err := l.next.LookupByID(ctx, pattern)
	if err != nil {
		return nil, err
	}
	// Empty results are cached too.
	if phones == nil {
		phones = []domain.Payphone{}
	}
	store(ctx, l.cache, key, phones, l.ttl, l.opts.logger)
	return phones, nil
}

// Directions caches routes by request.
type Directions struct {
	next  ports.DirectionsProvider
	cache ports.Cache
	ttl   time.Duration
	opts  options
}

// NewDirections wraps next.
func NewDirections(next ports.DirectionsProvider, c ports.Cache, ttl time.Duration, opts ...Option) *Directions {
	return &Directions{next: next, cache: c, ttl: ttl, opts: build(opts)}
}

// Directions implements ports.DirectionsProvider.
// Empty results are not cached.
func (d *Directions) Directions(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error) {
	key := DirectionsKey(req)

	var routes []domain.Route
	if load(ctx, d.cache, key, &routes, d.opts.logger) {
		return routes, nil
	}

	routes, err := d.next.Directions(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(routes) > 0 {
		store(ctx, d.cache, key, routes, d.ttl, d.opts.logger)
	}
	return routes, nil
}

// DirectionsKey identifies a request in the cache. Transit routes depend on the
// departure time, so it is part of the key to the minute; walking routes do not.
func DirectionsKey(req domain.DirectionsRequest) string {
	parts := []string{string(req.Mode), req.Origin.String(), req.Destination}
	if req.Mode == domain.TravelModeTransit {
		parts = append(parts, req.DepartureTime.UTC().Truncate(time.Minute).Format(time.RFC3339))
	}
	return directionsPrefix + strings.Join(parts, "|")
}

func load(ctx context.Context, c ports.Cache, key string, v any, logger *slog.Logger) bool {
	data, err := c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.WarnContext(ctx, "cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func store(ctx context.Context, c ports.Cache, key string, v any, ttl time.Duration, logger *slog.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
