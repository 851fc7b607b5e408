package menusystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mause/menu-system/internal/adapters/directions"
	httpAdapter "github.com/Mause/menu-system/internal/adapters/http"
	"github.com/Mause/menu-system/internal/adapters/memory"
	"github.com/Mause/menu-system/internal/adapters/payphones"
	"github.com/Mause/menu-system/internal/adapters/redis"
	"github.com/Mause/menu-system/internal/cache"
	"github.com/Mause/menu-system/internal/config"
	"github.com/Mause/menu-system/internal/dialog"
	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/internal/metrics"
	"github.com/Mause/menu-system/pkg/ports"
)

// Version is the build version, overridden at link time.
var Version = "dev"

// App is a fully wired dialog server.
type App struct {
	cfg        config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	locator    ports.PayphoneLocator
	directions ports.DirectionsProvider
	cache      ports.Cache
	machine    *dialog.Machine
	handler    http.Handler
	closers    []io.Closer
}

// Option configures the App.
type Option func(*App)

// WithLogger sets the structured logger. The default is built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithLocator replaces the payphone feature service client.
func WithLocator(l ports.PayphoneLocator) Option {
	return func(a *App) {
		a.locator = l
	}
}

// WithDirections replaces the Google Maps client.
func WithDirections(d ports.DirectionsProvider) Option {
	return func(a *App) {
		a.directions = d
	}
}

// WithCache replaces the configured cache backend.
func WithCache(c ports.Cache) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithMetrics sets the collectors. The default is a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// New wires the dialog machine, its collaborators and the HTTP handler from cfg.
func New(cfg config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		level, err := cfg.SlogLevel()
		if err != nil {
			return nil, err
		}
		a.logger = logging.New(level, cfg.LogFormat)
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	if a.locator == nil {
		a.locator = payphones.New(payphones.Config{
			BaseURL:    cfg.Payphones.BaseURL,
			ProxyURL:   cfg.Payphones.ProxyURL,
			Table:      cfg.Payphones.Table,
			HTTPClient: &http.Client{Timeout: cfg.Payphones.Timeout},
			Logger:     a.logger,
		})
	}
	if a.directions == nil {
		d, err := newDirections(cfg, a.metrics, a.logger)
		if err != nil {
			return nil, err
		}
		a.directions = d
	}
	if a.cache == nil {
		c, err := a.newCache()
		if err != nil {
			return nil, err
		}
		a.cache = c
	}

	locator, provider := a.locator, a.directions
	if a.cache != nil {
		locator = cache.NewLocator(locator, a.cache, cfg.Cache.TTL, cache.WithLogger(a.logger))
		provider = cache.NewDirections(provider, a.cache, cfg.Cache.TTL, cache.WithLogger(a.logger))
	}

	a.machine = dialog.New(cfg, locator, provider,
		dialog.WithHooks(a.metrics.Hooks()),
		dialog.WithLogger(a.logger),
	)

	a.handler = httpAdapter.NewHandler(httpAdapter.Config{
		Dialog:           a.machine,
		Logger:           a.logger,
		Version:          Version,
		AuthToken:        cfg.Twilio.AuthToken,
		VerifySignatures: cfg.Twilio.VerifySignatures,
		PublicURL:        cfg.BaseURL,
		Metrics:          a.metrics.Handler(),
		OnFallback:       a.metrics.Fallback,
		StaticDir:        cfg.StaticDir,
	})
	return a, nil
}

func newDirections(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (ports.DirectionsProvider, error) {
	if cfg.Directions.APIKey == "" {
		logger.Warn("no directions API key configured; every route lookup will fail")
		return ports.DirectionsFunc(directions.Unavailable), nil
	}
	c, err := directions.New(directions.Config{
		APIKey:     cfg.Directions.APIKey,
		Region:     cfg.Directions.Region,
		Language:   cfg.Language,
		HTTPClient: &http.Client{Timeout: cfg.Directions.Timeout},
		Reporter:   m.MapsReporter(),
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *App) newCache() (ports.Cache, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		return memory.NewCache(), nil
	case config.CacheRedis:
		c, err := redis.NewFromURL(a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c)
		return c, nil
	case config.CacheNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
	}
}

// Handler serves every dialog endpoint plus /health, /info and /metrics.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Machine returns the dialog state machine.
func (a *App) Machine() *dialog.Machine {
	return a.machine
}

// Metrics returns the collectors.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Ping checks the cache backend, if it supports it.
func (a *App) Ping(ctx context.Context) error {
	p, ok := a.cache.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("cache unavailable: %w", err)
	}
	return nil
}

// Close releases connections held by the collaborators.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
