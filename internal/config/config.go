// Package config loads the immutable process configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file, and
// environment variables. The result is validated once at startup and then passed
// explicitly to everything that needs it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mause/menu-system/pkg/instruction"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "menu-system.yaml"

// Config is the complete process configuration.
type Config struct {
	Listen   string `mapstructure:"listen" yaml:"listen"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Language is the default spoken locale.
	Language string `mapstructure:"language" yaml:"language"`

	// Destination is the fixed address all directions lead to.
	Destination string `mapstructure:"destination" yaml:"destination"`

	// IdentifierLength is the number of digits in a payphone identifier.
	IdentifierLength int `mapstructure:"identifier_length" yaml:"identifier_length"`

	// EasterEggURL is played when the caller enters the ascending digit sequence.
	EasterEggURL string `mapstructure:"easter_egg_url" yaml:"easter_egg_url"`

	// PauseSeconds separates spoken instructions and played messages. Zero disables the pauses.
	PauseSeconds int `mapstructure:"pause_seconds" yaml:"pause_seconds"`

	// StaticDir is served under /static/. Empty disables it.
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`

	// Abbreviations are expanded in spoken directions. When set, they replace the defaults.
	Abbreviations map[string]string `mapstructure:"abbreviations" yaml:"abbreviations"`

	// Callers maps a caller identity (the From number) to its passcode-gated messages.
	Callers map[string]Caller `mapstructure:"callers" yaml:"callers"`

	Twilio     TwilioConfig     `mapstructure:"twilio" yaml:"twilio"`
	Payphones  PayphonesConfig  `mapstructure:"payphones" yaml:"payphones"`
	Directions DirectionsConfig `mapstructure:"directions" yaml:"directions"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
}

// Caller is a registered identity of the message flow.
type Caller struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Passcode string   `mapstructure:"passcode" yaml:"passcode"`
	Messages []string `mapstructure:"messages" yaml:"messages"`
}

// TwilioConfig configures inbound request verification.
type TwilioConfig struct {
	AuthToken        string `mapstructure:"auth_token" yaml:"auth_token"`
	VerifySignatures bool   `mapstructure:"verify_signatures" yaml:"verify_signatures"`
}

// PayphonesConfig configures the payphone feature service.
type PayphonesConfig struct {
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	ProxyURL string        `mapstructure:"proxy_url" yaml:"proxy_url"`
	Table    string        `mapstructure:"table" yaml:"table"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DirectionsConfig configures the directions service.
type DirectionsConfig struct {
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Region  string        `mapstructure:"region" yaml:"region"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig selects and configures the lookup cache.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:           ":5555",
		LogLevel:         "info",
		LogFormat:        "text",
		Language:         "en-AU",
		Destination:      "Central Station, Sydney NSW 2000",
		IdentifierLength: 9,
		EasterEggURL:     "/static/Gorillaz%20-%20Film%20Music%20(Official%20Visual).mp3",
		PauseSeconds:     1,
		StaticDir:        "static",
		Abbreviations:    maps.Clone(instruction.DefaultAbbreviations),
		Callers:          map[string]Caller{},
		Payphones: PayphonesConfig{
			BaseURL:  "https://spatialserver.pbondemand.com.au",
			ProxyURL: "http://services.mapinfo.com.au/riaproxy",
			Table:    "/telstrappol/NamedTables/TLS_all_payphones",
			Timeout:  10 * time.Second,
		},
		Directions: DirectionsConfig{
			Region:  "au",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
		},
	}
}

// envBindings maps environment variables onto configuration keys.
var envBindings = map[string]string{
	"MENU_LISTEN":             "listen",
	"PORT":                    "port",
	"MENU_BASE_URL":           "base_url",
	"MENU_LOG_LEVEL":          "log_level",
	"MENU_LOG_FORMAT":         "log_format",
	"MENU_LANGUAGE":           "language",
	"MENU_DESTINATION":        "destination",
	"MENU_IDENTIFIER_LENGTH":  "identifier_length",
	"MENU_EASTER_EGG_URL":     "easter_egg_url",
	"MENU_PAUSE_SECONDS":      "pause_seconds",
	"MENU_STATIC_DIR":         "static_dir",
	"MENU_VERIFY_SIGNATURES":  "twilio.verify_signatures",
	"TWILIO_AUTH_TOKEN":       "twilio.auth_token",
	"MENU_PAYPHONES_BASE_URL": "payphones.base_url",
	"MENU_PAYPHONES_PROXY":    "payphones.proxy_url",
	"GOOGLE_MAPS_DIRECTIONS":  "directions.api_key",
	"MENU_CACHE_BACKEND":      "cache.backend",
	"MENU_CACHE_TTL":          "cache.ttl",
	"REDIS_URL":               "cache.redis_url",
}

// Load reads the configuration file at path and applies environment overrides from environ
// (KEY=VALUE pairs, as returned by os.Environ). A missing file at DefaultPath is not an error.
func Load(path string, environ []string) (Config, error) {
	raw := map[string]any{}

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		// Defaults and environment only.
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(raw, environ)

	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration without consulting the environment.
func Parse(data []byte) (Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(raw map[string]any) (Config, error) {
	// PORT is the platform convention (Heroku and friends); it only fills in a missing listen address.
	if port, ok := raw["port"]; ok {
		delete(raw, "port")
		if _, set := raw["listen"]; !set {
			raw["listen"] = fmt.Sprintf(":%v", port)
		}
	}

	cfg := Default()
	// A configured dictionary replaces the defaults rather than extending them.
	if _, ok := raw["abbreviations"]; ok {
		cfg.Abbreviations = map[string]string{}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		path, bound := envBindings[key]
		if !bound {
			continue
		}
		setPath(raw, strings.Split(path, "."), value)
	}
}

func setPath(raw map[string]any, path []string, value string) {
	if len(path) == 1 {
		raw[path[0]] = value
		return
	}
	child, ok := raw[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		raw[path[0]] = child
	}
	setPath(child, path[1:], value)
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error

	if c.Language == "" {
		errs = append(errs, errors.New("language is required"))
	}
	if c.Destination == "" {
		errs = append(errs, errors.New("destination is required"))
	}
	if c.IdentifierLength < 1 || c.IdentifierLength > 20 {
		errs = append(errs, fmt.Errorf("identifier_length must be between 1 and 20, got %d", c.IdentifierLength))
	}
	if c.PauseSeconds < 0 {
		errs = append(errs, fmt.Errorf("pause_seconds must not be negative, got %d", c.PauseSeconds))
	}
	if c.EasterEggURL == "" {
		errs = append(errs, errors.New("easter_egg_url is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	for id, caller := range c.Callers {
		if caller.Passcode == "" || !isDigits(caller.Passcode) {
			errs = append(errs, fmt.Errorf("callers[%s]: passcode must be digits", id))
		}
		if len(caller.Messages) == 0 {
			errs = append(errs, fmt.Errorf("callers[%s]: at least one message is required", id))
		}
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Twilio.VerifySignatures && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("twilio.auth_token is required to verify signatures"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
