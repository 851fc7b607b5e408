package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
listen: ":8080"
base_url: https://calls.example.com
language: en-GB
destination: 1 Martin Place, Sydney
identifier_length: 9
pause_seconds: 2
abbreviations:
  Pl: Place
callers:
  "+61416041357":
    name: Dominic
    passcode: "123456789012"
    messages:
      - https://example.com/one.wav
      - https://example.com/two.wav
payphones:
  timeout: 3s
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl: 30m
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu-system.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeFile(t, sampleYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "https://calls.example.com", cfg.BaseURL)
	assert.Equal(t, "en-GB", cfg.Language)
	assert.Equal(t, "1 Martin Place, Sydney", cfg.Destination)
	assert.Equal(t, 2, cfg.PauseSeconds)
	assert.Equal(t, 3*time.Second, cfg.Payphones.Timeout)
	assert.Equal(t, "https://spatialserver.pbondemand.com.au", cfg.Payphones.BaseURL, "unset keys keep defaults")
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)

	assert.Equal(t, map[string]string{"Pl": "Place"}, cfg.Abbreviations)

	caller, ok := cfg.Callers["+61416041357"]
	require.True(t, ok)
	assert.Equal(t, "Dominic", caller.Name)
	assert.Equal(t, "123456789012", caller.Passcode)
	assert.Equal(t, []string{"https://example.com/one.wav", "https://example.com/two.wav"}, caller.Messages)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	env := []string{
		"MENU_LANGUAGE=en-US",
		"MENU_IDENTIFIER_LENGTH=6",
		"TWILIO_AUTH_TOKEN=secret",
		"MENU_VERIFY_SIGNATURES=true",
		"GOOGLE_MAPS_DIRECTIONS=maps-key",
		"MENU_CACHE_TTL=5m",
		"UNRELATED=ignored",
		"malformed",
	}

	cfg, err := Load(writeFile(t, sampleYAML), env)
	require.NoError(t, err)

	assert.Equal(t, "en-US", cfg.Language)
	assert.Equal(t, 6, cfg.IdentifierLength)
	assert.Equal(t, "secret", cfg.Twilio.AuthToken)
	assert.True(t, cfg.Twilio.VerifySignatures)
	assert.Equal(t, "maps-key", cfg.Directions.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL, "file values survive unrelated overrides")
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", []string{"PORT=7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, Default().Language, cfg.Language)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("languag: en-AU\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Empty language", func(c *Config) { c.Language = "" }},
		{"Empty destination", func(c *Config) { c.Destination = "" }},
		{"Zero identifier length", func(c *Config) { c.IdentifierLength = 0 }},
		{"Negative pause", func(c *Config) { c.PauseSeconds = -1 }},
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"Bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"Unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"Redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"Signatures without token", func(c *Config) { c.Twilio.VerifySignatures = true }},
		{"Non-digit passcode", func(c *Config) {
			c.Callers = map[string]Caller{"+1": {Passcode: "12a4", Messages: []string{"x"}}}
		}},
		{"Caller without messages", func(c *Config) {
			c.Callers = map[string]Caller{"+1": {Passcode: "1234"}}
		}},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParse_Abbreviations(t *testing.T) {
	cfg, err := Parse([]byte("abbreviations:\n  St: Street\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"St": "Street"}, cfg.Abbreviations)

	cfg, err = Parse([]byte("abbreviations: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Abbreviations)

	cfg, err = Parse([]byte("language: en-GB\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Abbreviations, cfg.Abbreviations)
}

func TestDefault_DoesNotShareAbbreviations(t *testing.T) {
	a := Default()
	a.Abbreviations["Zz"] = "Sleep"

	b := Default()
	_, leaked := b.Abbreviations["Zz"]
	assert.False(t, leaked)
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}
