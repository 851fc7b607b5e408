// Package payphones looks up public payphones in the spatial feature service.
package payphones

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultBaseURL is the feature service host.
	DefaultBaseURL = "https://spatialserver.pbondemand.com.au"
	// DefaultTable holds every payphone cabinet.
	DefaultTable = "/telstrappol/NamedTables/TLS_all_payphones"

	featuresPath = "/FeatureService/services/rest/tables/features.json"
)

// Config configures the Client.
type Config struct {
	BaseURL string
	// ProxyURL, when set, tunnels every request as <ProxyURL>?url=<escaped request URL>.
	ProxyURL   string
	Table      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements ports.PayphoneLocator against the feature service.
type Client struct {
	baseURL    string
	proxyURL   string
	table      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. Empty fields take their defaults.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		proxyURL:   cfg.ProxyURL,
		table:      cfg.Table,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.table == "" {
		c.table = DefaultTable
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// Query returns the feature query selecting cabinets whose identifier is LIKE pattern.
func (c *Client) Query(pattern string) string {
	return fmt.Sprintf(`select * from "%s" where CABINET_ID like ('%s')`,
		c.table, strings.ReplaceAll(pattern, "'", "''"))
}

// RequestURL returns the URL fetched for pattern, proxied if configured.
func (c *Client) RequestURL(pattern string) string {
	target := c.baseURL + featuresPath + "?" + url.Values{"q": {c.Query(pattern)}}.Encode()
	if c.proxyURL == "" {
		return target
	}
	return c.proxyURL + "?url=" + url.QueryEscape(target)
}

// StatusError is returned when the service answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feature service returned %d: %s", e.StatusCode, e.Body)
}

type featureCollection struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// properties are the feature fields the dialog needs. The service is loose about
// types, so numbers may arrive as strings.
type properties struct {
	CabinetID string  `mapstructure:"CABINET_ID"`
	Name      string  `mapstructure:"SSC_Name"`
	Latitude  float64 `mapstructure:"Latitude"`
	Longitude float64 `mapstructure:"Longitude"`
}

// LookupByID implements ports.PayphoneLocator.
func (c *Client) LookupByID(ctx context.Context, pattern string) ([]domain.Payphone, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(pattern), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payphone request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payphone lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read payphone response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode payphone response: %w", err)
	}

	out := make([]domain.Payphone, 0, len(fc.Features))
	for i, f := range fc.Features {
		var p properties
		if err := mapstructure.WeakDecode(f.Properties, &p); err != nil {
			c.logger.WarnContext(ctx, "skipping malformed payphone feature", "index", i, "error", err)
			continue
		}
		out = append(out, domain.Payphone{
			ID:        p.CabinetID,
			Name:      p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
	}
	c.logger.DebugContext(ctx, "payphone lookup", "pattern", pattern, "found", len(out))
	return out, nil
}
