// Package continuation carries dialog state between turns in the query string of the
// next callback URL. There is no server-side session store: whatever a state needs on the
// following turn is encoded here and echoed back by the voice platform.
package continuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Version is the encoding version written into every continuation.
// Decoders accept any version up to and including this one and ignore unknown keys,
// so fields can be added without breaking calls already in flight.
const Version = 1

// VersionKey is the query parameter holding the encoding version.
const VersionKey = "v"

var (
	// ErrUnsupportedVersion is returned for continuations written by a newer encoder.
	ErrUnsupportedVersion = errors.New("unsupported continuation version")
	// ErrMissingParam is returned when a required value is absent.
	ErrMissingParam = errors.New("missing continuation parameter")
	// ErrInvalidParam is returned when a value cannot be decoded.
	ErrInvalidParam = errors.New("invalid continuation parameter")
)

// Continuation names the endpoint that receives the next callback and the values it needs.
type Continuation struct {
	Endpoint string
	Values   map[string]string
}

// New creates a continuation targeting endpoint.
func New(endpoint string) Continuation {
	return Continuation{Endpoint: endpoint, Values: map[string]string{}}
}

// With returns a copy of c with key set to value.
func (c Continuation) With(key, value string) Continuation {
	values := make(map[string]string, len(c.Values)+1)
	maps.Copy(values, c.Values)
	values[key] = value
	return Continuation{Endpoint: c.Endpoint, Values: values}
}

// WithFloat stores f as a decimal string with no precision loss.
func (c Continuation) WithFloat(key string, f float64) Continuation {
	return c.With(key, FormatFloat(f))
}

// WithJSON stores v as a JSON document.
func (c Continuation) WithJSON(key string, v any) (Continuation, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return c, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.With(key, string(data)), nil
}

// Query returns the encoded query string, keys sorted, version included.
func (c Continuation) Query() string {
	q := make(url.Values, len(c.Values)+1)
	for k, v := range c.Values {
		q.Set(k, v)
	}
	q.Set(VersionKey, strconv.Itoa(Version))
	return q.Encode()
}

// URL joins base and the endpoint and appends the encoded values.
// An empty base yields a relative URL.
func (c Continuation) URL(base string) string {
	return strings.TrimRight(base, "/") + c.Endpoint + "?" + c.Query()
}

// FormatFloat renders f in the shortest decimal form that parses back to f.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Params are the values decoded from an inbound callback.
type Params map[string]string

// Decode reads continuation values from a query string.
// A missing version is treated as the first version.
func Decode(query url.Values) (Params, error) {
	if raw := query.Get(VersionKey); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParam, raw)
		}
		if v > Version {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
	}

	p := make(Params, len(query))
	for k := range query {
		if k == VersionKey {
			continue
		}
		p[k] = query.Get(k)
	}
	return p, nil
}

// String returns a required value.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}

// Float returns a required decimal value.
func (p Params) Float(key string) (float64, error) {
	raw, err := p.String(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, key, raw)
	}
	return f, nil
}

// JSON decodes a required JSON value into v.
func (p Params) JSON(key string, v any) error {
	raw, err := p.String(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidParam, key, err)
	}
	return nil
}
