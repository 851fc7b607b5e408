package continuation

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_RelativeAndAbsolute(t *testing.T) {
	c := New("/location/mode").With("origin", "123,321")

	assert.Equal(t, "/location/mode?origin=123%2C321&v=1", c.URL(""))
	assert.Equal(t, "https://calls.example.com/location/mode?origin=123%2C321&v=1", c.URL("https://calls.example.com/"))
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	base := New("/x").With("a", "1")
	next := base.With("b", "2")

	assert.Len(t, base.Values, 1)
	assert.Len(t, next.Values, 2)
}

func TestRoundTrip(t *testing.T) {
	type item struct {
		ID   string  `json:"id"`
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
	}
	items := []item{
		{ID: "089458082", Name: "Wilton & Sons", Lat: -34.2406},
		{ID: "089458092", Name: "O'Connor St?", Lat: 151.000000001},
	}

	c, err := New("/location/selection").
		WithFloat("lat", -33.86881234567891).
		WithFloat("whole", 42).
		With("text", "a b&c=d/é").
		WithJSON("items", items)
	require.NoError(t, err)

	u, err := url.Parse(c.URL("https://calls.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "/location/selection", u.Path)

	p, err := Decode(u.Query())
	require.NoError(t, err)

	lat, err := p.Float("lat")
	require.NoError(t, err)
	assert.Equal(t, -33.86881234567891, lat)

	whole, err := p.String("whole")
	require.NoError(t, err)
	assert.Equal(t, "42", whole)

	text, err := p.String("text")
	require.NoError(t, err)
	assert.Equal(t, "a b&c=d/é", text)

	var decoded []item
	require.NoError(t, p.JSON("items", &decoded))
	assert.Equal(t, items, decoded)

	_, hasVersion := p[VersionKey]
	assert.False(t, hasVersion)
}

func TestFormatFloat_Exact(t *testing.T) {
	for _, f := range []float64{0, -0.5, 123.456, math.Pi, -151.20929999999998, 1e-7} {
		s := FormatFloat(f)
		p := Params{"f": s}
		got, err := p.Float("f")
		require.NoError(t, err)
		assert.Equal(t, f, got, s)
	}
}

func TestDecode_Versions(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{"Current", "v=1&a=b", nil},
		{"Missing version", "a=b", nil},
		{"Future version", "v=2&a=b", ErrUnsupportedVersion},
		{"Garbage version", "v=x&a=b", ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p, err := Decode(q)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "b", p["a"])
		})
	}
}

func TestDecode_IgnoresUnknownKeys(t *testing.T) {
	q, err := url.ParseQuery("v=1&origin=1%2C2&added_later=yes")
	require.NoError(t, err)

	p, err := Decode(q)
	require.NoError(t, err)

	origin, err := p.String("origin")
	require.NoError(t, err)
	assert.Equal(t, "1,2", origin)
}

func TestParams_Errors(t *testing.T) {
	p := Params{"f": "abc", "j": "{", "empty": ""}

	_, err := p.String("nope")
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = p.String("empty")
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = p.Float("f")
	assert.ErrorIs(t, err, ErrInvalidParam)

	var v any
	assert.ErrorIs(t, p.JSON("j", &v), ErrInvalidParam)
}
