package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLatLng is returned when a coordinate pair cannot be parsed.
var ErrInvalidLatLng = errors.New("invalid coordinates")

// Payphone is a candidate produced by the payphone lookup. It is never modified by the dialog.
type Payphone struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Location returns the payphone's coordinates.
func (p Payphone) Location() LatLng {
	return LatLng{Lat: p.Latitude, Lng: p.Longitude}
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the pair as "lat,lng" using the shortest exact decimal form.
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// ParseLatLng parses the "lat,lng" form produced by LatLng.String.
// Whitespace around either value is ignored.
func ParseLatLng(s string) (LatLng, error) {
	latRaw, lngRaw, ok := strings.Cut(s, ",")
	if !ok {
		return LatLng{}, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}
