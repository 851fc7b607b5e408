package domain

import (
	"fmt"
	"time"
)

// TravelMode selects the kind of directions requested.
type TravelMode string

const (
	TravelModeWalking TravelMode = "walking"
	TravelModeTransit TravelMode = "transit"
)

// ModeForDigit maps the digit pressed at the mode prompt to a travel mode.
func ModeForDigit(digit string) (TravelMode, bool) {
	switch digit {
	case "1":
		return TravelModeWalking, true
	case "2":
		return TravelModeTransit, true
	default:
		return "", false
	}
}

// ParseTravelMode validates a mode carried between turns.
func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(s) {
	case TravelModeWalking, TravelModeTransit:
		return TravelMode(s), nil
	default:
		return "", fmt.Errorf("unknown travel mode %q", s)
	}
}

// DirectionsRequest is the input to a directions lookup.
type DirectionsRequest struct {
	Origin        LatLng
	Destination   string
	Mode          TravelMode
	DepartureTime time.Time
}

// Route is one way of getting from origin to destination.
type Route struct {
	Summary string `json:"summary,omitempty"`
	Legs    []Leg  `json:"legs"`
}

// Leg is the part of a route between two waypoints.
type Leg struct {
	Steps []Step `json:"steps"`
}

// Step is a single instruction. Transit is set for public transport steps;
// other steps carry HTML instructions.
type Step struct {
	TravelMode   string          `json:"travel_mode"`
	Instructions string          `json:"html_instructions,omitempty"`
	Duration     time.Duration   `json:"duration,omitempty"`
	Transit      *TransitDetails `json:"transit_details,omitempty"`
}

// TransitDetails describes a ride on a public transport line.
type TransitDetails struct {
	Line          string    `json:"line"`
	Vehicle       string    `json:"vehicle,omitempty"`
	DepartureStop string    `json:"departure_stop"`
	ArrivalStop   string    `json:"arrival_stop"`
	Headsign      string    `json:"headsign"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	NumStops      int       `json:"num_stops,omitempty"`
}
