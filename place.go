package tripgeo

import (
	geohash "github.com/TomiHiltunen/geohash-golang"
)

// Kind is the closed set of place categories a resolution can return.
type Kind string

const (
	KindCity     Kind = "city"
	KindAirport  Kind = "airport"
	KindStation  Kind = "station"
	KindLocation Kind = "location"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCity, KindAirport, KindStation, KindLocation:
		return true
	}
	return false
}

// Source tells where a Place came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NewCoordinates returns a pointer so callers can pass optional hints inline.
func NewCoordinates(latitude, longitude float64) *Coordinates {
	return &Coordinates{Latitude: latitude, Longitude: longitude}
}

// Place is a resolved location. Relevance is only comparable within one
// result set.
type Place struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name,omitempty"`
	Country     string       `json:"country"`
	Kind        Kind         `json:"kind"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Relevance   float64      `json:"relevance"`
	Source      Source       `json:"source"`
	Geohash     string       `json:"geohash,omitempty"`
}

// geohashPrecision is ~150m cells, fine enough to cluster airport terminals.
const geohashPrecision = 7

// placeGeohash returns the truncated geohash for c, or "" without coordinates.
func placeGeohash(c *Coordinates) string {
	if c == nil {
		return ""
	}
	h := geohash.Encode(c.Latitude, c.Longitude)
	if len(h) > geohashPrecision {
		h = h[:geohashPrecision]
	}
	return h
}
