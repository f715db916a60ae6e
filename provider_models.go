package tripgeo

import "strings"

// featureCollection is the geocoder response body.
// API Docs: https://docs.mapbox.com/api/search/geocoding-v5/
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         string   `json:"id"`
	PlaceType  []string `json:"place_type"`
	Relevance  float64  `json:"relevance"`
	Properties struct {
		Category string `json:"category"`
	} `json:"properties"`
	Text      string           `json:"text"`
	PlaceName string           `json:"place_name"`
	Center    []float64        `json:"center"` // [lng, lat]
	Context   []featureContext `json:"context"`
}

type featureContext struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}

// country returns the feature's country name from its context chain.
func (f feature) country() string {
	for _, c := range f.Context {
		if strings.HasPrefix(c.ID, "country.") {
			return c.Text
		}
	}
	for i := len(f.Context) - 1; i >= 0; i-- {
		if len(f.Context[i].ShortCode) == 2 {
			return f.Context[i].Text
		}
	}
	return ""
}

// toPlace normalizes a feature into the common Place shape.
func (f feature) toPlace() Place {
	p := Place{
		ID:          f.ID,
		Name:        f.Text,
		DisplayName: f.PlaceName,
		Country:     f.country(),
		Kind:        ClassifyKind(f.PlaceType, f.Properties.Category),
		Relevance:   max(0, f.Relevance),
		Source:      SourceRemote,
	}
	if len(f.Center) == 2 {
		p.Coordinates = &Coordinates{Latitude: f.Center[1], Longitude: f.Center[0]}
		p.Geohash = placeGeohash(p.Coordinates)
	}
	return p
}
