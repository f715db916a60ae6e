package tripgeo

import (
	"sort"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// nearbyDecayPerKm turns distance into a relevance bonus:
// max(0, nearbyMaxBonus - km*nearbyDecayPerKm).
const (
	nearbyMaxBonus   = 10.0
	nearbyDecayPerKm = 1.0 / 1000
)

// DistanceKm returns the great-circle distance between a and b.
// s2.LatLng.Distance uses the haversine formula.
func DistanceKm(a, b Coordinates) float64 {
	la := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	lb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return la.Distance(lb).Radians() * EarthRadiusKm
}

// distanceBonus is the proximity term added to a place's relevance.
func distanceBonus(km float64) float64 {
	return max(0, nearbyMaxBonus-km*nearbyDecayPerKm)
}

// RankNearby re-ranks places around origin: each relevance gets the
// distance bonus added, then places are sorted by the blended score.
// Places without coordinates keep their relevance. The input is not
// modified.
func RankNearby(origin Coordinates, places []Place) []Place {
	out := make([]Place, len(places))
	copy(out, places)
	for i := range out {
		if out[i].Coordinates != nil {
			out[i].Relevance += distanceBonus(DistanceKm(origin, *out[i].Coordinates))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Relevance > out[b].Relevance
	})
	return out
}
