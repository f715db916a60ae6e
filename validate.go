package tripgeo

import (
	"fmt"
	"io"
)

// Validation thresholds for the embedded gazetteer.
const (
	minGazetteerEntries = 50
	minAirports         = 10
	minStations         = 5
)

// validationQuery is a query whose top fallback answer is known.
type validationQuery struct {
	query       string
	wantName    string
	wantCountry string
}

// knownQueries cover the Korean canonical names, English alias expansion
// and the kind filters.
var knownQueries = []validationQuery{
	{"서울", "서울", "대한민국"},
	{"tokyo", "도쿄", "일본"},
	{"파리", "파리", "프랑스"},
	{"Osaka", "오사카", "일본"},
	{"バンコク", "방콕", "태국"},
	{"首尔", "서울", "대한민국"},
}

// knownPoints are coordinates whose nearest bundled destination is known.
var knownPoints = []struct {
	lat, lng float64
	wantName string
}{
	{37.57, 126.98, "서울"},
	{48.86, 2.35, "파리"},
	{35.68, 139.65, "도쿄"},
}

// ValidateGazetteer loads the embedded dataset and runs integrity and
// functional checks, writing progress to w.
func ValidateGazetteer(w io.Writer) error {
	g, err := LoadGazetteer()
	if err != nil {
		return fmt.Errorf("failed to load gazetteer: %w", err)
	}

	if g.Len() < minGazetteerEntries {
		return fmt.Errorf("entry count too low: got %d, want >= %d", g.Len(), minGazetteerEntries)
	}
	fmt.Fprintf(w, "      Entries: %d (OK)\n", g.Len())

	if n := len(g.Airports("")); n < minAirports {
		return fmt.Errorf("airport count too low: got %d, want >= %d", n, minAirports)
	}
	if n := len(g.Stations("")); n < minStations {
		return fmt.Errorf("station count too low: got %d, want >= %d", n, minStations)
	}
	fmt.Fprintf(w, "      Airports/stations: OK\n")

	seen := make(map[string]bool)
	for _, e := range g.entries {
		if seen[e.ID()] {
			return fmt.Errorf("duplicate entry id %q", e.ID())
		}
		seen[e.ID()] = true
		if e.Coordinates == nil {
			return fmt.Errorf("entry %q has no coordinates", e.Name)
		}
		if len(e.Aliases["en"]) == 0 {
			return fmt.Errorf("entry %q has no English alias", e.Name)
		}
	}

	fmt.Fprintf(w, "      Search: ")
	for _, tc := range knownQueries {
		matches := g.Search(tc.query)
		if len(matches) == 0 {
			return fmt.Errorf("search(%q) returned nothing", tc.query)
		}
		if top := matches[0].Entry; top.Name != tc.wantName || top.Country != tc.wantCountry {
			return fmt.Errorf("search(%q) = %s/%s, want %s/%s", tc.query, top.Name, top.Country, tc.wantName, tc.wantCountry)
		}
	}
	fmt.Fprintf(w, "%d queries OK\n", len(knownQueries))

	fmt.Fprintf(w, "      Nearest: ")
	for _, tc := range knownPoints {
		e, ok := g.Nearest(tc.lat, tc.lng)
		if !ok || e.Name != tc.wantName {
			return fmt.Errorf("nearest(%v, %v) = %q, want %q", tc.lat, tc.lng, e.Name, tc.wantName)
		}
	}
	fmt.Fprintf(w, "%d points OK\n", len(knownPoints))

	return nil
}
