package tripgeo

import (
	"strings"
	"testing"
)

func TestDefaultGazetteerLoads(t *testing.T) {
	g, err := DefaultGazetteer()
	if err != nil {
		t.Fatalf("DefaultGazetteer: %v", err)
	}
	if g.Len() < minGazetteerEntries {
		t.Errorf("Len = %d, want >= %d", g.Len(), minGazetteerEntries)
	}
	again, _ := DefaultGazetteer()
	if again != g {
		t.Error("DefaultGazetteer should return the same instance")
	}
	if got := g.Translations("Tokyo"); len(got) == 0 || got[0] != "도쿄" {
		t.Errorf("Translations(Tokyo) = %v", got)
	}
}

func TestParseDestinations(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"서울\t대한민국\tcity\t37.5665\t126.9780\t10\tko=서울특별시;en=Seoul|Seoul City",
		"어딘가\t\tlocation\t\t\t0",
	}, "\n")

	entries, err := parseDestinations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseDestinations: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	seoul := entries[0]
	if seoul.Name != "서울" || seoul.Country != "대한민국" || seoul.Kind != KindCity || seoul.BaseRelevance != 10 {
		t.Errorf("seoul = %+v", seoul)
	}
	if seoul.Coordinates == nil || seoul.Coordinates.Latitude != 37.5665 {
		t.Errorf("coordinates = %+v", seoul.Coordinates)
	}
	if got := strings.Join(seoul.Aliases["en"], ","); got != "Seoul,Seoul City" {
		t.Errorf("en aliases = %q", got)
	}

	if entries[1].Coordinates != nil || entries[1].Country != "" {
		t.Errorf("degenerate entry = %+v", entries[1])
	}
}

func TestParseDestinationsErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "서울\t대한민국\tcity"},
		{"empty name", "\t대한민국\tcity\t1\t2\t3"},
		{"unknown kind", "서울\t대한민국\tharbour\t1\t2\t3"},
		{"bad latitude", "서울\t대한민국\tcity\tnorth\t2\t3"},
		{"out of range", "서울\t대한민국\tcity\t91\t2\t3"},
		{"half coordinates", "서울\t대한민국\tcity\t37.5\t\t3"},
		{"negative base", "서울\t대한민국\tcity\t1\t2\t-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseDestinations(strings.NewReader(tt.line)); err == nil {
				t.Errorf("parseDestinations(%q) succeeded", tt.line)
			}
		})
	}
}

func TestParseTranslations(t *testing.T) {
	got, err := parseTranslations(strings.NewReader("# header\nTokyo\t도쿄| 東京 |\nparis\t파리\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got["tokyo"], ",") != "도쿄,東京" {
		t.Errorf("tokyo = %v", got["tokyo"])
	}
	if strings.Join(got["paris"], ",") != "파리" {
		t.Errorf("paris = %v", got["paris"])
	}

	if _, err := parseTranslations(strings.NewReader("no tab here\n")); err == nil {
		t.Error("line without a tab should fail")
	}
}

func TestEntriesAreCopies(t *testing.T) {
	g := NewGazetteer([]GazetteerEntry{{
		Name:        "서울",
		Country:     "대한민국",
		Kind:        KindCity,
		Coordinates: &Coordinates{Latitude: 37.5665, Longitude: 126.978},
		Aliases:     map[string][]string{"en": {"Seoul"}},
	}}, nil)

	e := g.Entries()[0]
	e.Coordinates.Latitude = 0
	e.Aliases["en"][0] = "changed"

	again := g.Entries()[0]
	if again.Coordinates.Latitude != 37.5665 || again.Aliases["en"][0] != "Seoul" {
		t.Errorf("gazetteer entry was mutated through a copy: %+v", again)
	}
}

func TestFallbackPlaceRoundTrip(t *testing.T) {
	g, err := DefaultGazetteer()
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range g.Entries() {
		p := e.Place(e.BaseRelevance)
		if p.Name != e.Name || p.Country != e.Country || p.Kind != e.Kind {
			t.Errorf("%s: place = %+v", e.Name, p)
		}
		if p.ID != "fallback-"+e.Name+"-"+e.Country {
			t.Errorf("%s: id = %q", e.Name, p.ID)
		}
		if p.Source != SourceFallback {
			t.Errorf("%s: source = %q", e.Name, p.Source)
		}
		if e.Coordinates != nil && (p.Coordinates == nil || *p.Coordinates != *e.Coordinates) {
			t.Errorf("%s: coordinates %+v, want %+v", e.Name, p.Coordinates, e.Coordinates)
		}
	}

	bare := GazetteerEntry{Name: "어딘가", Kind: KindLocation}.Place(0)
	if bare.Coordinates != nil || bare.Geohash != "" || bare.DisplayName != "어딘가" {
		t.Errorf("bare place = %+v", bare)
	}
}

func TestNearest(t *testing.T) {
	g, err := DefaultGazetteer()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		lat, lng float64
		want     string
	}{
		{"central seoul", 37.57, 126.98, "서울"},
		{"paris", 48.86, 2.35, "파리"},
		{"tokyo", 35.68, 139.65, "도쿄"},
		{"narita", 35.77, 140.39, "나리타국제공항"},
		{"new york", 40.71, -74.0, "뉴욕"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := g.Nearest(tt.lat, tt.lng)
			if !ok || e.Name != tt.want {
				t.Errorf("Nearest(%v, %v) = %q, %v; want %q", tt.lat, tt.lng, e.Name, ok, tt.want)
			}
		})
	}

	// Middle of the Pacific.
	if e, ok := g.Nearest(0, -160); ok {
		t.Errorf("Nearest(ocean) = %q, want nothing", e.Name)
	}
}
