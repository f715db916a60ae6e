package tripgeo

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/s2"
)

//go:embed gazetteer-data
var gazetteerData embed.FS

const (
	destinationsFile = "gazetteer-data/destinations.tsv"
	translationsFile = "gazetteer-data/translations.tsv"
)

// s2CellLevel gives ~150km cells. The bundled set is sparse, so Nearest
// needs coarse cells for the neighbour scan to reach the distance cutoff.
const s2CellLevel = 6

// maxNearestDistance is ~100km in radians on the unit sphere.
const maxNearestDistance = 0.0157

// GazetteerEntry is one bundled destination. Entries never change after
// loading; accessors return copies.
type GazetteerEntry struct {
	Name          string
	Country       string
	Kind          Kind
	Coordinates   *Coordinates
	BaseRelevance float64
	Aliases       map[string][]string // language code -> alias forms
}

func (e GazetteerEntry) clone() GazetteerEntry {
	c := e
	if e.Coordinates != nil {
		cc := *e.Coordinates
		c.Coordinates = &cc
	}
	if e.Aliases != nil {
		c.Aliases = make(map[string][]string, len(e.Aliases))
		for lang, list := range e.Aliases {
			c.Aliases[lang] = append([]string(nil), list...)
		}
	}
	return c
}

// ID returns the synthesized identifier used for fallback places.
func (e GazetteerEntry) ID() string {
	return "fallback-" + e.Name + "-" + e.Country
}

// Place converts the entry to a Place with the given relevance.
func (e GazetteerEntry) Place(relevance float64) Place {
	p := Place{
		ID:          e.ID(),
		Name:        e.Name,
		DisplayName: e.Name,
		Country:     e.Country,
		Kind:        e.Kind,
		Relevance:   relevance,
		Source:      SourceFallback,
	}
	if e.Country != "" {
		p.DisplayName = e.Name + ", " + e.Country
	}
	if e.Coordinates != nil {
		c := *e.Coordinates
		p.Coordinates = &c
		p.Geohash = placeGeohash(p.Coordinates)
	}
	return p
}

// Gazetteer is the bundled multilingual destination dataset together with
// its English → alias translation table. Safe for concurrent use.
type Gazetteer struct {
	entries         []GazetteerEntry
	lowerNames      []string
	lowerCountries  []string
	lowerAliases    [][]string // per entry, all languages flattened in sorted language order
	translations    map[string][]string
	translationKeys []string // sorted, for deterministic expansion
	cellIndex       map[s2.CellID][]int
}

// NewGazetteer builds a gazetteer from entries and a translation table.
// Keys of translations are matched lower-cased.
func NewGazetteer(entries []GazetteerEntry, translations map[string][]string) *Gazetteer {
	g := &Gazetteer{
		entries:      make([]GazetteerEntry, len(entries)),
		translations: make(map[string][]string, len(translations)),
	}
	for i, e := range entries {
		g.entries[i] = e.clone()
	}
	for k, v := range translations {
		key := toLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		g.translations[key] = append(g.translations[key], v...)
		g.translationKeys = append(g.translationKeys, key)
	}
	sort.Strings(g.translationKeys)
	g.translationKeys = dedupeSorted(g.translationKeys)

	g.buildIndexes()
	return g
}

func (g *Gazetteer) buildIndexes() {
	g.lowerNames = make([]string, len(g.entries))
	g.lowerCountries = make([]string, len(g.entries))
	g.lowerAliases = make([][]string, len(g.entries))
	g.cellIndex = make(map[s2.CellID][]int)

	for i, e := range g.entries {
		g.lowerNames[i] = toLower(e.Name)
		g.lowerCountries[i] = toLower(e.Country)

		langs := make([]string, 0, len(e.Aliases))
		for lang := range e.Aliases {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			for _, a := range e.Aliases[lang] {
				if a = strings.TrimSpace(a); a != "" {
					g.lowerAliases[i] = append(g.lowerAliases[i], toLower(a))
				}
			}
		}

		if e.Coordinates != nil {
			ll := s2.LatLngFromDegrees(e.Coordinates.Latitude, e.Coordinates.Longitude)
			cell := s2.CellIDFromLatLng(ll).Parent(s2CellLevel)
			g.cellIndex[cell] = append(g.cellIndex[cell], i)
		}
	}
}

func dedupeSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// Singleton for the embedded dataset.
var (
	defaultGazetteer     *Gazetteer
	defaultGazetteerOnce sync.Once
	defaultGazetteerErr  error
)

// DefaultGazetteer returns the embedded dataset, parsing it on first call.
func DefaultGazetteer() (*Gazetteer, error) {
	defaultGazetteerOnce.Do(func() {
		defaultGazetteer, defaultGazetteerErr = LoadGazetteer()
	})
	return defaultGazetteer, defaultGazetteerErr
}

// LoadGazetteer parses the embedded data files into a new Gazetteer.
func LoadGazetteer() (*Gazetteer, error) {
	df, err := gazetteerData.Open(destinationsFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", destinationsFile, err)
	}
	defer df.Close()
	entries, err := parseDestinations(df)
	if err != nil {
		return nil, fmt.Errorf("loading destinations: %w", err)
	}

	tf, err := gazetteerData.Open(translationsFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", translationsFile, err)
	}
	defer tf.Close()
	translations, err := parseTranslations(tf)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	return NewGazetteer(entries, translations), nil
}

// parseDestinations reads tab separated destination records:
//
//	name  country  kind  lat  lon  baseRelevance  lang=alias|alias;lang=alias
//
// Empty lat/lon leave the entry without coordinates.
func parseDestinations(r io.Reader) ([]GazetteerEntry, error) {
	var entries []GazetteerEntry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		t := scanner.Text()
		if strings.TrimSpace(t) == "" || t[0] == '#' {
			continue
		}

		fields := strings.Split(t, "\t")
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: want at least 6 fields, got %d", line, len(fields))
		}

		e := GazetteerEntry{
			Name:    strings.TrimSpace(fields[0]),
			Country: strings.TrimSpace(fields[1]),
			Kind:    Kind(strings.TrimSpace(fields[2])),
		}
		if e.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("line %d: unknown kind %q", line, fields[2])
		}

		if fields[3] != "" || fields[4] != "" {
			lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
			lng, errLng := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
			if errLat != nil || errLng != nil || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
				return nil, fmt.Errorf("line %d: invalid coordinates %q,%q", line, fields[3], fields[4])
			}
			e.Coordinates = &Coordinates{Latitude: lat, Longitude: lng}
		}

		base, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
		if err != nil || base < 0 {
			return nil, fmt.Errorf("line %d: invalid base relevance %q", line, fields[5])
		}
		e.BaseRelevance = base

		if len(fields) > 6 {
			e.Aliases = parseAliases(fields[6])
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseAliases(s string) map[string][]string {
	aliases := make(map[string][]string)
	for _, group := range strings.Split(s, ";") {
		lang, list, ok := strings.Cut(group, "=")
		lang = strings.TrimSpace(lang)
		if !ok || lang == "" {
			continue
		}
		for _, a := range strings.Split(list, "|") {
			if a = strings.TrimSpace(a); a != "" {
				aliases[lang] = append(aliases[lang], a)
			}
		}
	}
	return aliases
}

// parseTranslations reads "english key<TAB>alias|alias" records.
func parseTranslations(r io.Reader) (map[string][]string, error) {
	translations := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		t := scanner.Text()
		if strings.TrimSpace(t) == "" || t[0] == '#' {
			continue
		}
		key, list, ok := strings.Cut(t, "\t")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("line %d: want key<TAB>aliases", line)
		}
		key = toLower(strings.TrimSpace(key))
		for _, a := range strings.Split(list, "|") {
			if a = strings.TrimSpace(a); a != "" {
				translations[key] = append(translations[key], a)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return translations, nil
}

// Len returns the number of entries.
func (g *Gazetteer) Len() int { return len(g.entries) }

// Entries returns a copy of every entry in dataset order.
func (g *Gazetteer) Entries() []GazetteerEntry {
	out := make([]GazetteerEntry, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.clone()
	}
	return out
}

// Translations returns the alias forms registered for an English key.
func (g *Gazetteer) Translations(key string) []string {
	return append([]string(nil), g.translations[toLower(strings.TrimSpace(key))]...)
}

// ByCountry returns the cities of a country, by base relevance. The
// country may be given as stored or as an English name from the
// translation table ("Japan" finds "일본").
func (g *Gazetteer) ByCountry(country string) []GazetteerEntry {
	q := toLower(strings.TrimSpace(country))
	if q == "" {
		return nil
	}
	names := map[string]bool{q: true}
	for _, t := range g.expandTerms(q)[1:] {
		names[t] = true
	}

	var idx []int
	for i, e := range g.entries {
		if e.Kind == KindCity && names[g.lowerCountries[i]] {
			idx = append(idx, i)
		}
	}
	return g.byBaseRelevance(idx, 0)
}

// Popular returns the n cities with the highest base relevance.
func (g *Gazetteer) Popular(n int) []GazetteerEntry {
	var idx []int
	for i, e := range g.entries {
		if e.Kind == KindCity {
			idx = append(idx, i)
		}
	}
	return g.byBaseRelevance(idx, n)
}

// byBaseRelevance sorts entry indexes by base relevance, keeping dataset
// order for ties, and returns up to n copies (n <= 0 means all).
func (g *Gazetteer) byBaseRelevance(idx []int, n int) []GazetteerEntry {
	sort.SliceStable(idx, func(a, b int) bool {
		return g.entries[idx[a]].BaseRelevance > g.entries[idx[b]].BaseRelevance
	})
	if n > 0 && len(idx) > n {
		idx = idx[:n]
	}
	out := make([]GazetteerEntry, len(idx))
	for i, j := range idx {
		out[i] = g.entries[j].clone()
	}
	return out
}

// Nearest returns the entry closest to the given point, if one lies within
// ~100km.
func (g *Gazetteer) Nearest(lat, lng float64) (GazetteerEntry, bool) {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return GazetteerEntry{}, false
	}

	queryLL := s2.LatLngFromDegrees(lat, lng)
	queryCell := s2.CellIDFromLatLng(queryLL).Parent(s2CellLevel)

	best, bestDist := -1, math.Inf(1)
	for _, cell := range cellAndNeighbors(queryCell) {
		for _, i := range g.cellIndex[cell] {
			c := g.entries[i].Coordinates
			d := float64(queryLL.Distance(s2.LatLngFromDegrees(c.Latitude, c.Longitude)))
			if d < bestDist || (d == bestDist && i < best) {
				best, bestDist = i, d
			}
		}
	}
	if best < 0 || bestDist > maxNearestDistance {
		return GazetteerEntry{}, false
	}
	return g.entries[best].clone(), true
}

// cellAndNeighbors returns the given cell plus its eight surrounding cells.
func cellAndNeighbors(cell s2.CellID) []s2.CellID {
	cells := make([]s2.CellID, 0, 9)
	cells = append(cells, cell)
	seen := map[s2.CellID]bool{cell: true}

	edges := cell.EdgeNeighbors()
	for _, e := range edges {
		if !seen[e] {
			cells = append(cells, e)
			seen[e] = true
		}
	}
	for _, e := range edges {
		for _, corner := range e.EdgeNeighbors() {
			if !seen[corner] {
				cells = append(cells, corner)
				seen[corner] = true
			}
		}
	}
	return cells
}
