package tripgeo

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// SearchLimit caps full searches of the gazetteer.
	SearchLimit = 10
	// AutocompleteLimit caps autocomplete suggestions.
	AutocompleteLimit = 5
	// MinAutocompleteLen is the shortest prefix, in runes, autocomplete acts on.
	MinAutocompleteLen = 2

	// maxQueryLen bounds queries before matching; it keeps Levenshtein
	// work small for pathological inputs.
	maxQueryLen = 256

	// maxFuzzyDistance caps SearchOptions.FuzzyDistance.
	maxFuzzyDistance = 3
)

// Additive score bonuses.
const (
	bonusNameExact     = 50
	bonusNamePrefix    = 30
	bonusNameContains  = 20
	bonusCountry       = 10
	bonusAliasExact    = 40
	bonusAliasPrefix   = 25
	bonusAliasContains = 15
	bonusFuzzyPerSlack = 10
)

// SearchOptions tunes a gazetteer search.
type SearchOptions struct {
	Kind          Kind // Only return entries of this kind ("" = any)
	Limit         int  // Result cap (default SearchLimit)
	FuzzyDistance int  // Typo tolerance used when nothing matches directly (0 = disabled)
}

// Match is a gazetteer entry with its score for one query.
type Match struct {
	Entry GazetteerEntry
	Score float64
}

// Place converts the match to a Place carrying the score as relevance.
func (m Match) Place() Place {
	return m.Entry.Place(m.Score)
}

// Places converts matches in order.
func Places(matches []Match) []Place {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Place, len(matches))
	for i, m := range matches {
		out[i] = m.Place()
	}
	return out
}

type scored struct {
	idx   int
	score float64
}

// Search returns the entries matching query, best first.
func (g *Gazetteer) Search(query string) []Match {
	return g.SearchWithOptions(query, SearchOptions{})
}

// SearchWithOptions is Search with a kind filter, a custom cap and
// optional typo tolerance.
func (g *Gazetteer) SearchWithOptions(query string, opts SearchOptions) []Match {
	return g.search(query, opts, false)
}

// Autocomplete suggests entries whose name or an alias starts with prefix.
// Prefixes shorter than MinAutocompleteLen runes yield nothing.
func (g *Gazetteer) Autocomplete(prefix string) []Match {
	if utf8.RuneCountInString(strings.TrimSpace(prefix)) < MinAutocompleteLen {
		return nil
	}
	return g.search(prefix, SearchOptions{Limit: AutocompleteLimit}, true)
}

// Airports searches airports only. An empty query lists every airport.
func (g *Gazetteer) Airports(query string) []Match {
	return g.searchKind(query, KindAirport)
}

// Stations searches stations only. An empty query lists every station.
func (g *Gazetteer) Stations(query string) []Match {
	return g.searchKind(query, KindStation)
}

func (g *Gazetteer) searchKind(query string, kind Kind) []Match {
	if strings.TrimSpace(query) != "" {
		return g.search(query, SearchOptions{Kind: kind}, false)
	}
	var idx []int
	for i, e := range g.entries {
		if e.Kind == kind {
			idx = append(idx, i)
		}
	}
	var out []Match
	for _, e := range g.byBaseRelevance(idx, 0) {
		out = append(out, Match{Entry: e, Score: e.BaseRelevance})
	}
	return out
}

func (g *Gazetteer) search(query string, opts SearchOptions, prefixOnly bool) []Match {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = SearchLimit
	}

	terms := g.expandTerms(q)
	var hits []scored
	for i, e := range g.entries {
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if prefixOnly && !g.hasPrefixHit(i, terms) {
			continue
		}
		if s, ok := g.score(i, q, terms); ok {
			hits = append(hits, scored{idx: i, score: s})
		}
	}

	if len(hits) == 0 && opts.FuzzyDistance > 0 && !prefixOnly {
		hits = g.fuzzyHits(q, opts)
	}
	return g.rank(hits, limit)
}

// expandTerms returns q followed by the alias forms of every translation
// key q contains. Only keys in the curated table expand.
func (g *Gazetteer) expandTerms(q string) []string {
	terms := []string{q}
	seen := map[string]bool{q: true}
	for _, key := range g.translationKeys {
		if !strings.Contains(q, key) {
			continue
		}
		for _, a := range g.translations[key] {
			a = toLower(a)
			if !seen[a] {
				seen[a] = true
				terms = append(terms, a)
			}
		}
	}
	return terms
}

// score applies the additive scoring rules to entry i. The bool reports
// whether the entry matched at all.
func (g *Gazetteer) score(i int, q string, terms []string) (float64, bool) {
	matched := false
	s := g.entries[i].BaseRelevance

	name := g.lowerNames[i]
	switch {
	case name == q:
		s += bonusNameExact
		matched = true
	case strings.HasPrefix(name, q):
		s += bonusNamePrefix
		matched = true
	case strings.Contains(name, q):
		s += bonusNameContains
		matched = true
	}

	if g.lowerCountries[i] != "" && strings.Contains(g.lowerCountries[i], q) {
		s += bonusCountry
		matched = true
	}

	for _, t := range terms {
		for _, a := range g.lowerAliases[i] {
			switch {
			case a == t:
				s += bonusAliasExact
				matched = true
			case strings.HasPrefix(a, t):
				s += bonusAliasPrefix
				matched = true
			case strings.Contains(a, t):
				s += bonusAliasContains
				matched = true
			}
		}
	}
	return s, matched
}

func (g *Gazetteer) hasPrefixHit(i int, terms []string) bool {
	if strings.HasPrefix(g.lowerNames[i], terms[0]) {
		return true
	}
	for _, t := range terms {
		for _, a := range g.lowerAliases[i] {
			if strings.HasPrefix(a, t) {
				return true
			}
		}
	}
	return false
}

// fuzzyHits scores entries whose name or an alias lies within the allowed
// edit distance of q.
func (g *Gazetteer) fuzzyHits(q string, opts SearchOptions) []scored {
	maxDist := min(opts.FuzzyDistance, maxFuzzyDistance)
	if utf8.RuneCountInString(q) <= maxDist {
		return nil
	}

	var hits []scored
	for i, e := range g.entries {
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		best := levenshtein.ComputeDistance(q, g.lowerNames[i])
		for _, a := range g.lowerAliases[i] {
			if d := levenshtein.ComputeDistance(q, a); d < best {
				best = d
			}
		}
		if best <= maxDist {
			hits = append(hits, scored{
				idx:   i,
				score: e.BaseRelevance + float64(bonusFuzzyPerSlack*(maxDist+1-best)),
			})
		}
	}
	return hits
}

// rank orders hits by score, keeping dataset order for ties.
func (g *Gazetteer) rank(hits []scored, limit int) []Match {
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if len(hits) == 0 {
		return nil
	}
	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{Entry: g.entries[h.idx].clone(), Score: h.score}
	}
	return out
}

// normalizeQuery trims, bounds and lower-cases a query.
func normalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) > maxQueryLen {
		q = string([]rune(q)[:maxQueryLen])
	}
	return toLower(q)
}

// toLower is Unicode aware; the dataset mixes Hangul, kana, Han and
// accented Latin names.
func toLower(s string) string {
	return strings.ToLower(s)
}
