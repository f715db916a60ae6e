package tripgeo

import (
	"strings"
	"unicode"
)

// kindRule maps a provider feature to a Kind when match returns true.
// Rules are evaluated in order; the first match wins.
type kindRule struct {
	name  string
	match func(placeTypes []string, category string) bool
	kind  Kind
}

// administrativeTypes are provider place types that denote a settlement or
// an administrative area.
var administrativeTypes = []string{"country", "region", "district", "place", "locality"}

var stationKeywords = []string{"station", "transit", "railway", "subway", "metro", "train", "bus"}

// kindRules is the provider taxonomy → Kind table.
var kindRules = []kindRule{
	{
		name: "poi-airport",
		match: func(types []string, category string) bool {
			return hasType(types, "poi") && hasWord(category, "airport", "aerodrome")
		},
		kind: KindAirport,
	},
	{
		name: "poi-station",
		match: func(types []string, category string) bool {
			return hasType(types, "poi") && hasWord(category, stationKeywords...)
		},
		kind: KindStation,
	},
	{
		name: "administrative",
		match: func(types []string, _ string) bool {
			for _, t := range administrativeTypes {
				if hasType(types, t) {
					return true
				}
			}
			return false
		},
		kind: KindCity,
	},
}

// ClassifyKind maps provider place types and an optional POI category
// (comma separated, as the geocoder sends it) to a Kind.
func ClassifyKind(placeTypes []string, category string) Kind {
	category = toLower(category)
	for _, r := range kindRules {
		if r.match(placeTypes, category) {
			return r.kind
		}
	}
	return KindLocation
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// hasWord reports whether any of words appears as a whole word of the
// category list; "business" does not match "bus".
func hasWord(category string, words ...string) bool {
	fields := strings.FieldsFunc(category, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
