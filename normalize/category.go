package normalize

import (
	"sort"
	"strings"
)

// Global fallback slugs used when a source's default slug is absent from
// the taxonomy.
const (
	FallbackTrailers = "trailers"
	FallbackTrucks   = "trucks"
)

type categoryKeyword struct {
	keyword string
	slug    string
}

// categoryKeywords maps free-text category phrases to taxonomy slugs.
// Matched longest-keyword-first so "drop deck" beats "deck". Multi-word
// phrases carry a hyphenated twin so slug-shaped input ("drop-deck-trailers")
// lands on its own slug instead of the generic one.
var categoryKeywords = []categoryKeyword{
	{"lowboy", "lowboy-trailers"},
	{"low boy", "lowboy-trailers"},
	{"low-boy", "lowboy-trailers"},
	{"drop deck", "drop-deck-trailers"},
	{"drop-deck", "drop-deck-trailers"},
	{"step deck", "drop-deck-trailers"},
	{"step-deck", "drop-deck-trailers"},
	{"flatbed", "flatbed-trailers"},
	{"flat bed", "flatbed-trailers"},
	{"flat-bed", "flatbed-trailers"},
	{"dry van", "dry-van-trailers"},
	{"dry-van", "dry-van-trailers"},
	{"reefer", "reefer-trailers"},
	{"refrigerated", "reefer-trailers"},
	{"tanker", "tanker-trailers"},
	{"tank trailer", "tanker-trailers"},
	{"tank-trailer", "tanker-trailers"},
	{"dump trailer", "dump-trailers"},
	{"dump-trailer", "dump-trailers"},
	{"end dump", "dump-trailers"},
	{"end-dump", "dump-trailers"},
	{"hopper", "hopper-trailers"},
	{"grain trailer", "hopper-trailers"},
	{"grain-trailer", "hopper-trailers"},
	{"car hauler", "car-hauler-trailers"},
	{"car-hauler", "car-hauler-trailers"},
	{"gooseneck", "gooseneck-trailers"},
	{"utility trailer", "utility-trailers"},
	{"utility-trailer", "utility-trailers"},
	{"sleeper", "sleeper-trucks"},
	{"day cab", "day-cab-trucks"},
	{"day-cab", "day-cab-trucks"},
	{"daycab", "day-cab-trucks"},
	{"box truck", "box-trucks"},
	{"box-truck", "box-trucks"},
	{"dump truck", "dump-trucks"},
	{"dump-truck", "dump-trucks"},
	{"semi truck", "semi-trucks"},
	{"semi-truck", "semi-trucks"},
	{"excavator", "excavators"},
	{"loader", "loaders"},
	{"bulldozer", "bulldozers"},
	{"dozer", "bulldozers"},
	{"crane", "cranes"},
	{"trailer", "trailers"},
	{"truck", "trucks"},
}

var keywordsByLength []categoryKeyword

func init() {
	keywordsByLength = append(keywordsByLength, categoryKeywords...)
	sort.SliceStable(keywordsByLength, func(i, j int) bool {
		return len(keywordsByLength[i].keyword) > len(keywordsByLength[j].keyword)
	})
}

// CategorySlug resolves free text (title and/or description) to a taxonomy
// slug. When no keyword matches it falls back to the source's default slug,
// and to the global fallback when the default is absent from the taxonomy.
// inTaxonomy may be nil, in which case the default slug is trusted.
func CategorySlug(text, defaultSlug, globalSlug string, inTaxonomy func(string) bool) string {
	lower := strings.ToLower(text)
	for _, e := range keywordsByLength {
		if strings.Contains(lower, e.keyword) {
			return e.slug
		}
	}
	if defaultSlug != "" && (inTaxonomy == nil || inTaxonomy(defaultSlug)) {
		return defaultSlug
	}
	if globalSlug != "" {
		return globalSlug
	}
	return FallbackTrailers
}
