package normalize

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	yearTokenRegex  = regexp.MustCompile(`^\s*(\d{4})\b`)
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// knownMakes is the fixed manufacturer list matched against titles.
// Matching is longest-first so "Western Star" wins over "Star" style overlaps.
var knownMakes = []string{
	"Freightliner",
	"Peterbilt",
	"Kenworth",
	"Volvo",
	"Mack",
	"International",
	"Western Star",
	"Ford",
	"Chevrolet",
	"Ram",
	"Hino",
	"Isuzu",
	"Utility",
	"Great Dane",
	"Wabash",
	"Hyundai Translead",
	"Hyundai",
	"Vanguard",
	"Stoughton",
	"Fontaine",
	"Trail King",
	"Fruehauf",
	"Dorsey",
	"Transcraft",
	"MAC Trailer",
	"East",
	"Reitnouer",
	"Wilson",
	"Timpte",
	"Talbert",
	"XL Specialized",
	"Landoll",
	"Caterpillar",
	"Komatsu",
	"John Deere",
	"Case",
	"Bobcat",
	"Kubota",
	"Hitachi",
	"Liebherr",
}

var makesByLength []string

func init() {
	makesByLength = append(makesByLength, knownMakes...)
	sort.Slice(makesByLength, func(i, j int) bool {
		return len(makesByLength[i]) > len(makesByLength[j])
	})
}

// Year extracts the leading 4-digit token of a title when it falls in a
// plausible model-year range. Absence is not an error.
func Year(title string) *int {
	m := yearTokenRegex.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	year := 0
	for _, c := range m[1] {
		year = year*10 + int(c-'0')
	}
	if !PlausibleYear(year) {
		return nil
	}
	return &year
}

// PlausibleYear reports whether v is a sane model year. Next year's
// models ship early, so the upper bound runs one year ahead.
func PlausibleYear(v int) bool {
	return v >= 1900 && v <= time.Now().Year()+1
}

// Make returns the canonical manufacturer name with the longest
// case-insensitive substring match in the title, or "" when none match.
func Make(title string) string {
	lower := strings.ToLower(title)
	for _, name := range makesByLength {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

// MakeModel extracts the canonical make plus a best-effort model: the text
// following the make match, trimmed and capped to a few tokens.
func MakeModel(title string) (string, string) {
	make := Make(title)
	if make == "" {
		return "", ""
	}

	lower := strings.ToLower(title)
	idx := strings.Index(lower, strings.ToLower(make))
	rest := strings.TrimSpace(title[idx+len(make):])
	rest = multiSpaceRegex.ReplaceAllString(rest, " ")
	if rest == "" {
		return make, ""
	}

	tokens := strings.Fields(rest)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	// Trailing descriptors like "for sale" are not part of a model name.
	model := strings.TrimRight(strings.Join(tokens, " "), ",.-")
	return make, model
}

// Condition lowercases and validates a condition value, returning ""
// when the value is not a member of the accepted set.
func Condition(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return "new"
	case "used":
		return "used"
	case "certified":
		return "certified"
	case "salvage":
		return "salvage"
	}
	return ""
}

// TitleCase recases a shouting or all-lowercase title word by word, keeping
// all-caps tokens that look like model codes (short, has a digit) intact.
// Used by the one-shot title cleanup pass.
func TitleCase(title string) string {
	words := strings.Fields(title)
	for i, w := range words {
		if hasDigit(w) && len(w) <= 6 {
			words[i] = strings.ToUpper(w)
			continue
		}
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

func hasDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
