package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Price strips currency symbols and thousands separators and parses the
// remainder. Unparseable or non-positive results mean "call for price"
// and yield nil.
func Price(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			b.WriteRune(c)
			continue
		}
		if c == '$' || c == ',' || c == ' ' {
			continue
		}
		if c == '-' && b.Len() == 0 {
			b.WriteRune(c)
			continue
		}
		// trailing text like "USD" or "obo" ends the numeric run
		if b.Len() > 0 {
			break
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		return nil
	}
	return &v
}
