package importer

import "strings"

// Recognized CSV columns. Required columns are enforced by the validator;
// anything not listed here is carried in the row's Extras side-map.
var (
	requiredColumns = []string{"title", "category", "price", "condition"}

	recognizedColumns = map[string]bool{
		"title":            true,
		"category":         true,
		"price":            true,
		"condition":        true,
		"year":             true,
		"make":             true,
		"model":            true,
		"mileage":          true,
		"vin":              true,
		"description":      true,
		"city":             true,
		"state":            true,
		"stock_number":     true,
		"acquisition_cost": true,
	}
)

// Parse turns raw comma-delimited text into an ordered sequence of field
// maps. The first line supplies lowercase, trimmed header names as keys;
// every produced map contains every header key, possibly empty. Empty
// input (no data rows) yields an empty sequence, not an error.
func Parse(raw string) []map[string]string {
	return ParseDelimited(raw, ',')
}

// ParseDelimited is Parse with an explicit delimiter.
func ParseDelimited(raw string, delim rune) []map[string]string {
	lines := splitLines(raw)
	if len(lines) < 2 {
		return nil
	}

	headers := splitFields(lines[0], delim)
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []map[string]string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitFields(line, delim)
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = strings.TrimSpace(values[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// splitFields splits one line on the delimiter, honoring double-quoted
// fields that contain the delimiter. Tracks quote state character by
// character rather than naively splitting; an unterminated quote is
// tolerated and the remaining text is taken verbatim.
func splitFields(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == delim && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.Trim(raw, "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}
