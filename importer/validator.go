package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"axles_ingest/models"
	"axles_ingest/normalize"
)

// ValidationError reports one violation. Row is the 1-based display index
// of the CSV line: row 2 is the first data row, matching what a user sees
// in a spreadsheet.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Message)
}

// Validate checks every parsed row and returns the full list of violations;
// it never short-circuits, so a caller can render a complete error table.
// A batch with any violation must not be imported.
func Validate(rows []map[string]string) []ValidationError {
	var errs []ValidationError

	for i, row := range rows {
		display := i + 2 // header is row 1

		if strings.TrimSpace(row["title"]) == "" {
			errs = append(errs, ValidationError{display, "title", "title is required"})
		}
		if strings.TrimSpace(row["category"]) == "" {
			errs = append(errs, ValidationError{display, "category", "category is required"})
		}

		price := strings.TrimSpace(row["price"])
		if price == "" {
			errs = append(errs, ValidationError{display, "price", "price is required"})
		} else if v, err := strconv.ParseFloat(stripPriceChars(price), 64); err != nil || math.IsNaN(v) {
			errs = append(errs, ValidationError{display, "price", fmt.Sprintf("price %q is not a number", price)})
		}

		cond := strings.TrimSpace(row["condition"])
		if cond == "" {
			errs = append(errs, ValidationError{display, "condition", "condition is required"})
		} else if normalize.Condition(cond) == "" {
			errs = append(errs, ValidationError{display, "condition",
				fmt.Sprintf("condition %q must be one of new, used, certified, salvage", cond)})
		}
	}

	return errs
}

func stripPriceChars(s string) string {
	return strings.Map(func(c rune) rune {
		if c == '$' || c == ',' || c == ' ' {
			return -1
		}
		return c
	}, s)
}

// BuildRow converts a validated field map into a typed ListingRow.
// Recognized columns populate typed fields; unknown columns are preserved
// verbatim in Extras rather than spliced into the record.
func BuildRow(fields map[string]string) models.ListingRow {
	row := models.ListingRow{
		Title:       strings.TrimSpace(fields["title"]),
		Category:    strings.TrimSpace(fields["category"]),
		Condition:   normalize.Condition(fields["condition"]),
		Make:        strings.TrimSpace(fields["make"]),
		Model:       strings.TrimSpace(fields["model"]),
		VIN:         strings.TrimSpace(fields["vin"]),
		StockNumber: strings.TrimSpace(fields["stock_number"]),
		Description: strings.TrimSpace(fields["description"]),
		City:        strings.TrimSpace(fields["city"]),
		State:       strings.TrimSpace(fields["state"]),
	}

	row.Price = normalize.Price(fields["price"])
	row.AcquisitionCost = normalize.Price(fields["acquisition_cost"])

	// An implausible year column ("99", a typo'd "20022") is treated as
	// absent so the title extraction gets a chance to rescue it.
	if y := strings.TrimSpace(fields["year"]); y != "" {
		if v, err := strconv.Atoi(y); err == nil && normalize.PlausibleYear(v) {
			row.Year = &v
		}
	}
	if row.Year == nil {
		row.Year = normalize.Year(row.Title)
	}

	if row.Make == "" {
		row.Make, row.Model = normalize.MakeModel(row.Title)
	}

	if m := strings.TrimSpace(fields["mileage"]); m != "" {
		if v, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil && v >= 0 {
			row.Mileage = &v
		}
	}

	for k, v := range fields {
		if recognizedColumns[k] || v == "" {
			continue
		}
		if row.Extras == nil {
			row.Extras = make(map[string]string)
		}
		row.Extras[k] = v
	}

	return row
}
