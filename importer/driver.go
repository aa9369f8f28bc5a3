package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"axles_ingest/models"
)

// Outcome classifies one gateway call.
type Outcome string

const (
	OutcomeImported Outcome = "imported"
	OutcomeSkipped  Outcome = "skipped"
)

// Gateway persists one normalized row for a dealer, skipping duplicates
// by natural key. Implemented by services.IngestService (direct Postgres)
// and storage.RESTGateway (hosted import endpoint).
type Gateway interface {
	Process(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (Outcome, error)
}

// Summary is the terminal state of a batch run.
type Summary struct {
	RowsFound int `json:"rows_found"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d imported, %d skipped, %d errors", s.Imported, s.Skipped, s.Errors)
}

// Driver feeds validated rows to the gateway strictly sequentially.
// The backing store client and rate-limit etiquette toward scraped sites
// both assume single-threaded use.
type Driver struct {
	gateway Gateway
	delay   time.Duration // optional pause between rows
}

func NewDriver(gateway Gateway) *Driver {
	return &Driver{gateway: gateway}
}

// SetDelay adds a fixed pause between rows (scrape etiquette).
func (d *Driver) SetDelay(delay time.Duration) {
	d.delay = delay
}

// Run processes rows in array order. A row-level failure is logged and
// counted but never fatal to the batch; earlier inserts are not rolled
// back when later rows fail.
func (d *Driver) Run(ctx context.Context, dealerID uuid.UUID, rows []models.ListingRow) *Summary {
	summary := &Summary{RowsFound: len(rows)}

	for i := range rows {
		row := &rows[i]

		outcome, err := d.gateway.Process(ctx, row, dealerID)
		if err != nil {
			log.Printf("Import error for %q: %v", row.Title, err)
			summary.Errors++
			continue
		}

		switch outcome {
		case OutcomeImported:
			summary.Imported++
		case OutcomeSkipped:
			summary.Skipped++
		}

		if d.delay > 0 && i < len(rows)-1 {
			time.Sleep(d.delay)
		}
	}

	return summary
}

// ImportBatch is the all-or-nothing entry point for a parsed CSV batch:
// if any row has a validation error the import does not start and the
// complete violation list is returned instead.
func (d *Driver) ImportBatch(ctx context.Context, dealerID uuid.UUID, fields []map[string]string) (*Summary, []ValidationError) {
	if errs := Validate(fields); len(errs) > 0 {
		return nil, errs
	}

	rows := make([]models.ListingRow, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, BuildRow(f))
	}

	return d.Run(ctx, dealerID, rows), nil
}
