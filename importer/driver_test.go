package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"axles_ingest/models"
)

type fakeGateway struct {
	seen     []string
	outcomes map[string]Outcome
	failOn   map[string]bool
}

func (g *fakeGateway) Process(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (Outcome, error) {
	g.seen = append(g.seen, row.Title)
	if g.failOn[row.Title] {
		return "", errors.New("insert failed")
	}
	if o, ok := g.outcomes[row.Title]; ok {
		return o, nil
	}
	return OutcomeImported, nil
}

func TestDriver_Counters(t *testing.T) {
	gw := &fakeGateway{
		outcomes: map[string]Outcome{"dup": OutcomeSkipped},
		failOn:   map[string]bool{"bad": true},
	}
	rows := []models.ListingRow{
		{Title: "a"}, {Title: "dup"}, {Title: "bad"}, {Title: "b"},
	}

	summary := NewDriver(gw).Run(context.Background(), uuid.New(), rows)

	if summary.Imported != 2 || summary.Skipped != 1 || summary.Errors != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RowsFound != 4 {
		t.Fatalf("expected 4 rows found, got %d", summary.RowsFound)
	}
}

func TestDriver_ErrorNeverFatal(t *testing.T) {
	gw := &fakeGateway{failOn: map[string]bool{"first": true}}
	rows := []models.ListingRow{{Title: "first"}, {Title: "second"}}

	NewDriver(gw).Run(context.Background(), uuid.New(), rows)

	if len(gw.seen) != 2 {
		t.Fatalf("driver stopped after a row error; saw %v", gw.seen)
	}
}

func TestDriver_ArrayOrder(t *testing.T) {
	gw := &fakeGateway{}
	rows := []models.ListingRow{{Title: "1"}, {Title: "2"}, {Title: "3"}}

	NewDriver(gw).Run(context.Background(), uuid.New(), rows)

	for i, title := range []string{"1", "2", "3"} {
		if gw.seen[i] != title {
			t.Fatalf("rows processed out of order: %v", gw.seen)
		}
	}
}

func TestImportBatch_ValidationGate(t *testing.T) {
	gw := &fakeGateway{}
	fields := Parse("title,category,price,condition\nok,trailers,100,used\n,trailers,100,used\n")

	summary, errs := NewDriver(gw).ImportBatch(context.Background(), uuid.New(), fields)

	if summary != nil {
		t.Fatalf("expected no summary when batch has violations")
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 violation, got %v", errs)
	}
	if len(gw.seen) != 0 {
		t.Fatalf("gateway must not be called for an invalid batch; saw %v", gw.seen)
	}
}

func TestImportBatch_EndToEnd(t *testing.T) {
	gw := &fakeGateway{}
	fields := Parse("title,category,price,condition\n2022 Volvo VNL 760 Sleeper,trailers,150000,Used\n")

	summary, errs := NewDriver(gw).ImportBatch(context.Background(), uuid.New(), fields)

	if len(errs) != 0 {
		t.Fatalf("expected clean validation, got %v", errs)
	}
	if summary.Imported != 1 || summary.Skipped != 0 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
