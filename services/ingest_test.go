package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"axles_ingest/importer"
	"axles_ingest/models"
)

type fakeStore struct {
	categories map[string]*models.Category
	listings   []*models.Listing
	images     []*models.ListingImage
}

func newFakeStore(slugs ...string) *fakeStore {
	f := &fakeStore{categories: make(map[string]*models.Category)}
	for _, slug := range slugs {
		f.categories[slug] = &models.Category{ID: uuid.New(), Slug: slug, Name: slug}
	}
	return f
}

func (f *fakeStore) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	return f.categories[slug], nil
}

func (f *fakeStore) GetListingByDealerAndVIN(_ context.Context, dealerID uuid.UUID, vin string) (*models.Listing, error) {
	for _, l := range f.listings {
		if l.UserID == dealerID && (l.VIN == vin || l.StockNumber == vin) {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetListingByDealerAndStockNumber(_ context.Context, dealerID uuid.UUID, stock string) (*models.Listing, error) {
	for _, l := range f.listings {
		if l.UserID == dealerID && l.StockNumber == stock {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetListingByDealerAndTitle(_ context.Context, dealerID uuid.UUID, title string) (*models.Listing, error) {
	for _, l := range f.listings {
		if l.UserID == dealerID && l.Title == title {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertListing(_ context.Context, l *models.Listing) error {
	f.listings = append(f.listings, l)
	return nil
}

func (f *fakeStore) InsertListingImage(_ context.Context, img *models.ListingImage) error {
	f.images = append(f.images, img)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func TestProcessInsertsThenSkips(t *testing.T) {
	store := newFakeStore("sleeper-trucks", "trucks")
	svc := NewIngestService(store, models.DedupByTitle, "trucks", "trucks")
	dealer := uuid.New()

	row := models.ListingRow{
		Title:     "2022 Volvo VNL 760 Sleeper",
		Category:  "Sleeper Trucks",
		Price:     floatPtr(89500),
		Condition: models.ConditionUsed,
		Make:      "Volvo",
		Images:    []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
	}

	outcome, err := svc.Process(context.Background(), &row, dealer)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	if outcome != importer.OutcomeImported {
		t.Fatalf("expected imported, got %s", outcome)
	}
	if len(store.listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(store.listings))
	}

	inserted := store.listings[0]
	if inserted.CategoryID == nil || *inserted.CategoryID != store.categories["sleeper-trucks"].ID {
		t.Errorf("expected sleeper-trucks category, got %v", inserted.CategoryID)
	}
	if inserted.Status != models.ListingStatusActive {
		t.Errorf("expected active status, got %s", inserted.Status)
	}

	if len(store.images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(store.images))
	}
	if !store.images[0].IsPrimary || store.images[0].SortOrder != 0 {
		t.Errorf("first image should be primary with sort_order 0: %+v", store.images[0])
	}
	if store.images[1].IsPrimary || store.images[1].SortOrder != 1 {
		t.Errorf("second image should be secondary with sort_order 1: %+v", store.images[1])
	}

	// Re-running the identical row must skip, never update.
	outcome, err = svc.Process(context.Background(), &row, dealer)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if outcome != importer.OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", outcome)
	}
	if len(store.listings) != 1 || len(store.images) != 2 {
		t.Fatalf("duplicate row must not write: %d listings, %d images", len(store.listings), len(store.images))
	}
}

func TestProcessVINStrategy(t *testing.T) {
	store := newFakeStore("trucks")
	svc := NewIngestService(store, models.DedupByVIN, "trucks", "trucks")
	dealer := uuid.New()

	first := models.ListingRow{
		Title:     "2019 Freightliner Cascadia Day Cab",
		Category:  "Trucks",
		Price:     floatPtr(65000),
		Condition: models.ConditionUsed,
		VIN:       "1FUJGLDR9KLBX1234",
	}
	if _, err := svc.Process(context.Background(), &first, dealer); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same VIN under a different title is still the same vehicle.
	relisted := first
	relisted.Title = "Freightliner Cascadia 2019 - REDUCED"
	outcome, err := svc.Process(context.Background(), &relisted, dealer)
	if err != nil {
		t.Fatalf("relisted: %v", err)
	}
	if outcome != importer.OutcomeSkipped {
		t.Fatalf("expected skipped on VIN match, got %s", outcome)
	}

	// No VIN and no stock number falls back to title matching.
	noVIN := models.ListingRow{
		Title:     "2019 Freightliner Cascadia Day Cab",
		Category:  "Trucks",
		Price:     floatPtr(65000),
		Condition: models.ConditionUsed,
	}
	outcome, err = svc.Process(context.Background(), &noVIN, dealer)
	if err != nil {
		t.Fatalf("no vin: %v", err)
	}
	if outcome != importer.OutcomeSkipped {
		t.Fatalf("expected skipped on title fallback, got %s", outcome)
	}
}

func TestProcessExactSlugCategory(t *testing.T) {
	// A feed whose category column carries the taxonomy slug itself must
	// keep that category even when the title offers no keyword and the
	// slug has no keyword of its own.
	store := newFakeStore("specialty-trailers", "trailers")
	svc := NewIngestService(store, models.DedupByTitle, "trailers", "trailers")
	dealer := uuid.New()

	row := models.ListingRow{
		Title:     "Misc Unit 17",
		Category:  "Specialty-Trailers",
		Price:     floatPtr(14500),
		Condition: models.ConditionUsed,
	}
	if _, err := svc.Process(context.Background(), &row, dealer); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := store.listings[0].CategoryID
	if got == nil || *got != store.categories["specialty-trailers"].ID {
		t.Errorf("expected specialty-trailers category, got %v", got)
	}
}

func TestProcessCategoryFallback(t *testing.T) {
	// Source default absent from the taxonomy: global fallback wins.
	store := newFakeStore("trucks")
	svc := NewIngestService(store, models.DedupByTitle, "vintage-tractors", "trucks")
	dealer := uuid.New()

	row := models.ListingRow{
		Title:     "Misc Equipment Lot 17",
		Category:  "",
		Price:     floatPtr(1200),
		Condition: models.ConditionUsed,
	}
	if _, err := svc.Process(context.Background(), &row, dealer); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := store.listings[0].CategoryID
	if got == nil || *got != store.categories["trucks"].ID {
		t.Errorf("expected global fallback category, got %v", got)
	}
}
