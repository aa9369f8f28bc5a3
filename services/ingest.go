package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"axles_ingest/importer"
	"axles_ingest/models"
	"axles_ingest/normalize"
)

// ListingStore is the slice of the Postgres store the ingest path needs.
// Narrow on purpose so tests can fake it.
type ListingStore interface {
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetListingByDealerAndVIN(ctx context.Context, dealerID uuid.UUID, vin string) (*models.Listing, error)
	GetListingByDealerAndStockNumber(ctx context.Context, dealerID uuid.UUID, stock string) (*models.Listing, error)
	GetListingByDealerAndTitle(ctx context.Context, dealerID uuid.UUID, title string) (*models.Listing, error)
	InsertListing(ctx context.Context, l *models.Listing) error
	InsertListingImage(ctx context.Context, img *models.ListingImage) error
}

// IngestService turns normalized rows into marketplace listings. A row
// whose natural key already exists for the dealer is skipped, never
// updated: the marketplace owner may have edited the listing by hand.
type IngestService struct {
	store            ListingStore
	strategy         models.DedupStrategy
	defaultCategory  string
	fallbackCategory string

	categories map[string]*uuid.UUID // slug -> id, nil when the taxonomy lacks it
}

func NewIngestService(store ListingStore, strategy models.DedupStrategy, defaultCategory, fallbackCategory string) *IngestService {
	if strategy == "" {
		strategy = models.DedupByTitle
	}
	if fallbackCategory == "" {
		fallbackCategory = normalize.FallbackTrucks
	}
	return &IngestService{
		store:            store,
		strategy:         strategy,
		defaultCategory:  defaultCategory,
		fallbackCategory: fallbackCategory,
		categories:       make(map[string]*uuid.UUID),
	}
}

// Process implements importer.Gateway. Listing and image inserts are
// separate statements; a crash between them leaves a listing without
// images, which the image worker tolerates.
func (s *IngestService) Process(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (importer.Outcome, error) {
	existing, err := s.findExisting(ctx, row, dealerID)
	if err != nil {
		return "", fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return importer.OutcomeSkipped, nil
	}

	categoryID, err := s.resolveCategory(ctx, row)
	if err != nil {
		return "", fmt.Errorf("resolve category: %w", err)
	}

	now := time.Now()
	listing := &models.Listing{
		ID:          uuid.New(),
		UserID:      dealerID,
		CategoryID:  categoryID,
		Title:       row.Title,
		Price:       row.Price,
		Condition:   row.Condition,
		Year:        row.Year,
		Make:        row.Make,
		Model:       row.Model,
		Mileage:     row.Mileage,
		VIN:         row.VIN,
		StockNumber: row.StockNumber,
		Description: row.Description,
		City:        row.City,
		State:       row.State,
		Status:      models.ListingStatusActive,
		ListingType: models.ListingTypeSale,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertListing(ctx, listing); err != nil {
		return "", fmt.Errorf("insert listing: %w", err)
	}

	for i, url := range normalize.FilterImages(row.Images) {
		img := &models.ListingImage{
			ID:        uuid.New(),
			ListingID: listing.ID,
			URL:       url,
			IsPrimary: i == 0,
			SortOrder: i,
			CreatedAt: now,
		}
		if err := s.store.InsertListingImage(ctx, img); err != nil {
			return "", fmt.Errorf("insert image %d: %w", i, err)
		}
	}

	return importer.OutcomeImported, nil
}

// findExisting probes the natural key for the configured strategy. The
// vin strategy accepts a stock number when the source publishes no VIN,
// and falls back to the exact title when it publishes neither.
func (s *IngestService) findExisting(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (*models.Listing, error) {
	if s.strategy == models.DedupByVIN {
		if row.VIN != "" {
			return s.store.GetListingByDealerAndVIN(ctx, dealerID, row.VIN)
		}
		if row.StockNumber != "" {
			return s.store.GetListingByDealerAndStockNumber(ctx, dealerID, row.StockNumber)
		}
	}
	return s.store.GetListingByDealerAndTitle(ctx, dealerID, row.Title)
}

func (s *IngestService) resolveCategory(ctx context.Context, row *models.ListingRow) (*uuid.UUID, error) {
	// A category column that is already an exact taxonomy slug wins
	// outright; keyword matching would only down-classify it.
	if exact := strings.ToLower(strings.TrimSpace(row.Category)); exact != "" {
		id, err := s.categoryID(ctx, exact)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}

	var lookupErr error
	slug := normalize.CategorySlug(row.Category+" "+row.Title, s.defaultCategory, s.fallbackCategory, func(candidate string) bool {
		id, err := s.categoryID(ctx, candidate)
		if err != nil {
			lookupErr = err
			return false
		}
		return id != nil
	})
	if lookupErr != nil {
		return nil, lookupErr
	}
	return s.categoryID(ctx, slug)
}

func (s *IngestService) categoryID(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}
	if id, ok := s.categories[slug]; ok {
		return id, nil
	}

	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var id *uuid.UUID
	if category != nil {
		id = &category.ID
	}
	s.categories[slug] = id
	return id, nil
}
