package services

import (
	"context"
	"fmt"
	"log"

	"axles_ingest/normalize"
	"axles_ingest/storage"
)

// CleanupService runs one-shot maintenance passes over listings that
// earlier imports wrote with rougher normalization.
type CleanupService struct {
	store *storage.PostgresStore
}

func NewCleanupService(store *storage.PostgresStore) *CleanupService {
	return &CleanupService{store: store}
}

// RecaseTitles rewrites shouty all-caps titles into title case. Returns
// the number of listings updated.
func (s *CleanupService) RecaseTitles(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	updated := 0
	offset := 0
	for {
		listings, err := s.store.ListActiveListings(ctx, batchSize, offset)
		if err != nil {
			return updated, fmt.Errorf("list listings: %w", err)
		}
		if len(listings) == 0 {
			return updated, nil
		}

		for _, l := range listings {
			recased := normalize.TitleCase(l.Title)
			if recased == l.Title {
				continue
			}
			if err := s.store.UpdateListingTitle(ctx, l.ID, recased); err != nil {
				log.Printf("Warning: recase %s: %v", l.ID, err)
				continue
			}
			updated++
		}

		offset += len(listings)
	}
}

// BackfillCategories assigns a category to listings imported before the
// taxonomy existed, or whose source default was missing at import time.
func (s *CleanupService) BackfillCategories(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	updated := 0
	for {
		listings, err := s.store.ListUncategorizedListings(ctx, batchSize)
		if err != nil {
			return updated, fmt.Errorf("list uncategorized: %w", err)
		}
		if len(listings) == 0 {
			return updated, nil
		}

		progressed := false
		for _, l := range listings {
			slug := normalize.CategorySlug(l.Title+" "+l.Description, "", normalize.FallbackTrucks, nil)
			category, err := s.store.GetCategoryBySlug(ctx, slug)
			if err != nil {
				return updated, fmt.Errorf("get category %q: %w", slug, err)
			}
			if category == nil {
				log.Printf("Warning: category %q not in taxonomy, leaving %s uncategorized", slug, l.ID)
				continue
			}
			if err := s.store.UpdateListingCategory(ctx, l.ID, category.ID); err != nil {
				log.Printf("Warning: backfill %s: %v", l.ID, err)
				continue
			}
			updated++
			progressed = true
		}

		// Every remaining row resolved to a slug outside the taxonomy;
		// looping again would re-fetch the same rows forever.
		if !progressed {
			return updated, nil
		}
	}
}
