package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"axles_ingest/importer"
	"axles_ingest/models"
	"axles_ingest/normalize"
)

// RESTGateway imports listings through the hosted PostgREST endpoint
// instead of a direct database connection. Dedup semantics match
// services.IngestService.
type RESTGateway struct {
	url        string
	serviceKey string
	client     *http.Client

	strategy         models.DedupStrategy
	defaultCategory  string
	fallbackCategory string

	categories map[string]*uuid.UUID // slug -> id, nil when absent upstream
}

func NewRESTGateway(baseURL, serviceKey string, strategy models.DedupStrategy, defaultCategory, fallbackCategory string) *RESTGateway {
	if strategy == "" {
		strategy = models.DedupByTitle
	}
	return &RESTGateway{
		url:              baseURL,
		serviceKey:       serviceKey,
		client:           &http.Client{Timeout: 30 * time.Second},
		strategy:         strategy,
		defaultCategory:  defaultCategory,
		fallbackCategory: fallbackCategory,
		categories:       make(map[string]*uuid.UUID),
	}
}

func (g *RESTGateway) Process(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (importer.Outcome, error) {
	exists, err := g.exists(ctx, row, dealerID)
	if err != nil {
		return "", err
	}
	if exists {
		return importer.OutcomeSkipped, nil
	}

	categoryID, err := g.resolveCategory(ctx, row)
	if err != nil {
		return "", err
	}

	now := time.Now()
	listing := map[string]interface{}{
		"id":           uuid.New(),
		"user_id":      dealerID,
		"category_id":  categoryID,
		"title":        row.Title,
		"price":        row.Price,
		"condition":    row.Condition,
		"year":         row.Year,
		"make":         row.Make,
		"model":        row.Model,
		"mileage":      row.Mileage,
		"vin":          row.VIN,
		"stock_number": row.StockNumber,
		"description":  row.Description,
		"city":         row.City,
		"state":        row.State,
		"status":       models.ListingStatusActive,
		"listing_type": models.ListingTypeSale,
		"created_at":   now,
		"updated_at":   now,
	}

	listingID := listing["id"].(uuid.UUID)
	if err := g.post(ctx, "/rest/v1/listings", listing); err != nil {
		return "", fmt.Errorf("insert listing: %w", err)
	}

	for i, imgURL := range normalize.FilterImages(row.Images) {
		img := map[string]interface{}{
			"id":         uuid.New(),
			"listing_id": listingID,
			"url":        imgURL,
			"is_primary": i == 0,
			"sort_order": i,
			"created_at": now,
		}
		if err := g.post(ctx, "/rest/v1/listing_images", img); err != nil {
			return "", fmt.Errorf("insert image %d: %w", i, err)
		}
	}

	return importer.OutcomeImported, nil
}

// exists probes the natural key for the configured strategy. A source
// publishing neither VIN nor stock number falls back to the exact title.
func (g *RESTGateway) exists(ctx context.Context, row *models.ListingRow, dealerID uuid.UUID) (bool, error) {
	var filter string
	switch {
	case g.strategy == models.DedupByVIN && row.VIN != "":
		filter = "vin=eq." + url.QueryEscape(row.VIN)
	case g.strategy == models.DedupByVIN && row.StockNumber != "":
		filter = "stock_number=eq." + url.QueryEscape(row.StockNumber)
	default:
		filter = "title=eq." + url.QueryEscape(row.Title)
	}

	path := fmt.Sprintf("/rest/v1/listings?select=id&limit=1&user_id=eq.%s&%s", dealerID, filter)
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := g.get(ctx, path, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (g *RESTGateway) resolveCategory(ctx context.Context, row *models.ListingRow) (*uuid.UUID, error) {
	// An exact taxonomy slug in the category column short-circuits the
	// keyword match, which would otherwise down-classify it.
	if exact := strings.ToLower(strings.TrimSpace(row.Category)); exact != "" {
		id, err := g.categoryID(ctx, exact)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}

	var lookupErr error
	slug := normalize.CategorySlug(row.Category+" "+row.Title, g.defaultCategory, g.fallbackCategory, func(s string) bool {
		id, err := g.categoryID(ctx, s)
		if err != nil {
			lookupErr = err
			return false
		}
		return id != nil
	})
	if lookupErr != nil {
		return nil, lookupErr
	}
	return g.categoryID(ctx, slug)
}

func (g *RESTGateway) categoryID(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}
	if id, ok := g.categories[slug]; ok {
		return id, nil
	}

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	path := "/rest/v1/categories?select=id&limit=1&slug=eq." + url.QueryEscape(slug)
	if err := g.get(ctx, path, &rows); err != nil {
		return nil, err
	}

	var id *uuid.UUID
	if len(rows) > 0 {
		id = &rows[0].ID
	}
	g.categories[slug] = id
	return id, nil
}

func (g *RESTGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", g.url+path, nil)
	if err != nil {
		return err
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *RESTGateway) post(ctx context.Context, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.url+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	g.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase error %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (g *RESTGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
}
