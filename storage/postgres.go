package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axles_ingest/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// =============================================================================
// Categories (read-only taxonomy)
// =============================================================================

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT id, slug, name FROM categories WHERE slug = $1`

	var c models.Category
	err := s.pool.QueryRow(ctx, query, slug).Scan(&c.ID, &c.Slug, &c.Name)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// Profiles (dealer identity, read-only for the pipeline)
// =============================================================================

func (s *PostgresStore) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT id, company_name, phone, email, city, state, created_at FROM profiles WHERE id = $1`

	var p models.Profile
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CompanyName, &p.Phone, &p.Email, &p.City, &p.State, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetProfileByCompanyName(ctx context.Context, name string) (*models.Profile, error) {
	query := `SELECT id, company_name, phone, email, city, state, created_at FROM profiles WHERE company_name = $1`

	var p models.Profile
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&p.ID, &p.CompanyName, &p.Phone, &p.Email, &p.City, &p.State, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// Listings
// =============================================================================

const listingColumns = `id, user_id, category_id, title, price, condition, year, make, model,
		mileage, vin, stock_number, description, city, state, status, listing_type,
		created_at, updated_at`

func (s *PostgresStore) scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.UserID, &l.CategoryID, &l.Title, &l.Price, &l.Condition, &l.Year, &l.Make, &l.Model,
		&l.Mileage, &l.VIN, &l.StockNumber, &l.Description, &l.City, &l.State, &l.Status, &l.ListingType,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListingByDealerAndVIN looks up the natural key dealer+VIN. The same
// column also carries stock numbers for sources that publish no VIN.
func (s *PostgresStore) GetListingByDealerAndVIN(ctx context.Context, dealerID uuid.UUID, vin string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_id = $1 AND vin = $2 LIMIT 1`
	return s.scanListing(s.pool.QueryRow(ctx, query, dealerID, vin))
}

func (s *PostgresStore) GetListingByDealerAndStockNumber(ctx context.Context, dealerID uuid.UUID, stock string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_id = $1 AND stock_number = $2 LIMIT 1`
	return s.scanListing(s.pool.QueryRow(ctx, query, dealerID, stock))
}

// GetListingByDealerAndTitle looks up the natural key dealer+exact title.
func (s *PostgresStore) GetListingByDealerAndTitle(ctx context.Context, dealerID uuid.UUID, title string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_id = $1 AND title = $2 LIMIT 1`
	return s.scanListing(s.pool.QueryRow(ctx, query, dealerID, title))
}

func (s *PostgresStore) InsertListing(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (
			id, user_id, category_id, title, price, condition, year, make, model,
			mileage, vin, stock_number, description, city, state, status, listing_type,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		l.ID, l.UserID, l.CategoryID, l.Title, l.Price, l.Condition, l.Year, l.Make, l.Model,
		l.Mileage, l.VIN, l.StockNumber, l.Description, l.City, l.State, l.Status, l.ListingType,
		l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
}

func (s *PostgresStore) UpdateListingTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE listings SET title = $2, updated_at = NOW() WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, title)
	return err
}

func (s *PostgresStore) UpdateListingCategory(ctx context.Context, id, categoryID uuid.UUID) error {
	query := `UPDATE listings SET category_id = $2, updated_at = NOW() WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, categoryID)
	return err
}

// ListActiveListings pages through active listings for the cleanup passes.
func (s *PostgresStore) ListActiveListings(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = 'active' ORDER BY created_at LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectListings(rows)
}

func (s *PostgresStore) ListUncategorizedListings(ctx context.Context, limit int) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE category_id IS NULL ORDER BY created_at LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectListings(rows)
}

// SearchParams filters the active inventory.
type SearchParams struct {
	CategorySlug string
	Make         string
	Condition    string
	MinPrice     *float64
	MaxPrice     *float64
	Limit        int
}

func (s *PostgresStore) SearchListings(ctx context.Context, p SearchParams) ([]models.Listing, error) {
	query := `
		SELECT l.id, l.user_id, l.category_id, l.title, l.price, l.condition, l.year, l.make, l.model,
			l.mileage, l.vin, l.stock_number, l.description, l.city, l.state, l.status, l.listing_type,
			l.created_at, l.updated_at
		FROM listings l
		LEFT JOIN categories c ON c.id = l.category_id
		WHERE l.status = 'active'`
	args := []interface{}{}
	n := 0

	add := func(clause string, val interface{}) {
		n++
		query += fmt.Sprintf(" AND "+clause, n)
		args = append(args, val)
	}

	if p.CategorySlug != "" {
		add("c.slug = $%d", p.CategorySlug)
	}
	if p.Make != "" {
		add("l.make ILIKE $%d", "%"+p.Make+"%")
	}
	if p.Condition != "" {
		add("l.condition = $%d", p.Condition)
	}
	if p.MinPrice != nil {
		add("l.price >= $%d", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		add("l.price <= $%d", *p.MaxPrice)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	n++
	query += fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d", n)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectListings(rows)
}

func (s *PostgresStore) collectListings(rows pgx.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.CategoryID, &l.Title, &l.Price, &l.Condition, &l.Year, &l.Make, &l.Model,
			&l.Mileage, &l.VIN, &l.StockNumber, &l.Description, &l.City, &l.State, &l.Status, &l.ListingType,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// =============================================================================
// Listing images
// =============================================================================

func (s *PostgresStore) InsertListingImage(ctx context.Context, img *models.ListingImage) error {
	query := `
		INSERT INTO listing_images (id, listing_id, url, thumbnail_url, is_primary, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		img.ID, img.ListingID, img.URL, img.ThumbnailURL, img.IsPrimary, img.SortOrder, img.CreatedAt,
	).Scan(&img.ID)
}

// GetUnverifiedImages returns image rows the image worker has not touched
// yet (no thumbnail written).
func (s *PostgresStore) GetUnverifiedImages(ctx context.Context, limit int) ([]models.ListingImage, error) {
	query := `
		SELECT id, listing_id, url, thumbnail_url, is_primary, sort_order, created_at
		FROM listing_images
		WHERE thumbnail_url IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(
			&img.ID, &img.ListingID, &img.URL, &img.ThumbnailURL, &img.IsPrimary, &img.SortOrder, &img.CreatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *PostgresStore) SetImageThumbnail(ctx context.Context, id uuid.UUID, thumbnailURL string) error {
	query := `UPDATE listing_images SET thumbnail_url = $2 WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, thumbnailURL)
	return err
}

// DeleteListingImage removes an image whose URL turned out to be dead.
func (s *PostgresStore) DeleteListingImage(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM listing_images WHERE id = $1`, id)
	return err
}
