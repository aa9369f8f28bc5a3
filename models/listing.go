package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingRow is a normalized candidate record prior to persistence.
// Title, Category, Price presence and Condition membership are enforced by
// the importer's validator before a row may reach the ingest gateway.
type ListingRow struct {
	Title           string            `json:"title"`
	Category        string            `json:"category"` // taxonomy slug after normalization
	Price           *float64          `json:"price"`    // nil means "call for price"
	Condition       string            `json:"condition"`
	Year            *int              `json:"year"`
	Make            string            `json:"make"`
	Model           string            `json:"model"`
	Mileage         *int              `json:"mileage"`
	VIN             string            `json:"vin"`
	StockNumber     string            `json:"stock_number"`
	Description     string            `json:"description"`
	City            string            `json:"city"`
	State           string            `json:"state"`
	AcquisitionCost *float64          `json:"acquisition_cost"`
	Images          []string          `json:"images"` // ordered, first = primary
	SourceURL       string            `json:"source_url"`
	Extras          map[string]string `json:"extras,omitempty"` // unrecognized CSV columns, preserved verbatim
}

// Listing is a persisted marketplace listing row.
type Listing struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"` // dealer profile
	CategoryID  *uuid.UUID `json:"category_id" db:"category_id"` // nil until categorized
	Title       string     `json:"title" db:"title"`
	Price       *float64   `json:"price" db:"price"`
	Condition   string     `json:"condition" db:"condition"`
	Year        *int       `json:"year" db:"year"`
	Make        string     `json:"make" db:"make"`
	Model       string     `json:"model" db:"model"`
	Mileage     *int       `json:"mileage" db:"mileage"`
	VIN         string     `json:"vin" db:"vin"`
	StockNumber string     `json:"stock_number" db:"stock_number"`
	Description string     `json:"description" db:"description"`
	City        string     `json:"city" db:"city"`
	State       string     `json:"state" db:"state"`
	Status      string     `json:"status" db:"status"`
	ListingType string     `json:"listing_type" db:"listing_type"` // sale, auction, lease
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ListingImage is one photo attached to a listing.
type ListingImage struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ListingID    uuid.UUID `json:"listing_id" db:"listing_id"`
	URL          string    `json:"url" db:"url"`
	ThumbnailURL *string   `json:"thumbnail_url" db:"thumbnail_url"` // nil until the image worker verifies it
	IsPrimary    bool      `json:"is_primary" db:"is_primary"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Category is a read-only taxonomy row used for slug resolution.
type Category struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Slug string    `json:"slug" db:"slug"`
	Name string    `json:"name" db:"name"`
}

// Profile is a dealer account that owns listings.
type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	City        string    `json:"city" db:"city"`
	State       string    `json:"state" db:"state"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DedupStrategy selects the natural key used by the ingest gateway.
// VIN and title matching are configured independently per source and
// never silently conflated.
type DedupStrategy string

const (
	DedupByVIN   DedupStrategy = "vin"   // VIN or stock number, title as last resort
	DedupByTitle DedupStrategy = "title" // dealer + exact title string
)

// Condition values accepted by the validator (case-insensitive on input).
const (
	ConditionNew       = "new"
	ConditionUsed      = "used"
	ConditionCertified = "certified"
	ConditionSalvage   = "salvage"
)

// Listing status
const (
	ListingStatusActive  = "active"
	ListingStatusSold    = "sold"
	ListingStatusPending = "pending"
	ListingStatusDraft   = "draft"
)

// Listing types
const (
	ListingTypeSale    = "sale"
	ListingTypeAuction = "auction"
	ListingTypeLease   = "lease"
)
