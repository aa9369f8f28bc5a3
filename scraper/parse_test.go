package scraper

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"axles_ingest/config"
	"axles_ingest/models"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func testSiteConfig() *config.SiteConfig {
	return &config.SiteConfig{
		ID:      "pinnacle",
		Name:    "Pinnacle Truck Sales",
		BaseURL: "https://www.pinnacletrucks.com",
		Selectors: config.Selectors{
			Item:      ".inventory-item",
			Title:     ".item-title",
			Price:     ".item-price",
			Condition: ".item-condition",
			Link:      ".item-link",
			Image:     ".item-photo",
			ImageAttr: "src",
			Location:  ".item-location",
			Stock:     ".item-stock",
		},
	}
}

func TestParseDocument(t *testing.T) {
	data := loadFixture(t, "inventory_page.html")
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	pageURL, _ := url.Parse("https://www.pinnacletrucks.com/inventory/used?page=1")
	rows := parseDocument(testSiteConfig(), doc, pageURL, "trucks")

	// The third item has no title and must be dropped.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	volvo := rows[0]
	if volvo.Title != "2022 Volvo VNL 760 Sleeper" {
		t.Fatalf("unexpected title %q", volvo.Title)
	}
	if volvo.Year == nil || *volvo.Year != 2022 {
		t.Errorf("expected year 2022, got %v", volvo.Year)
	}
	if volvo.Make != "Volvo" {
		t.Errorf("expected make Volvo, got %q", volvo.Make)
	}
	if volvo.Price == nil || *volvo.Price != 89500 {
		t.Errorf("expected price 89500, got %v", volvo.Price)
	}
	if volvo.Condition != models.ConditionUsed {
		t.Errorf("expected used, got %q", volvo.Condition)
	}
	if volvo.SourceURL != "https://www.pinnacletrucks.com/inventory/2022-volvo-vnl-760-4832" {
		t.Errorf("unexpected source url %q", volvo.SourceURL)
	}
	// The logo image is blocklisted; real photos keep their order.
	if len(volvo.Images) != 2 {
		t.Fatalf("expected 2 images, got %d: %v", len(volvo.Images), volvo.Images)
	}
	if volvo.Images[0] != "https://cdn.pinnacletrucks.com/units/4832/front.jpg" {
		t.Errorf("unexpected first image %q", volvo.Images[0])
	}
	if volvo.City != "Fort Worth" || volvo.State != "TX" {
		t.Errorf("unexpected location %q, %q", volvo.City, volvo.State)
	}
	if volvo.StockNumber != "4832" {
		t.Errorf("unexpected stock number %q", volvo.StockNumber)
	}

	reefer := rows[1]
	if reefer.Price != nil {
		t.Errorf(`"Call for price" should yield nil price, got %v`, reefer.Price)
	}
	if reefer.Condition != models.ConditionUsed {
		t.Errorf("blank condition should default to used, got %q", reefer.Condition)
	}
	// Relative image path resolves against the page URL's host.
	if len(reefer.Images) != 1 || reefer.Images[0] != "https://www.pinnacletrucks.com/photos/4911/side.jpg" {
		t.Errorf("unexpected images %v", reefer.Images)
	}
	if reefer.Category != "trucks" {
		t.Errorf("expected default category, got %q", reefer.Category)
	}
}

func TestCleanStock(t *testing.T) {
	cases := map[string]string{
		"Stock #4832": "4832",
		"STOCK# 771":  "771",
		"#12":         "12",
		"A-409":       "A-409",
	}
	for in, want := range cases {
		if got := cleanStock(in); got != want {
			t.Errorf("cleanStock(%q) = %q, want %q", in, got, want)
		}
	}
}
