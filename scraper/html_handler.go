package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"axles_ingest/config"
	"axles_ingest/httputil"
	"axles_ingest/models"
)

// HTMLHandler scrapes server-rendered inventory pages with plain GETs.
// Most dealer sites are template-driven and need no browser.
type HTMLHandler struct {
	cfg     *config.SiteConfig
	clients *httputil.Clients
}

func NewHTMLHandler(cfg *config.SiteConfig, clients *httputil.Clients) *HTMLHandler {
	return &HTMLHandler{cfg: cfg, clients: clients}
}

func (h *HTMLHandler) ID() string {
	return h.cfg.ID
}

func (h *HTMLHandler) Close() {}

func (h *HTMLHandler) ScrapePage(ctx context.Context, section config.Section, page int) ([]models.ListingRow, error) {
	pageURL, err := buildPageURL(h.cfg.BaseURL, section.Path, page)
	if err != nil {
		return nil, err
	}

	var doc *goquery.Document
	err = httputil.Retry(3, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", pageURL.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := h.clients.Scraping.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d for %s", resp.StatusCode, pageURL)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return parseDocument(h.cfg, doc, pageURL, h.defaultCategory(section)), nil
}

func (h *HTMLHandler) defaultCategory(section config.Section) string {
	if section.DefaultCategory != "" {
		return section.DefaultCategory
	}
	return h.cfg.DefaultCategory
}

func buildPageURL(base, pathTemplate string, page int) (*url.URL, error) {
	full := base + fmt.Sprintf(pathTemplate, page)
	parsed, err := url.Parse(full)
	if err != nil {
		return nil, fmt.Errorf("bad page url %q: %w", full, err)
	}
	return parsed, nil
}
