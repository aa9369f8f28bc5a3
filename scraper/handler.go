package scraper

import (
	"context"

	"axles_ingest/config"
	"axles_ingest/httputil"
	"axles_ingest/models"
)

// Handler fetches one page of a site section and returns normalized rows.
// An empty slice signals the section is exhausted.
type Handler interface {
	ID() string
	ScrapePage(ctx context.Context, section config.Section, page int) ([]models.ListingRow, error)
	Close()
}

func NewHandler(siteCfg *config.SiteConfig, clients *httputil.Clients) Handler {
	switch siteCfg.Handler {
	case "browser":
		return NewBrowserHandler(siteCfg)
	default:
		return NewHTMLHandler(siteCfg, clients)
	}
}
