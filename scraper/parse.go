package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"axles_ingest/config"
	"axles_ingest/models"
	"axles_ingest/normalize"
)

// parseDocument extracts listing rows from an inventory page using the
// site's configured selectors. Rows without a title are dropped; every
// other field is best-effort.
func parseDocument(cfg *config.SiteConfig, doc *goquery.Document, pageURL *url.URL, defaultCategory string) []models.ListingRow {
	sel := cfg.Selectors
	var rows []models.ListingRow

	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		title := cleanText(item.Find(sel.Title).First().Text())
		if title == "" {
			return
		}

		row := models.ListingRow{
			Title:    title,
			Category: defaultCategory,
		}

		row.Year = normalize.Year(title)
		row.Make, row.Model = normalize.MakeModel(title)

		if sel.Price != "" {
			row.Price = normalize.Price(item.Find(sel.Price).First().Text())
		}

		row.Condition = models.ConditionUsed
		if sel.Condition != "" {
			if c := normalize.Condition(cleanText(item.Find(sel.Condition).First().Text())); c != "" {
				row.Condition = c
			}
		} else if strings.Contains(strings.ToLower(title), "new ") {
			row.Condition = models.ConditionNew
		}

		if sel.Link != "" {
			if href, ok := item.Find(sel.Link).First().Attr("href"); ok {
				row.SourceURL = absoluteURL(pageURL, href)
			}
		}

		if sel.Image != "" {
			item.Find(sel.Image).Each(func(_ int, img *goquery.Selection) {
				if src, ok := img.Attr(sel.ImageAttr); ok && src != "" {
					row.Images = append(row.Images, absoluteURL(pageURL, src))
				}
			})
			row.Images = normalize.FilterImages(row.Images)
		}

		if sel.Location != "" {
			row.City, row.State = splitLocation(cleanText(item.Find(sel.Location).First().Text()))
		}

		if sel.Stock != "" {
			row.StockNumber = cleanStock(cleanText(item.Find(sel.Stock).First().Text()))
		}

		rows = append(rows, row)
	})

	return rows
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func absoluteURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// splitLocation handles "Fort Worth, TX" style dealer location strings.
func splitLocation(s string) (city, state string) {
	parts := strings.SplitN(s, ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		state = strings.TrimSpace(parts[1])
	}
	return city, state
}

// cleanStock removes "Stock #" style labels sites prepend to the number.
func cleanStock(s string) string {
	lower := strings.ToLower(s)
	for _, prefix := range []string{"stock #", "stock#", "stock:", "stock", "unit #", "unit"} {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	return strings.TrimPrefix(s, "#")
}
