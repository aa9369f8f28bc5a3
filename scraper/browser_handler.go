package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"axles_ingest/config"
	"axles_ingest/models"
)

// BrowserHandler drives a real browser for sites that render inventory
// client-side. The rendered DOM goes through the same selector parsing
// as the plain HTML handler.
type BrowserHandler struct {
	cfg *config.SiteConfig

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	initialized bool
}

func NewBrowserHandler(cfg *config.SiteConfig) *BrowserHandler {
	return &BrowserHandler{cfg: cfg}
}

func (h *BrowserHandler) ID() string {
	return h.cfg.ID
}

func (h *BrowserHandler) ScrapePage(ctx context.Context, section config.Section, page int) ([]models.ListingRow, error) {
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}

	pageURL, err := buildPageURL(h.cfg.BaseURL, section.Path, page)
	if err != nil {
		return nil, err
	}

	bp, err := h.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer bp.Close()

	if _, err := bp.Goto(pageURL.String(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("goto %s: %w", pageURL, err)
	}

	// Wait for at least one inventory item to render; a timeout usually
	// means the page is past the end of the section.
	if _, err := bp.WaitForSelector(h.cfg.Selectors.Item, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return nil, nil
	}

	html, err := bp.Content()
	if err != nil {
		return nil, fmt.Errorf("page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	defaultCategory := section.DefaultCategory
	if defaultCategory == "" {
		defaultCategory = h.cfg.DefaultCategory
	}

	return parseDocument(h.cfg, doc, pageURL, defaultCategory), nil
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	h.browser, err = h.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	h.initialized = true
	return nil
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.browser != nil {
		h.browser.Close()
		h.browser = nil
	}
	if h.pw != nil {
		h.pw.Stop()
		h.pw = nil
	}
	h.initialized = false
}
