package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"axles_ingest/checkpoint"
	"axles_ingest/config"
	"axles_ingest/httputil"
	"axles_ingest/importer"
	"axles_ingest/models"
	"axles_ingest/storage"
)

// GatewayFactory builds the ingest gateway for one site, binding its
// dedup strategy and category defaults.
type GatewayFactory func(site *config.SiteConfig) importer.Gateway

type Orchestrator struct {
	cfg        *config.Config
	ops        *storage.SQLiteStore
	handlers   map[string]Handler
	newGateway GatewayFactory
}

func NewOrchestrator(cfg *config.Config, ops *storage.SQLiteStore, clients *httputil.Clients, newGateway GatewayFactory) *Orchestrator {
	handlers := make(map[string]Handler)
	for id, siteCfg := range cfg.Sites {
		handlers[id] = NewHandler(siteCfg, clients)
	}

	return &Orchestrator{
		cfg:        cfg,
		ops:        ops,
		handlers:   handlers,
		newGateway: newGateway,
	}
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	var siteIDs []string
	for id := range o.cfg.Sites {
		siteIDs = append(siteIDs, id)
	}
	sort.Strings(siteIDs)

	for _, siteID := range siteIDs {
		if err := o.RunSite(ctx, siteID); err != nil {
			log.Printf("Error running site %s: %v", siteID, err)
		}
	}

	return nil
}

func (o *Orchestrator) RunSite(ctx context.Context, siteID string) error {
	siteCfg, ok := o.cfg.Sites[siteID]
	if !ok {
		return fmt.Errorf("unknown site: %s", siteID)
	}

	handler, ok := o.handlers[siteID]
	if !ok {
		return fmt.Errorf("no handler for site: %s", siteID)
	}

	dealerID, err := uuid.Parse(siteCfg.DealerID)
	if err != nil {
		return fmt.Errorf("site %s: bad dealer_id %q: %w", siteID, siteCfg.DealerID, err)
	}

	run := &models.ImportRun{
		Source:    siteID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.ops.CreateRun(run)
	if err != nil {
		return err
	}
	run.ID = runID

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if run.Status == models.RunStatusRunning {
			run.Status = models.RunStatusCompleted
		}
		o.ops.UpdateRun(run)
		o.ops.UpdateSourceStats(siteID)
	}()

	var ckpt *checkpoint.File
	if siteCfg.Checkpoint {
		if err := os.MkdirAll(o.cfg.Scraper.CheckpointDir, 0755); err != nil {
			run.Status = models.RunStatusFailed
			return fmt.Errorf("checkpoint dir: %w", err)
		}
		path := filepath.Join(o.cfg.Scraper.CheckpointDir, siteID+".json")
		ckpt, err = checkpoint.Load(path)
		if err != nil {
			run.Status = models.RunStatusFailed
			return fmt.Errorf("load checkpoint: %w", err)
		}
	}

	driver := importer.NewDriver(o.newGateway(siteCfg))

	delay := time.Duration(siteCfg.RateLimitMS) * time.Millisecond
	if delay == 0 {
		delay = time.Duration(o.cfg.Scraper.DelayMS) * time.Millisecond
	}

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", siteCfg.Name), siteID)
	if last, err := o.ops.GetLastRunTime(siteID); err == nil && !last.IsZero() {
		log.Printf("Last run for %s: %s ago", siteID, time.Since(last).Round(time.Minute))
	}

	var sectionIDs []string
	for id := range siteCfg.Sections {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)

	for _, sectionID := range sectionIDs {
		section := siteCfg.Sections[sectionID]

		if ckpt != nil {
			if done := ckpt.Imported(sectionID); done > 0 {
				log.Printf("Resuming section %s: %d imported in earlier runs", sectionID, done)
			}
		}

		maxPages := siteCfg.MaxPages
		if maxPages == 0 {
			maxPages = 100
		}

		for page := 1; page <= maxPages; page++ {
			if ckpt != nil && ckpt.PageDone(sectionID, page) {
				continue
			}

			rows, err := handler.ScrapePage(ctx, section, page)
			if err != nil {
				o.log(run.ID, models.LogLevelError,
					fmt.Sprintf("Scrape error for %s page %d: %v", sectionID, page, err), siteID)
				run.ErrorsCount++
				break
			}
			if len(rows) == 0 {
				o.log(run.ID, models.LogLevelInfo,
					fmt.Sprintf("Section %s exhausted at page %d", sectionID, page), siteID)
				break
			}

			summary := driver.Run(ctx, dealerID, rows)
			run.RowsFound += summary.RowsFound
			run.Imported += summary.Imported
			run.Skipped += summary.Skipped
			run.ErrorsCount += summary.Errors

			o.log(run.ID, models.LogLevelInfo,
				fmt.Sprintf("Section %s page %d: %s", sectionID, page, summary), siteID)

			if ckpt != nil {
				if err := ckpt.MarkDone(sectionID, page, summary.Imported); err != nil {
					log.Printf("Warning: checkpoint write failed: %v", err)
				}
			}

			httputil.RandomDelay(delay, delay*2)
		}
	}

	handler.Close()

	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d found, %d imported, %d skipped, %d errors",
			run.RowsFound, run.Imported, run.Skipped, run.ErrorsCount), siteID)

	return nil
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, siteID string) {
	log.Printf("[%s] %s: %s", level, siteID, message)
	o.ops.Log(&runID, level, message, siteID)
}
