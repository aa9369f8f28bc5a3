package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"axles_ingest/config"
	"axles_ingest/httputil"
	"axles_ingest/importer"
	"axles_ingest/logging"
	"axles_ingest/models"
	"axles_ingest/scheduler"
	"axles_ingest/scraper"
	"axles_ingest/services"
	"axles_ingest/storage"
	"axles_ingest/workers"
)

var (
	importFile = flag.String("import", "", "Import a CSV inventory file and exit")
	dealerFlag = flag.String("dealer", "", "Dealer profile UUID or company name for -import")
	dedupFlag  = flag.String("dedup", "title", "Dedup strategy for -import: vin or title")

	scrapeNow = flag.Bool("scrape", false, "Run all site scrapes once and exit")
	siteFlag  = flag.String("site", "", "Run one site scrape and exit")
	statsFlag = flag.String("stats", "", "Print run stats for a source and exit")

	searchFlag    = flag.Bool("search", false, "Search active listings and exit")
	categoryFlag  = flag.String("category", "", "Search: category slug")
	makeFlag      = flag.String("make", "", "Search: manufacturer")
	conditionFlag = flag.String("condition", "", "Search: condition")
	minPriceFlag  = flag.Float64("min-price", 0, "Search: minimum price")
	maxPriceFlag  = flag.Float64("max-price", 0, "Search: maximum price")
	limitFlag     = flag.Int("limit", 0, "Max results for -search, page cap for -scrape/-site")

	recaseTitles = flag.Bool("cleanup-titles", false, "Recase shouty listing titles and exit")
	backfillCats = flag.Bool("backfill-categories", false, "Categorize uncategorized listings and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("daemon.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting axles_ingest...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s)", site.Name, id)
	}

	ctx := context.Background()

	var pgStore *storage.PostgresStore
	if cfg.Database.URL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))
	}

	newGateway := gatewayFactory(cfg, pgStore)

	// One-shot commands
	switch {
	case *importFile != "":
		runImport(ctx, cfg, pgStore, newGateway, *importFile)
		return
	case *searchFlag:
		runSearch(ctx, pgStore)
		return
	case *recaseTitles:
		requirePostgres(pgStore)
		n, err := services.NewCleanupService(pgStore).RecaseTitles(ctx, 0)
		if err != nil {
			log.Fatalf("Recase failed after %d updates: %v", n, err)
		}
		log.Printf("Recased %d titles", n)
		return
	case *backfillCats:
		requirePostgres(pgStore)
		n, err := services.NewCleanupService(pgStore).BackfillCategories(ctx, 0)
		if err != nil {
			log.Fatalf("Backfill failed after %d updates: %v", n, err)
		}
		log.Printf("Backfilled %d categories", n)
		return
	}

	clients := httputil.NewClients(cfg.ProxyURL)

	opsStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer opsStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	if *statsFlag != "" {
		printStats(opsStore, *statsFlag)
		return
	}

	if *limitFlag > 0 {
		for _, site := range cfg.Sites {
			site.MaxPages = *limitFlag
		}
	}
	orchestrator := scraper.NewOrchestrator(cfg, opsStore, clients, newGateway)

	if *siteFlag != "" {
		if err := orchestrator.RunSite(ctx, *siteFlag); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		return
	}
	if *scrapeNow {
		log.Println("Running scrape...")
		if err := orchestrator.RunAll(ctx); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	// Daemon mode
	requirePostgres(pgStore)

	sched := scheduler.New(cfg, orchestrator)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	var uploader workers.Uploader
	if cfg.S3.Bucket != "" {
		s3up, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to init S3 uploader: %v", err)
		}
		uploader = s3up
		log.Printf("S3 uploads enabled: %s", cfg.S3.Bucket)
	} else {
		log.Println("S3 not configured, images verified in place")
	}

	imageWorker := workers.NewImageWorker(pgStore, uploader)
	sched.SetImageWorker(imageWorker)
	go imageWorker.Run(ctx, 50, 5*time.Minute)
	log.Println("Image worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

// gatewayFactory binds a site's dedup strategy and category defaults to
// the configured backend.
func gatewayFactory(cfg *config.Config, pgStore *storage.PostgresStore) scraper.GatewayFactory {
	return func(site *config.SiteConfig) importer.Gateway {
		if cfg.Gateway == "rest" {
			return storage.NewRESTGateway(cfg.Supabase.URL, cfg.Supabase.ServiceKey,
				site.Dedup, site.DefaultCategory, site.FallbackCategory)
		}
		if pgStore == nil {
			log.Fatal("DATABASE_URL is required for the postgres gateway")
		}
		return services.NewIngestService(pgStore, site.Dedup, site.DefaultCategory, site.FallbackCategory)
	}
}

func runImport(ctx context.Context, cfg *config.Config, pgStore *storage.PostgresStore, newGateway scraper.GatewayFactory, path string) {
	dealerID := resolveDealer(ctx, pgStore)

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	fields := importer.Parse(string(raw))
	log.Printf("Parsed %d rows from %s", len(fields), path)

	// CSV imports are configured like an ad hoc site.
	site := &config.SiteConfig{Dedup: models.DedupStrategy(*dedupFlag)}
	driver := importer.NewDriver(newGateway(site))
	if cfg.Gateway == "rest" {
		// every row is a remote call on this path
		driver.SetDelay(200 * time.Millisecond)
	}

	summary, validationErrs := driver.ImportBatch(ctx, dealerID, fields)
	if len(validationErrs) > 0 {
		log.Printf("Import rejected: %d validation errors", len(validationErrs))
		for _, e := range validationErrs {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Error())
		}
		os.Exit(1)
	}

	log.Printf("Import complete: %s", summary)
}

// resolveDealer accepts either a profile UUID or a company name for the
// -dealer flag. The direct-Postgres path also verifies the profile exists
// so a typo does not seed listings under a phantom dealer.
func resolveDealer(ctx context.Context, pgStore *storage.PostgresStore) uuid.UUID {
	if *dealerFlag == "" {
		log.Fatal("-import requires -dealer (profile UUID or company name)")
	}

	if dealerID, err := uuid.Parse(*dealerFlag); err == nil {
		if pgStore != nil {
			profile, err := pgStore.GetProfileByID(ctx, dealerID)
			if err != nil {
				log.Fatalf("Failed to look up dealer: %v", err)
			}
			if profile == nil {
				log.Fatalf("No dealer profile with id %s", dealerID)
			}
			log.Printf("Importing for dealer: %s", profile.CompanyName)
		}
		return dealerID
	}

	requirePostgres(pgStore)
	profile, err := pgStore.GetProfileByCompanyName(ctx, *dealerFlag)
	if err != nil {
		log.Fatalf("Failed to look up dealer: %v", err)
	}
	if profile == nil {
		log.Fatalf("No dealer profile named %q", *dealerFlag)
	}
	log.Printf("Importing for dealer: %s (%s)", profile.CompanyName, profile.ID)
	return profile.ID
}

func runSearch(ctx context.Context, pgStore *storage.PostgresStore) {
	requirePostgres(pgStore)

	params := storage.SearchParams{
		CategorySlug: *categoryFlag,
		Make:         *makeFlag,
		Condition:    *conditionFlag,
		Limit:        *limitFlag,
	}
	if *minPriceFlag > 0 {
		params.MinPrice = minPriceFlag
	}
	if *maxPriceFlag > 0 {
		params.MaxPrice = maxPriceFlag
	}

	listings, err := pgStore.SearchListings(ctx, params)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if len(listings) == 0 {
		fmt.Println("No listings found")
		return
	}
	for _, l := range listings {
		price := "call for price"
		if l.Price != nil {
			price = fmt.Sprintf("$%.0f", *l.Price)
		}
		fmt.Printf("%s  %-60s %-10s %s\n", l.ID, l.Title, l.Condition, price)
	}
}

func printStats(opsStore *storage.SQLiteStore, source string) {
	stats, err := opsStore.GetSourceStats(source)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	if stats == nil {
		fmt.Printf("No runs recorded for %s\n", source)
		return
	}

	fmt.Printf("Source:        %s\n", stats.Source)
	if stats.LastRunAt != nil {
		fmt.Printf("Last run:      %s (%s)\n", stats.LastRunAt.Format(time.RFC3339), stats.LastRunStatus)
	}
	fmt.Printf("Imported:      %d\n", stats.TotalImported)
	fmt.Printf("Skipped:       %d\n", stats.TotalSkipped)
	fmt.Printf("Success rate:  %.0f%%\n", stats.SuccessRate*100)
	fmt.Printf("Avg duration:  %ds\n", stats.AvgRunDurationSec)
}

func requirePostgres(pgStore *storage.PostgresStore) {
	if pgStore == nil {
		log.Fatal("DATABASE_URL is required for this command")
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
