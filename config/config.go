package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"axles_ingest/models"
)

type Config struct {
	Database  DatabaseConfig
	Supabase  SupabaseConfig
	S3        S3Config
	Scheduler SchedulerConfig
	Scraper   ScraperConfig
	Gateway   string // "postgres" or "rest"
	DBPath    string // local operational SQLite
	ProxyURL  string
	LogLevel  string
	Sites     map[string]*SiteConfig
}

type DatabaseConfig struct {
	URL string
}

type SupabaseConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	DelayMS       int
	CheckpointDir string
}

// SiteConfig describes one dealer inventory source. Per-site selector
// heuristics live in YAML so a markup change is a config edit, not a
// code change.
type SiteConfig struct {
	ID               string               `yaml:"id"`
	Name             string               `yaml:"name"`
	Handler          string               `yaml:"handler"` // html, browser
	BaseURL          string               `yaml:"base_url"`
	DealerID         string               `yaml:"dealer_id"` // profile UUID owning imported listings
	RateLimitMS      int                  `yaml:"rate_limit_ms"`
	MaxPages         int                  `yaml:"max_pages"`
	Dedup            models.DedupStrategy `yaml:"dedup"`
	DefaultCategory  string               `yaml:"default_category"`
	FallbackCategory string               `yaml:"fallback_category"`
	Checkpoint       bool                 `yaml:"checkpoint"`
	Sections         map[string]Section   `yaml:"sections"`
	Selectors        Selectors            `yaml:"selectors"`
}

// Section is one logical slice of a site: a dealer location or a listing
// type, each with its own paginated path.
type Section struct {
	Path            string `yaml:"path"` // printf template with one %d page placeholder
	DefaultCategory string `yaml:"default_category"`
}

type Selectors struct {
	Item      string `yaml:"item"`
	Title     string `yaml:"title"`
	Price     string `yaml:"price"`
	Condition string `yaml:"condition"`
	Link      string `yaml:"link"`
	Image     string `yaml:"image"`
	ImageAttr string `yaml:"image_attr"` // defaults to src
	Location  string `yaml:"location"`
	Stock     string `yaml:"stock"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Supabase: SupabaseConfig{
			URL:        os.Getenv("SUPABASE_URL"),
			AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			DelayMS:       getEnvInt("SCRAPE_DELAY_MS", 1500),
			CheckpointDir: getEnv("CHECKPOINT_DIR", "checkpoints"),
		},
		Gateway:  getEnv("IMPORT_GATEWAY", "postgres"),
		DBPath:   getEnv("DB_PATH", "ingest.db"),
		ProxyURL: os.Getenv("PROXY_URL"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Sites:    make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSiteConfigs() error {
	configDir := "config/sites"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return err
		}
		if site.Dedup == "" {
			site.Dedup = models.DedupByTitle
		}
		if site.Selectors.ImageAttr == "" {
			site.Selectors.ImageAttr = "src"
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
