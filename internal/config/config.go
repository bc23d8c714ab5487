package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config is read from the environment (and a .env file when present).
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	SiteURL       string `envconfig:"SITE_URL" default:"http://localhost:8080"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"secret_key_change_me"`
	TemplatesDir  string `envconfig:"TEMPLATES_DIR" default:"./web/templates"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"crushboard"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	Timezone            string        `envconfig:"TIMEZONE" default:"UTC"`
	RecentWindow        time.Duration `envconfig:"RECENT_WINDOW" default:"168h"`
	RepartitionInterval time.Duration `envconfig:"REPARTITION_INTERVAL" default:"1h"`
	CacheSize           int           `envconfig:"CACHE_SIZE" default:"500"`
	CacheTTL            time.Duration `envconfig:"CACHE_TTL" default:"1m"`

	WriteRPS   float64 `envconfig:"WRITE_RPS" default:"2"`
	WriteBurst int     `envconfig:"WRITE_BURST" default:"5"`
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, finding env vars from system")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RecentWindow <= 0 {
		return fmt.Errorf("RECENT_WINDOW must be positive, got %s", c.RecentWindow)
	}
	if c.WriteRPS <= 0 || c.WriteBurst <= 0 {
		return fmt.Errorf("WRITE_RPS and WRITE_BURST must be positive")
	}
	c.SiteURL = strings.TrimSuffix(c.SiteURL, "/")
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// ShareURL is the deep link to one confession.
func (c *Config) ShareURL(confessionID string) string {
	return c.SiteURL + "/?confessionId=" + confessionID
}

// NewForTesting returns a config with in-memory storage and defaults filled in.
func NewForTesting() *Config {
	return &Config{
		Port:                "8080",
		SiteURL:             "http://localhost:8080",
		SessionSecret:       "test-secret",
		TemplatesDir:        "./web/templates",
		StoreDriver:         DriverMemory,
		LogLevel:            "debug",
		Timezone:            "UTC",
		RecentWindow:        7 * 24 * time.Hour,
		RepartitionInterval: time.Hour,
		CacheSize:           100,
		CacheTTL:            time.Minute,
		WriteRPS:            100,
		WriteBurst:          100,
	}
}
