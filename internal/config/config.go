// Package config loads the TOML configuration of the asset pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the configuration file read when --config is not given.
const DefaultPath = "ptcgo-assets.toml"

// Config represents the pipeline configuration.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Paths    PathsConfig    `toml:"paths"`
	Download DownloadConfig `toml:"download"`
	Process  ProcessConfig  `toml:"process"`
	Watch    WatchConfig    `toml:"watch"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Log      LogConfig      `toml:"log"`
}

// CatalogConfig locates the catalog tables.
type CatalogConfig struct {
	Expansions string `toml:"expansions"` // expansions.json
	Items      string `toml:"items"`      // items.json
	SetMap     string `toml:"set_map"`    // ptcgo-set-map.json
}

// PathsConfig contains the roots of the file tree.
type PathsConfig struct {
	Sources  string `toml:"sources"`  // Downloaded source images
	Assets   string `toml:"assets"`   // Produced variants
	External string `toml:"external"` // Hand-maintained sources (packs, symbol overrides)
}

// DownloadConfig contains source acquisition settings.
type DownloadConfig struct {
	CDNBase      string `toml:"cdn_base"`      // Card art CDN root
	SetsAPI      string `toml:"sets_api"`      // Sets API root
	RateInterval string `toml:"rate_interval"` // Minimum delay between requests (e.g., "100ms")
	Timeout      string `toml:"timeout"`       // Per request timeout (e.g., "60s")
	UserAgent    string `toml:"user_agent"`
	MaxRetries   int    `toml:"max_retries"` // Retries after network errors and HTTP 429
}

// ProcessConfig contains transform settings.
type ProcessConfig struct {
	MaxConcurrency int `toml:"max_concurrency"` // Source files processed at once (0 = unlimited)
}

// WatchConfig contains watch mode settings.
type WatchConfig struct {
	Debounce string `toml:"debounce"` // Quiet period before re-processing (e.g., "2s")
}

// LedgerConfig contains asset ledger settings.
type LedgerConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`   // SQLite database
	Report  string `toml:"report"` // HTML size report
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level    string `toml:"level"`    // debug, info, warn, error
	Encoding string `toml:"encoding"` // console or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Expansions: "data/expansions.json",
			Items:      "data/items.json",
			SetMap:     "data/ptcgo-set-map.json",
		},
		Paths: PathsConfig{
			Sources:  "sources",
			Assets:   "assets",
			External: "external",
		},
		Download: DownloadConfig{
			CDNBase:      "https://cdn.malie.io/file/malie-io/art/cards/png/en_US/",
			SetsAPI:      "https://api.pokemontcg.io/v1",
			RateInterval: "100ms",
			Timeout:      "60s",
			UserAgent:    "PTCGO-Assets/1.0",
			MaxRetries:   2,
		},
		Process: ProcessConfig{
			MaxConcurrency: 0,
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    "ledger/assets.db",
			Report:  "ledger/sizes.html",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load loads the configuration from path. Returns the default config if the
// file doesn't exist. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Catalog.Expansions == "" || c.Catalog.Items == "" || c.Catalog.SetMap == "" {
		return errors.New("catalog paths cannot be empty")
	}

	if c.Paths.Sources == "" || c.Paths.Assets == "" {
		return errors.New("sources and assets paths cannot be empty")
	}

	if _, err := c.RateInterval(); err != nil {
		return fmt.Errorf("invalid rate interval %q: %w", c.Download.RateInterval, err)
	}

	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Download.Timeout, err)
	}

	if c.Download.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", c.Download.MaxRetries)
	}

	if c.Process.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative: %d", c.Process.MaxConcurrency)
	}

	if _, err := c.Debounce(); err != nil {
		return fmt.Errorf("invalid watch debounce %q: %w", c.Watch.Debounce, err)
	}

	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return errors.New("ledger path cannot be empty when the ledger is enabled")
	}

	switch c.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log encoding %q", c.Log.Encoding)
	}

	return nil
}

// RateInterval returns the download rate interval as a duration.
func (c *Config) RateInterval() (time.Duration, error) {
	return time.ParseDuration(c.Download.RateInterval)
}

// Timeout returns the download timeout as a duration.
func (c *Config) Timeout() (time.Duration, error) {
	return time.ParseDuration(c.Download.Timeout)
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() (time.Duration, error) {
	return time.ParseDuration(c.Watch.Debounce)
}
