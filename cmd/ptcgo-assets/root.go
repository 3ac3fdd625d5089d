package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/download"
	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/resolver"
	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
	"github.com/ramonehamilton/PTCGO-Assets/internal/config"
	"github.com/ramonehamilton/PTCGO-Assets/internal/logging"
	"github.com/ramonehamilton/PTCGO-Assets/internal/pipeline"
	"github.com/ramonehamilton/PTCGO-Assets/internal/ptcgio"
	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "ptcgo-assets",
	Short: "Build the PTCGO card and expansion asset tree",
	Long: `ptcgo-assets downloads the canonical card and expansion artwork once
and turns it into resized, compressed jpg, png and webp variants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log encoding (console, json)")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Encoding = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// env is everything a command needs to run pipeline tasks.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *storage.DB
	ledger   *storage.Ledger
	pipeline *pipeline.Pipeline
}

func (e *env) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warn("Failed to close ledger", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	e := &env{cfg: cfg, logger: logger}

	cat, err := catalog.LoadFiles(catalog.Files{
		Expansions: cfg.Catalog.Expansions,
		Items:      cfg.Catalog.Items,
		SetMap:     cfg.Catalog.SetMap,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	res, err := resolver.New(cat, resolver.WithBaseURL(cfg.Download.CDNBase))
	if err != nil {
		logger.Error("Invalid PTCGO set map", zap.Error(err))
		e.Close()
		return nil, err
	}

	if cfg.Ledger.Enabled {
		if err := e.openLedger(); err != nil {
			e.Close()
			return nil, err
		}
	}

	fetcher := download.NewHTTPFetcher(httpOptions(cfg))
	e.pipeline = pipeline.New(cat, res, fetcher, ptcgio.NewClient(fetcher, cfg.Download.SetsAPI), logger, pipeline.Options{
		SourcesDir:     cfg.Paths.Sources,
		AssetsDir:      cfg.Paths.Assets,
		ExternalDir:    cfg.Paths.External,
		MaxConcurrency: cfg.Process.MaxConcurrency,
		Ledger:         e.ledger,
	})

	return e, nil
}

func (e *env) openLedger() error {
	db, err := storage.Open(storage.DefaultConfig(e.cfg.Ledger.Path))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	e.db = db
	e.ledger = storage.NewLedger(db)
	return nil
}

func httpOptions(cfg *config.Config) download.HTTPOptions {
	opts := download.DefaultHTTPOptions()
	if d, err := cfg.RateInterval(); err == nil {
		opts.RateInterval = d
	}
	if d, err := cfg.Timeout(); err == nil {
		opts.Timeout = d
	}
	opts.UserAgent = cfg.Download.UserAgent
	opts.MaxRetries = cfg.Download.MaxRetries
	return opts
}
