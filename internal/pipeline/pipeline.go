// Package pipeline sequences the asset steps: building and downloading
// sources, then transforming them into distributable variants.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/download"
	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/images"
	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/resolver"
	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
	"github.com/ramonehamilton/PTCGO-Assets/internal/progress"
	"github.com/ramonehamilton/PTCGO-Assets/internal/ptcgio"
	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

// Task names.
const (
	TaskCardSources      = "card-sources"
	TaskExpansionSources = "expansion-sources"
	TaskCardProcess      = "card-process"
	TaskExpansionProcess = "expansion-process"
	TaskSources          = "sources"
	TaskProcess          = "process"
	TaskAssets           = "assets"
)

// ErrUnknownTask is returned by Task for names that are not registered.
var ErrUnknownTask = errors.New("unknown task")

// SetLister lists the expansions known to the sets API.
type SetLister interface {
	GetSets(ctx context.Context) (*ptcgio.SetList, error)
}

// Options configures a Pipeline.
type Options struct {
	SourcesDir  string
	AssetsDir   string
	ExternalDir string

	// MaxConcurrency caps the source files transformed at once (0 = no cap).
	MaxConcurrency int

	// Ledger records runs, downloads and variants when set.
	Ledger *storage.Ledger

	// NewReporter creates the progress reporter of a step. Defaults to
	// logging through the pipeline logger.
	NewReporter func(step string) progress.Reporter
}

// Pipeline runs the asset tasks over one catalog.
type Pipeline struct {
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	fetcher  download.Fetcher
	sets     SetLister
	logger   *zap.Logger
	opts     Options
}

// New creates a pipeline.
func New(cat *catalog.Catalog, res *resolver.Resolver, fetcher download.Fetcher, sets SetLister, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SourcesDir == "" {
		opts.SourcesDir = "sources"
	}
	if opts.AssetsDir == "" {
		opts.AssetsDir = "assets"
	}
	if opts.ExternalDir == "" {
		opts.ExternalDir = "external"
	}
	if opts.NewReporter == nil {
		opts.NewReporter = func(step string) progress.Reporter {
			return progress.NewLogReporter(logger, step)
		}
	}
	return &Pipeline{
		catalog:  cat,
		resolver: res,
		fetcher:  fetcher,
		sets:     sets,
		logger:   logger,
		opts:     opts,
	}
}

// Tasks returns every task keyed by name.
func (p *Pipeline) Tasks() map[string]Task {
	cardSources := NewTask(TaskCardSources, p.CardSources)
	expansionSources := NewTask(TaskExpansionSources, p.ExpansionSources)
	cardProcess := NewTask(TaskCardProcess, p.CardProcess)
	expansionProcess := NewTask(TaskExpansionProcess, p.ExpansionProcess)

	tasks := []Task{
		cardSources,
		expansionSources,
		cardProcess,
		expansionProcess,
		Parallel(TaskSources, cardSources, expansionSources),
		Parallel(TaskProcess, cardProcess, expansionProcess),
		Parallel(TaskAssets,
			Series("cards", cardSources, cardProcess),
			Series("expansions", expansionSources, expansionProcess),
		),
	}

	registry := make(map[string]Task, len(tasks))
	for _, task := range tasks {
		registry[task.Name()] = task
	}
	return registry
}

// TaskNames returns the registered task names in sorted order.
func (p *Pipeline) TaskNames() []string {
	tasks := p.Tasks()
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the named task.
func (p *Pipeline) Run(ctx context.Context, name string) error {
	task, ok := p.Tasks()[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	p.logger.Info("Starting task", zap.String("task", name))
	if err := task.Run(ctx); err != nil {
		return err
	}
	p.logger.Info("Finished task", zap.String("task", name))
	return nil
}

// withRun records fn as a ledger run when a ledger is configured. A ledger
// failure is logged and never fails the step.
func (p *Pipeline) withRun(ctx context.Context, task string, fn func(ctx context.Context, runID string) error) error {
	if p.opts.Ledger == nil {
		return fn(ctx, "")
	}

	run, err := p.opts.Ledger.StartRun(ctx, task)
	if err != nil {
		p.logger.Warn("Failed to record run", zap.String("task", task), zap.Error(err))
		return fn(ctx, "")
	}

	runErr := fn(ctx, run.ID)
	if err := p.opts.Ledger.FinishRun(context.WithoutCancel(ctx), run.ID, runErr); err != nil {
		p.logger.Warn("Failed to finish run", zap.String("task", task), zap.String("run", run.ID), zap.Error(err))
	}
	return runErr
}

func (p *Pipeline) downloader(runID string) *download.Downloader {
	var opts []download.Option
	if p.opts.Ledger != nil {
		opts = append(opts, download.WithRecorder(downloadRecorder{ledger: p.opts.Ledger, runID: runID}))
	}
	return download.NewDownloader(p.fetcher, p.logger, opts...)
}

func (p *Pipeline) engine(runID, family string) *images.Engine {
	opts := []images.Option{images.WithMaxConcurrency(p.opts.MaxConcurrency)}
	if p.opts.Ledger != nil {
		opts = append(opts, images.WithObserver(variantRecorder{ledger: p.opts.Ledger, runID: runID, family: family}))
	}
	return images.NewEngine(p.logger, opts...)
}

func (p *Pipeline) sourcesDir(elem ...string) string {
	return filepath.Join(append([]string{p.opts.SourcesDir}, elem...)...)
}

func (p *Pipeline) assetsDir(elem ...string) string {
	return filepath.Join(append([]string{p.opts.AssetsDir}, elem...)...)
}

func (p *Pipeline) externalDir(elem ...string) string {
	return filepath.Join(append([]string{p.opts.ExternalDir}, elem...)...)
}
