package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/images"
	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/manifest"
)

// ManifestFile is the name of the card manifest in the card source root.
const ManifestFile = "manifest.json"

// CardSources builds the card manifest, persists it and downloads every
// source that is not on disk yet.
func (p *Pipeline) CardSources(ctx context.Context) error {
	return p.withRun(ctx, TaskCardSources, func(ctx context.Context, runID string) error {
		reporter := p.opts.NewReporter(TaskCardSources)
		reporter.Update("Saving sources")

		root := p.sourcesDir("card")
		m, err := manifest.NewBuilder(p.catalog, p.resolver, root, p.logger, reporter).Build(ctx)
		if err != nil {
			return err
		}

		if err := m.WriteFile(p.sourcesDir("card", ManifestFile)); err != nil {
			return err
		}

		if err := p.downloader(runID).Acquire(ctx, m, reporter); err != nil {
			return err
		}

		reporter.Done("Source files saved")
		return nil
	})
}

// CardProcess transforms the card sources of every expansion into every
// card size.
func (p *Pipeline) CardProcess(ctx context.Context) error {
	return p.withRun(ctx, TaskCardProcess, func(ctx context.Context, runID string) error {
		reporter := p.opts.NewReporter(TaskCardProcess)
		reporter.Update("Processing cards")

		expansions := p.catalog.Expansions()

		g, _ := errgroup.WithContext(ctx)
		for _, size := range images.CardSizes {
			for _, exp := range expansions {
				dir := p.assetsDir("card", size.Letter, exp.Code)
				g.Go(func() error {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create asset directory: %w", err)
					}
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var total images.Stats
		for _, exp := range expansions {
			for _, size := range images.CardSizes {
				reporter.Update(fmt.Sprintf("%s %s", exp.Code, strings.ToUpper(size.Letter)))

				stats, err := p.engine(runID, "card/"+size.Letter).Optimize(ctx, images.TransformSpec{
					InDir:   p.sourcesDir("card", exp.Code),
					OutDir:  p.assetsDir("card", size.Letter, exp.Code),
					Formats: images.CardFormats(size),
					Resize:  size.Resize,
					Sharpen: size.Resize != nil,
				})
				if err != nil {
					return fmt.Errorf("process %s %s: %w", exp.Code, size.Letter, err)
				}
				total = addStats(total, stats)
			}
		}

		logStats(p.logger, TaskCardProcess, total)
		reporter.Done("Cards processed")
		return nil
	})
}

func addStats(a, b images.Stats) images.Stats {
	return images.Stats{
		Sources: a.Sources + b.Sources,
		Written: a.Written + b.Written,
		Skipped: a.Skipped + b.Skipped,
		Failed:  a.Failed + b.Failed,
	}
}

func logStats(logger *zap.Logger, task string, stats images.Stats) {
	fields := []zap.Field{
		zap.String("task", task),
		zap.Int("written", stats.Written),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	}
	if stats.Failed > 0 {
		logger.Warn("Some variants could not be written", fields...)
		return
	}
	logger.Info("Variants processed", fields...)
}
