package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/images"
)

// ExpansionSources downloads the symbol and logo of every catalog expansion
// listed by the sets API.
func (p *Pipeline) ExpansionSources(ctx context.Context) error {
	return p.withRun(ctx, TaskExpansionSources, func(ctx context.Context, runID string) error {
		reporter := p.opts.NewReporter(TaskExpansionSources)
		reporter.Update("Downloading expansion sources")

		sets, err := p.sets.GetSets(ctx)
		if err != nil {
			return err
		}
		index := sets.ByPtcgoCode()

		symbolDir := p.sourcesDir("expansion", "symbol")
		logoDir := p.sourcesDir("expansion", "logo")
		for _, dir := range []string{symbolDir, logoDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create source directory: %w", err)
			}
		}

		d := p.downloader(runID)
		for _, exp := range p.catalog.Expansions() {
			if err := ctx.Err(); err != nil {
				return err
			}
			reporter.Update(exp.Code)

			set, ok := index[exp.Code]
			if !ok {
				p.logger.Warn("Skipping image downloads for expansion", zap.String("expansion", exp.Code))
				continue
			}

			downloads := []struct{ url, dir string }{
				{set.SymbolURL, symbolDir},
				{set.LogoURL, logoDir},
			}
			for _, dl := range downloads {
				if dl.url == "" {
					p.logger.Warn("Expansion artwork missing", zap.String("expansion", exp.Code), zap.String("dir", dl.dir))
					continue
				}
				if _, err := d.Download(ctx, dl.url, filepath.Join(dl.dir, exp.Code+".png")); err != nil {
					p.logger.Error("Download failed", zap.String("expansion", exp.Code), zap.String("url", dl.url), zap.Error(err))
					return fmt.Errorf("download %s artwork: %w", exp.Code, err)
				}
			}
		}

		reporter.Done("Downloaded expansion sources")
		return nil
	})
}

// ExpansionProcess transforms logos, symbols and pack images. Symbols found
// in the external tree replace the downloaded ones.
func (p *Pipeline) ExpansionProcess(ctx context.Context) error {
	return p.withRun(ctx, TaskExpansionProcess, func(ctx context.Context, runID string) error {
		reporter := p.opts.NewReporter(TaskExpansionProcess)
		reporter.Update("Processing expansions")

		dirs := []string{p.assetsDir("expansion", "symbol"), p.assetsDir("expansion", "logo")}
		for _, size := range images.PackSizes {
			dirs = append(dirs, p.assetsDir("expansion", "pack", size.Letter))
		}
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create asset directory: %w", err)
			}
		}

		logo := images.LogoResize
		symbol := images.SymbolResize

		type step struct {
			status string
			family string
			spec   images.TransformSpec
		}
		steps := []step{
			{"Logos", "expansion/logo", images.TransformSpec{
				InDir:   p.sourcesDir("expansion", "logo"),
				OutDir:  p.assetsDir("expansion", "logo"),
				Resize:  &logo,
				Formats: []images.Format{images.PNG, images.WebP},
			}},
			// Webp symbols are bigger than png ones.
			{"Symbols", "expansion/symbol", images.TransformSpec{
				InDir:   p.sourcesDir("expansion", "symbol"),
				OutDir:  p.assetsDir("expansion", "symbol"),
				Resize:  &symbol,
				Formats: []images.Format{images.PNG},
			}},
			{"Symbols", "expansion/symbol", images.TransformSpec{
				InDir:    p.externalDir("expansion", "symbol"),
				OutDir:   p.assetsDir("expansion", "symbol"),
				Resize:   &symbol,
				Formats:  []images.Format{images.PNG},
				Override: true,
			}},
		}
		for _, size := range images.PackSizes {
			steps = append(steps, step{
				status: "Packs " + strings.ToUpper(size.Letter),
				family: "expansion/pack/" + size.Letter,
				spec: images.TransformSpec{
					InDir:   p.externalDir("expansion", "pack"),
					OutDir:  p.assetsDir("expansion", "pack", size.Letter),
					Resize:  size.Resize,
					Formats: []images.Format{images.PNG, images.WebP},
				},
			})
		}

		var total images.Stats
		for _, s := range steps {
			reporter.Update(s.status)
			stats, err := p.engine(runID, s.family).Optimize(ctx, s.spec)
			if err != nil {
				return fmt.Errorf("process %s: %w", s.spec.InDir, err)
			}
			total = addStats(total, stats)
		}

		logStats(p.logger, TaskExpansionProcess, total)
		reporter.Done("Expansions processed")
		return nil
	})
}
