// Package images turns source images into resized and compressed output
// variants.
package images

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TransformSpec describes one batch of variants.
type TransformSpec struct {
	InDir    string
	OutDir   string
	Formats  []Format
	Resize   *Resize // Nil keeps the source size
	Sharpen  bool
	Override bool // Rewrite variants that already exist
}

// Validate checks a TransformSpec before any file is touched.
func (s TransformSpec) Validate() error {
	if s.InDir == "" || s.OutDir == "" {
		return errors.New("input and output directories are required")
	}
	if len(s.Formats) == 0 {
		return errors.New("at least one output format is required")
	}
	for _, f := range s.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return err
		}
	}
	if s.Resize != nil {
		return s.Resize.Validate()
	}
	return nil
}

// Variant is a written output file.
type Variant struct {
	Path   string
	Source string
	Format Format
	Bytes  int64
}

// Observer is notified of every variant written.
type Observer interface {
	VariantWritten(ctx context.Context, v Variant) error
}

// WriteFunc stores encoded bytes at path.
type WriteFunc func(path string, data []byte) error

// Stats summarizes an Optimize call.
type Stats struct {
	Sources int
	Written int
	Skipped int
	Failed  int
}

// Engine runs transform batches.
type Engine struct {
	logger         *zap.Logger
	observer       Observer
	write          WriteFunc
	maxConcurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer for written variants.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithWriteFunc replaces the file writer.
func WithWriteFunc(fn WriteFunc) Option {
	return func(e *Engine) { e.write = fn }
}

// WithMaxConcurrency caps the number of source files processed at once.
// Zero or less means no cap.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) { e.maxConcurrency = n }
}

// NewEngine creates an engine.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{logger: logger, write: writeFile}
	for _, opt := range opts {
		opt(e)
	}
	startVips(logger)
	return e
}

type counters struct {
	written atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Optimize produces every variant of every *.png in spec.InDir. Existing
// variants are skipped unless spec.Override is set. A variant that cannot be
// written is retried once and then logged; it never fails the batch. The
// returned error is limited to invalid specs, unreadable input directories
// and cancellation.
func (e *Engine) Optimize(ctx context.Context, spec TransformSpec) (Stats, error) {
	if err := spec.Validate(); err != nil {
		return Stats{}, fmt.Errorf("invalid transform spec: %w", err)
	}

	if err := os.MkdirAll(spec.OutDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create %s: %w", spec.OutDir, err)
	}

	files, err := filepath.Glob(filepath.Join(spec.InDir, "*.png"))
	if err != nil {
		return Stats{}, fmt.Errorf("list %s: %w", spec.InDir, err)
	}

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return e.processFile(gctx, spec, file, &c)
		})
	}

	err = g.Wait()
	stats := Stats{
		Sources: len(files),
		Written: int(c.written.Load()),
		Skipped: int(c.skipped.Load()),
		Failed:  int(c.failed.Load()),
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}

	e.logger.Debug("Optimized",
		zap.String("in", spec.InDir),
		zap.String("out", spec.OutDir),
		zap.Int("sources", stats.Sources),
		zap.Int("written", stats.Written),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	return stats, nil
}

// processFile writes the pending variants of one source. The source is only
// decoded when at least one variant is missing.
func (e *Engine) processFile(ctx context.Context, spec TransformSpec, file string, c *counters) error {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	pending := make([]Format, 0, len(spec.Formats))
	for _, format := range spec.Formats {
		out := filepath.Join(spec.OutDir, base+format.Ext())
		if !spec.Override && exists(out) {
			c.skipped.Add(1)
			continue
		}
		pending = append(pending, format)
	}
	if len(pending) == 0 {
		return nil
	}

	img, err := e.prepare(file, spec)
	if err != nil {
		e.logger.Error("Source error", zap.String("file", file), zap.Error(err))
		c.failed.Add(int64(len(pending)))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, format := range pending {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out := filepath.Join(spec.OutDir, base+format.Ext())
			size, ok := e.writeVariant(img, format, spec.Sharpen, out)
			if !ok {
				c.failed.Add(1)
				return nil
			}
			c.written.Add(1)
			e.notify(gctx, Variant{Path: out, Source: file, Format: format, Bytes: size})
			return nil
		})
	}
	return g.Wait()
}

// prepare decodes, resizes and, when required by the formats, flattens.
func (e *Engine) prepare(file string, spec TransformSpec) (image.Image, error) {
	img, err := imaging.Open(file)
	if err != nil {
		return nil, err
	}
	if spec.Resize != nil {
		img = spec.Resize.Apply(img)
	}
	if needsFlatten(spec.Formats) {
		img = Flatten(img)
	}
	return img, nil
}

// writeVariant encodes and writes one variant, retrying once. Both errors
// are logged when the retry fails too.
func (e *Engine) writeVariant(img image.Image, format Format, sharpen bool, out string) (int64, bool) {
	attempt := func() (int64, error) {
		data, err := encode(img, format, sharpen)
		if err != nil {
			return 0, err
		}
		if err := e.write(out, data); err != nil {
			return 0, err
		}
		return int64(len(data)), nil
	}

	size, err1 := attempt()
	if err1 == nil {
		return size, true
	}
	if errors.Is(err1, ErrQualityTooLow) {
		e.logger.Warn("Quality too low", zap.String("out", out), zap.Error(err1))
		return 0, false
	}

	e.logger.Info("Retrying saving", zap.String("out", out))
	size, err2 := attempt()
	if err2 == nil {
		return size, true
	}

	e.logger.Error("File error",
		zap.String("out", out),
		zap.NamedError("err1", err1),
		zap.NamedError("err2", err2))
	return 0, false
}

func (e *Engine) notify(ctx context.Context, v Variant) {
	if e.observer == nil {
		return
	}
	if err := e.observer.VariantWritten(ctx, v); err != nil {
		e.logger.Warn("Failed to record variant", zap.String("out", v.Path), zap.Error(err))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeFile writes data next to path and renames it into place, so an
// overridden variant is never left half written.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".variant-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("move variant into place: %w", err)
	}
	return nil
}
