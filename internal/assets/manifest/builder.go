package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/resolver"
	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
	"github.com/ramonehamilton/PTCGO-Assets/internal/progress"
)

// Builder resolves every card of a catalog into a manifest.
type Builder struct {
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	root     string
	logger   *zap.Logger
	progress progress.Reporter
}

// NewBuilder creates a builder writing card sources below root
// (e.g. "sources/card").
func NewBuilder(cat *catalog.Catalog, res *resolver.Resolver, root string, logger *zap.Logger, reporter progress.Reporter) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = progress.Nop()
	}
	return &Builder{
		catalog:  cat,
		resolver: res,
		root:     root,
		logger:   logger,
		progress: reporter,
	}
}

// Path returns the manifest key of an identity.
func (b *Builder) Path(identity string) string {
	return path.Join(filepath.ToSlash(b.root), identity+".png")
}

// Build creates one directory per expansion, then resolves the catalog in
// item order. Two items claiming the same path with different URLs abort the
// build with a *resolver.ConflictError unless the identity is a known
// duplicate, in which case the first URL is kept.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	if err := b.prepareDirs(ctx); err != nil {
		return nil, err
	}

	b.progress.Update("Figuring out which files need to be downloaded")

	m := New()
	owners := make(map[string]catalog.Item)
	skipped := 0

	for _, item := range b.catalog.Items() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := b.resolver.Resolve(item)
		if err != nil {
			var skip *resolver.SkipError
			if !errors.As(err, &skip) {
				return nil, err
			}
			skipped++
			if skip.Reason == resolver.SkipInvalidExpansion {
				b.logger.Warn("Invalid expansion",
					zap.Int("id", item.ID),
					zap.String("expansion", item.Expansion),
					zap.String("name", item.Name))
			}
			continue
		}

		file := b.Path(res.Identity)
		existing, ok := m.Get(file)
		if !ok {
			m.Set(file, res.URL)
			owners[file] = item
			continue
		}
		if existing == res.URL {
			continue
		}
		if b.resolver.IsDuplicate(res.Identity) {
			b.logger.Debug("Keeping first source of known duplicate",
				zap.String("identity", res.Identity),
				zap.String("kept", existing),
				zap.String("dropped", res.URL))
			continue
		}

		conflict := &resolver.ConflictError{
			Identity:    res.Identity,
			ExistingURL: existing,
			ExistingID:  owners[file].ID,
			URL:         res.URL,
			ItemID:      item.ID,
		}
		b.logger.Error("Conflicting source images",
			zap.String("file", file),
			zap.String("identity", res.Identity),
			zap.String("existing_url", existing),
			zap.Int("existing_item", owners[file].ID),
			zap.String("url", res.URL),
			zap.Int("item", item.ID),
			zap.String("name", item.Name))
		return nil, fmt.Errorf("build manifest: %w", conflict)
	}

	b.logger.Debug("Manifest built", zap.Int("files", m.Len()), zap.Int("skipped", skipped))
	return m, nil
}

// prepareDirs creates the source directory of every expansion.
func (b *Builder) prepareDirs(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, exp := range b.catalog.Expansions() {
		dir := filepath.Join(b.root, exp.Code)
		g.Go(func() error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create source directory: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
