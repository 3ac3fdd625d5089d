package pipeline

import (
	"context"
	"path/filepath"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/download"
	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/images"
	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

type downloadRecorder struct {
	ledger *storage.Ledger
	runID  string
}

func (r downloadRecorder) RecordDownload(ctx context.Context, result download.Result) error {
	return r.ledger.RecordDownload(ctx, storage.Download{
		Path:     filepath.ToSlash(result.Path),
		URL:      result.URL,
		Bytes:    result.Bytes,
		Checksum: result.Checksum,
		RunID:    r.runID,
	})
}

type variantRecorder struct {
	ledger *storage.Ledger
	runID  string
	family string
}

func (r variantRecorder) VariantWritten(ctx context.Context, v images.Variant) error {
	return r.ledger.RecordVariant(ctx, storage.Variant{
		Path:   filepath.ToSlash(v.Path),
		Source: filepath.ToSlash(v.Source),
		Format: string(v.Format),
		Family: r.family,
		Bytes:  v.Bytes,
		RunID:  r.runID,
	})
}
