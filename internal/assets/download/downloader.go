// Package download fetches source images exactly once: a file that exists
// on disk is never fetched or overwritten again.
package download

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/manifest"
	"github.com/ramonehamilton/PTCGO-Assets/internal/progress"
)

// Result describes one immutable download.
type Result struct {
	Path     string
	URL      string
	Present  bool   // The file already existed; nothing was fetched
	Bytes    int64  // Size of the fetched file
	Checksum string // Hex BLAKE2b-256 of the fetched file
}

// Recorder is notified of every file that was fetched.
type Recorder interface {
	RecordDownload(ctx context.Context, result Result) error
}

// Downloader saves remote files to disk.
type Downloader struct {
	fetcher  Fetcher
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithRecorder registers a recorder for fetched files.
func WithRecorder(r Recorder) Option {
	return func(d *Downloader) { d.recorder = r }
}

// NewDownloader creates a downloader using fetcher.
func NewDownloader(fetcher Fetcher, logger *zap.Logger, opts ...Option) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Downloader{fetcher: fetcher, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download saves url to dest unless dest already exists. The body is written
// to a temporary file next to dest and renamed into place, so dest never
// holds a partial download.
func (d *Downloader) Download(ctx context.Context, url, dest string) (Result, error) {
	result := Result{Path: dest, URL: url}

	if _, err := os.Stat(dest); err == nil {
		d.logger.Info("Already present", zap.String("url", url), zap.String("dest", dest))
		result.Present = true
		return result, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("stat %s: %w", dest, err)
	}

	body, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return result, err
	}
	defer func() { _ = body.Close() }()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("create directory for %s: %w", dest, err)
	}

	tempFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return result, fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	hash, err := blake2b.New256(nil)
	if err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return result, err
	}

	size, err := io.Copy(io.MultiWriter(tempFile, hash), body)
	if err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return result, &TransportError{URL: url, Err: err}
	}

	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return result, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		_ = os.Remove(tempPath)
		return result, fmt.Errorf("move download into place: %w", err)
	}

	result.Bytes = size
	result.Checksum = hex.EncodeToString(hash.Sum(nil))

	if d.recorder != nil {
		if err := d.recorder.RecordDownload(ctx, result); err != nil {
			d.logger.Warn("Failed to record download", zap.String("dest", dest), zap.Error(err))
		}
	}

	return result, nil
}

// Acquire downloads every manifest entry, one after the other. It stops at
// the first failure: a missing source would silently break processing.
func (d *Downloader) Acquire(ctx context.Context, m *manifest.Manifest, reporter progress.Reporter) error {
	if reporter == nil {
		reporter = progress.Nop()
	}

	entries := m.Entries()
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		reporter.Update(fmt.Sprintf("[%d/%d] %s", i+1, len(entries), entry.Path))

		if _, err := d.Download(ctx, entry.URL, filepath.FromSlash(entry.Path)); err != nil {
			d.logger.Error("Download failed",
				zap.String("file", entry.Path),
				zap.String("url", entry.URL),
				zap.Error(err))
			return fmt.Errorf("acquire %s: %w", entry.Path, err)
		}
	}

	return nil
}
