package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/manifest"
)

// fakeFetcher serves canned bodies and records the requested URLs in order.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	failures map[string]error
	broken   map[string]bool
	requests []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies:   map[string]string{},
		failures: map[string]error{},
		broken:   map[string]bool{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)

	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	if f.broken[url] {
		return io.NopCloser(io.MultiReader(strings.NewReader("partial"), errReader{})), nil
	}
	return io.NopCloser(strings.NewReader(f.bodies[url])), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

type recorderFunc func(ctx context.Context, result Result) error

func (f recorderFunc) RecordDownload(ctx context.Context, result Result) error {
	return f(ctx, result)
}

func TestDownloader_Download(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://cdn.test/a.png"] = "image-a"

	var recorded []Result
	d := NewDownloader(fetcher, nil, WithRecorder(recorderFunc(func(_ context.Context, r Result) error {
		recorded = append(recorded, r)
		return nil
	})))

	dest := filepath.Join(t.TempDir(), "SUM", "a.png")
	result, err := d.Download(context.Background(), "https://cdn.test/a.png", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "image-a", string(data))

	assert.False(t, result.Present)
	assert.Equal(t, int64(len("image-a")), result.Bytes)
	assert.Len(t, result.Checksum, 64)
	require.Len(t, recorded, 1)
	assert.Equal(t, dest, recorded[0].Path)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestDownloader_NeverOverwrites(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://cdn.test/a.png"] = "new"

	dest := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	core, logs := observer.New(zapcore.InfoLevel)
	result, err := NewDownloader(fetcher, zap.New(core)).Download(context.Background(), "https://cdn.test/a.png", dest)
	require.NoError(t, err)
	assert.True(t, result.Present)
	assert.Empty(t, fetcher.requests)

	present := logs.FilterMessage("Already present").All()
	require.Len(t, present, 1)
	assert.Equal(t, dest, present[0].ContextMap()["dest"])

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestDownloader_HTTPErrorLeavesNoFile(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failures["https://cdn.test/missing.png"] = &TransportError{URL: "https://cdn.test/missing.png", StatusCode: 404}

	dir := t.TempDir()
	dest := filepath.Join(dir, "missing.png")
	_, err := NewDownloader(fetcher, nil).Download(context.Background(), "https://cdn.test/missing.png", dest)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 404, te.StatusCode)
	assert.NoFileExists(t, dest)
}

func TestDownloader_PartialBodyIsRemoved(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.broken["https://cdn.test/a.png"] = true

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.png")
	_, err := NewDownloader(fetcher, nil).Download(context.Background(), "https://cdn.test/a.png", dest)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.NoFileExists(t, dest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type recordingReporter struct {
	updates []string
}

func (r *recordingReporter) Update(s string) { r.updates = append(r.updates, s) }
func (r *recordingReporter) Done(string)     {}

func TestDownloader_AcquireIsSequentialAndStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.bodies["https://cdn.test/1.png"] = "1"
	fetcher.bodies["https://cdn.test/2.png"] = "2"
	fetcher.failures["https://cdn.test/3.png"] = &TransportError{URL: "https://cdn.test/3.png", StatusCode: 500}
	fetcher.bodies["https://cdn.test/4.png"] = "4"

	existing := filepath.Join(dir, "0.png")
	require.NoError(t, os.WriteFile(existing, []byte("0"), 0o644))

	m := manifest.New()
	m.Set(existing, "https://cdn.test/0.png")
	for _, n := range []string{"1", "2", "3", "4"} {
		m.Set(filepath.Join(dir, n+".png"), "https://cdn.test/"+n+".png")
	}

	reporter := &recordingReporter{}
	err := NewDownloader(fetcher, nil).Acquire(context.Background(), m, reporter)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	assert.Equal(t, []string{"https://cdn.test/1.png", "https://cdn.test/2.png", "https://cdn.test/3.png"}, fetcher.requests)
	assert.FileExists(t, filepath.Join(dir, "2.png"))
	assert.NoFileExists(t, filepath.Join(dir, "3.png"))
	assert.NoFileExists(t, filepath.Join(dir, "4.png"))

	require.Len(t, reporter.updates, 4)
	assert.True(t, strings.HasPrefix(reporter.updates[0], "[1/5] "))
	assert.True(t, strings.HasPrefix(reporter.updates[3], "[4/5] "))
}

func TestDownloader_AcquireResumes(t *testing.T) {
	dir := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.bodies["https://cdn.test/1.png"] = "1"

	m := manifest.New()
	m.Set(filepath.Join(dir, "1.png"), "https://cdn.test/1.png")

	d := NewDownloader(fetcher, nil)
	require.NoError(t, d.Acquire(context.Background(), m, nil))
	require.NoError(t, d.Acquire(context.Background(), m, nil))

	assert.Len(t, fetcher.requests, 1)
}
