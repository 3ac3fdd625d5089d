package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeSource(t *testing.T, dir, name string, w, h int, fill color.NRGBA) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, fill), path))
	return path
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err)
	return img
}

type variantRecorder struct {
	mu       sync.Mutex
	variants []Variant
}

func (r *variantRecorder) VariantWritten(_ context.Context, v Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants = append(r.variants, v)
	return nil
}

var opaqueRed = color.NRGBA{R: 200, G: 20, B: 20, A: 255}

func TestOptimize_WritesEveryVariant(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "sources")
	out := filepath.Join(root, "assets")
	writeSource(t, in, "1.png", 40, 80, opaqueRed)
	writeSource(t, in, "2.png", 40, 80, opaqueRed)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o644))

	recorder := &variantRecorder{}
	engine := NewEngine(nil, WithObserver(recorder))

	stats, err := engine.Optimize(context.Background(), TransformSpec{
		InDir:   in,
		OutDir:  out,
		Formats: []Format{PNG, JPG},
		Resize:  &Resize{Width: 20, Height: 20, Fit: FitInside},
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Sources: 2, Written: 4}, stats)
	for _, name := range []string{"1.png", "1.jpg", "2.png", "2.jpg"} {
		img := decodeFile(t, filepath.Join(out, name))
		assert.Equal(t, 10, img.Bounds().Dx(), name)
		assert.Equal(t, 20, img.Bounds().Dy(), name)
	}
	assert.NoFileExists(t, filepath.Join(out, "notes.jpg"))
	assert.Len(t, recorder.variants, 4)
}

func TestOptimize_Idempotent(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "a.png", 16, 16, opaqueRed)

	spec := TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG, JPG}}
	engine := NewEngine(nil)

	_, err := engine.Optimize(context.Background(), spec)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "a.jpg"))
	require.NoError(t, err)

	stats, err := engine.Optimize(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, Stats{Sources: 1, Skipped: 2}, stats)

	second, err := os.ReadFile(filepath.Join(out, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOptimize_SkipsDecodeWhenNothingPending(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "broken.jpg"), []byte("existing"), 0o644))

	stats, err := NewEngine(nil).Optimize(context.Background(), TransformSpec{InDir: in, OutDir: out, Formats: []Format{JPG}})
	require.NoError(t, err)
	assert.Equal(t, Stats{Sources: 1, Skipped: 1}, stats)
}

func TestOptimize_Override(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "a.png", 16, 16, opaqueRed)
	require.NoError(t, os.MkdirAll(out, 0o755))
	stale := filepath.Join(out, "a.png")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	engine := NewEngine(nil)
	spec := TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG}}

	_, err := engine.Optimize(context.Background(), spec)
	require.NoError(t, err)
	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data))

	spec.Override = true
	stats, err := engine.Optimize(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	decodeFile(t, stale)
}

func TestOptimize_RetryThenLog(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "bad.png", 8, 8, opaqueRed)
	writeSource(t, in, "good.png", 8, 8, opaqueRed)

	badOut := filepath.Join(out, "bad.jpg")
	var mu sync.Mutex
	attempts := map[string]int{}
	write := func(path string, data []byte) error {
		mu.Lock()
		attempts[path]++
		mu.Unlock()
		if path == badOut {
			return errors.New("disk on fire")
		}
		return writeFile(path, data)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	engine := NewEngine(zap.New(core), WithWriteFunc(write))

	stats, err := engine.Optimize(context.Background(), TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG, JPG}})
	require.NoError(t, err)

	assert.Equal(t, Stats{Sources: 2, Written: 3, Failed: 1}, stats)
	assert.Equal(t, 2, attempts[badOut], "a failed write is retried exactly once")
	assert.Equal(t, 1, attempts[filepath.Join(out, "good.jpg")])
	assert.FileExists(t, filepath.Join(out, "good.jpg"))
	assert.FileExists(t, filepath.Join(out, "bad.png"))

	fileErrors := logs.FilterMessage("File error").All()
	require.Len(t, fileErrors, 1)
	fields := fileErrors[0].ContextMap()
	assert.Equal(t, badOut, fields["out"])
	assert.Equal(t, "disk on fire", fields["err1"])
	assert.Equal(t, "disk on fire", fields["err2"])
}

func TestOptimize_RetrySucceeds(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "a.png", 8, 8, opaqueRed)

	failed := false
	write := func(path string, data []byte) error {
		if !failed {
			failed = true
			return errors.New("transient")
		}
		return writeFile(path, data)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	stats, err := NewEngine(zap.New(core), WithWriteFunc(write)).Optimize(context.Background(),
		TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG}})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, logs.FilterMessage("Retrying saving").Len())
	assert.Zero(t, logs.FilterMessage("File error").Len())
}

func TestOptimize_FlattensBeforeJPG(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "clear.png", 16, 16, color.NRGBA{})

	_, err := NewEngine(nil).Optimize(context.Background(), TransformSpec{InDir: in, OutDir: out, Formats: []Format{JPG}})
	require.NoError(t, err)

	r, g, b, _ := decodeFile(t, filepath.Join(out, "clear.jpg")).At(8, 8).RGBA()
	assert.InDelta(t, float64(Background.R), float64(r>>8), 8)
	assert.InDelta(t, float64(Background.G), float64(g>>8), 8)
	assert.InDelta(t, float64(Background.B), float64(b>>8), 8)
}

func TestOptimize_PNGKeepsTransparency(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "clear.png", 16, 16, color.NRGBA{})

	_, err := NewEngine(nil).Optimize(context.Background(), TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG}})
	require.NoError(t, err)

	_, _, _, a := decodeFile(t, filepath.Join(out, "clear.png")).At(8, 8).RGBA()
	assert.Zero(t, a)
}

func TestOptimize_WebP(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeSource(t, in, "card.png", 40, 56, opaqueRed)

	stats, err := NewEngine(nil).Optimize(context.Background(), TransformSpec{
		InDir:   in,
		OutDir:  out,
		Formats: []Format{WebP},
		Resize:  &Resize{Width: 20, Height: 28},
		Sharpen: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)

	data, err := os.ReadFile(filepath.Join(out, "card.webp"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("RIFF")))
}

func TestOptimize_MaxConcurrency(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	for _, name := range []string{"1.png", "2.png", "3.png"} {
		writeSource(t, in, name, 8, 8, opaqueRed)
	}

	stats, err := NewEngine(nil, WithMaxConcurrency(1)).Optimize(context.Background(),
		TransformSpec{InDir: in, OutDir: out, Formats: []Format{PNG}})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)
}

func TestOptimize_InvalidSpec(t *testing.T) {
	_, err := NewEngine(nil).Optimize(context.Background(), TransformSpec{InDir: "in", OutDir: "out"})
	assert.Error(t, err)
}

func TestOptimize_Cancelled(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	writeSource(t, in, "a.png", 8, 8, opaqueRed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Optimize(ctx, TransformSpec{InDir: in, OutDir: filepath.Join(root, "out"), Formats: []Format{PNG}})
	assert.ErrorIs(t, err, context.Canceled)
}
