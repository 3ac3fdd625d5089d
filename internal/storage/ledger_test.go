package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "ledger", "assets.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewLedger(db)
}

func TestLedger_Runs(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	run, err := ledger.StartRun(ctx, "card-sources")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunRunning, run.Status)

	require.NoError(t, ledger.FinishRun(ctx, run.ID, nil))

	stored, err := ledger.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "card-sources", stored.Task)
	assert.Equal(t, RunSucceeded, stored.Status)
	require.NotNil(t, stored.FinishedAt)
	assert.Empty(t, stored.Error)

	failed, err := ledger.StartRun(ctx, "card-process")
	require.NoError(t, err)
	require.NoError(t, ledger.FinishRun(ctx, failed.ID, errors.New("boom")))

	stored, err = ledger.GetRun(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, stored.Status)
	assert.Equal(t, "boom", stored.Error)

	runs, err := ledger.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestLedger_RunNotFound(t *testing.T) {
	ledger := openTestLedger(t)

	_, err := ledger.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = ledger.FinishRun(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_Downloads(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	run, err := ledger.StartRun(ctx, "card-sources")
	require.NoError(t, err)

	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.RecordDownload(ctx, Download{
		Path:      "sources/card/SUM/1.png",
		URL:       "https://cdn.test/1.png",
		Bytes:     1024,
		Checksum:  "abc",
		RunID:     run.ID,
		FetchedAt: fetchedAt,
	}))
	require.NoError(t, ledger.RecordDownload(ctx, Download{
		Path:     "sources/card/SUM/2.png",
		URL:      "https://cdn.test/2.png",
		Bytes:    2048,
		Checksum: "def",
	}))

	d, err := ledger.GetDownload(ctx, "sources/card/SUM/1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/1.png", d.URL)
	assert.Equal(t, run.ID, d.RunID)
	assert.True(t, fetchedAt.Equal(d.FetchedAt))

	files, bytes, err := ledger.DownloadTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(3072), bytes)

	_, err = ledger.GetDownload(ctx, "sources/card/SUM/3.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_VariantSizes(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	variants := []Variant{
		{Path: "assets/card/xs/SUM/1.jpg", Source: "sources/card/SUM/1.png", Format: "jpg", Family: "card/xs", Bytes: 100},
		{Path: "assets/card/xs/SUM/1.webp", Source: "sources/card/SUM/1.png", Format: "webp", Family: "card/xs", Bytes: 80},
		{Path: "assets/card/xs/SUM/2.jpg", Source: "sources/card/SUM/2.png", Format: "jpg", Family: "card/xs", Bytes: 120},
		{Path: "assets/expansion/logo/SUM.png", Source: "sources/expansion/logo/SUM.png", Format: "png", Family: "expansion/logo", Bytes: 50},
	}
	for _, v := range variants {
		require.NoError(t, ledger.RecordVariant(ctx, v))
	}
	// Overriding a variant replaces its row.
	require.NoError(t, ledger.RecordVariant(ctx, Variant{
		Path: "assets/card/xs/SUM/2.jpg", Source: "sources/card/SUM/2.png", Format: "jpg", Family: "card/xs", Bytes: 20,
	}))

	sizes, err := ledger.VariantSizes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SizeSummary{
		{Family: "card/xs", Format: "jpg", Files: 2, Bytes: 120},
		{Family: "card/xs", Format: "webp", Files: 1, Bytes: 80},
		{Family: "expansion/logo", Format: "png", Files: 1, Bytes: 50},
	}, sizes)
}

func TestLedger_ConcurrentVariants(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.RecordVariant(ctx, Variant{
				Path:   filepath.Join("assets", "card", "m", "SUM", string(rune('a'+i))+".webp"),
				Format: "webp",
				Family: "card/m",
				Bytes:  10,
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	sizes, err := ledger.VariantSizes(ctx)
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	assert.Equal(t, 20, sizes[0].Files)
}
