package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/resolver"
	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
)

var testExpansions = []catalog.Expansion{
	{Code: "FFI", Series: "XY"},
	{Code: "SUM", Series: "SM"},
	{Code: "OLD", Series: "EX", Invalid: true},
}

var testSetMap = map[string]string{"FFI": "FFI", "SM1": "SUM"}

func newBuilder(t *testing.T, logger *zap.Logger, items ...catalog.Item) (*Builder, string) {
	t.Helper()
	cat := catalog.New(testExpansions, items, testSetMap)
	res, err := resolver.New(cat)
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "sources", "card")
	return NewBuilder(cat, res, root, logger, nil), root
}

func TestBuilder_Build(t *testing.T) {
	b, root := newBuilder(t, nil,
		catalog.Item{ID: 3, Type: catalog.ItemTypeCard, No: 2, Name: "Dartrix", Expansion: "SUM"},
		catalog.Item{ID: 1, Type: catalog.ItemTypeCard, No: 1, Name: "Rowlet", Expansion: "SUM"},
		catalog.Item{ID: 2, Type: catalog.ItemTypeLeagueAlternate, No: 1, Name: "Rowlet", Expansion: "SUM"},
		catalog.Item{ID: 4, Type: catalog.ItemTypeLeague, No: 1, Name: "Rowlet", Expansion: "SUM"},
		catalog.Item{ID: 5, Type: catalog.ItemTypeCoin, Name: "Coin", Expansion: "SUM"},
	)

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, b.Path("SUM/1"), entries[0].Path)
	assert.Equal(t, resolver.DefaultBaseURL+"SM/SM1-SUM/en_US-SM1-001-rowlet.png", entries[0].URL)
	assert.Equal(t, b.Path("SUM/2"), entries[1].Path)

	for _, exp := range testExpansions {
		info, err := os.Stat(filepath.Join(root, exp.Code))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestBuilder_Path(t *testing.T) {
	b := NewBuilder(catalog.New(nil, nil, nil), nil, "sources/card", nil, nil)
	assert.Equal(t, "sources/card/SUM/1.png", b.Path("SUM/1"))
}

func TestBuilder_ConflictIsFatal(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	b, _ := newBuilder(t, zap.New(core),
		catalog.Item{ID: 10, Type: catalog.ItemTypeCard, No: 7, Name: "Rowlet", Expansion: "SUM"},
		catalog.Item{ID: 11, Type: catalog.ItemTypeCard, No: 7, Flags: catalog.AltArt, Name: "Rowlet", Expansion: "SUM"},
	)

	m, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, m)

	var conflict *resolver.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "SUM/7", conflict.Identity)
	assert.Equal(t, 10, conflict.ExistingID)
	assert.Equal(t, 11, conflict.ItemID)
	assert.Contains(t, err.Error(), "en_US-SM1-007-rowlet.png")
	assert.Contains(t, err.Error(), "en_US-SM1-007-rowlet-a.png")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, conflict.ExistingURL, fields["existing_url"])
	assert.Equal(t, conflict.URL, fields["url"])
}

func TestBuilder_KnownDuplicateKeepsFirstURL(t *testing.T) {
	b, _ := newBuilder(t, nil,
		catalog.Item{ID: 20, Type: catalog.ItemTypeCard, No: 46, Name: "Charizard", Expansion: "FFI"},
		catalog.Item{ID: 21, Type: catalog.ItemTypeCard, No: 46, Flags: catalog.XYArt, Name: "Charizard", Expansion: "FFI"},
	)

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	url, ok := m.Get(b.Path("FFI/46"))
	require.True(t, ok)
	assert.Equal(t, resolver.DefaultBaseURL+"XY/FFI-FFI/en_US-FFI-046-charizard.png", url)
}

func TestBuilder_UniqueIdentities(t *testing.T) {
	items := []catalog.Item{
		{ID: 1, Type: catalog.ItemTypeCard, No: 1, Name: "Rowlet", Expansion: "SUM"},
		{ID: 2, Type: catalog.ItemTypeLanguageDE, No: 1, Name: "Rowlet", Expansion: "SUM"},
		{ID: 3, Type: catalog.ItemTypeLanguageFR, No: 1, Name: "Rowlet", Expansion: "SUM"},
		{ID: 4, Type: catalog.ItemTypeCard, No: 1, Flags: catalog.GoldArt, Name: "Rowlet", Expansion: "SUM"},
		{ID: 5, Type: catalog.ItemTypeLeague, No: 1, Name: "Rowlet", Expansion: "SUM"},
		{ID: 6, Type: catalog.ItemTypeCard, No: 63, Name: "Noivern", Expansion: "FFI"},
		{ID: 7, Type: catalog.ItemTypeCard, No: 63, Flags: catalog.XYArt, Name: "Noivern", Expansion: "FFI"},
	}
	b, _ := newBuilder(t, nil, items...)

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range m.Entries() {
		assert.False(t, seen[e.Path], e.Path)
		seen[e.Path] = true
	}
	assert.Equal(t, 5, m.Len())
}

func TestBuilder_InvalidExpansionIsSkippedWithWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b, _ := newBuilder(t, zap.New(core),
		catalog.Item{ID: 30, Type: catalog.ItemTypeCard, No: 1, Name: "Bulbasaur", Expansion: "OLD"},
		catalog.Item{ID: 31, Type: catalog.ItemTypeCard, No: 1, Name: "Rowlet", Expansion: "SUM"},
	)

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	warnings := logs.FilterMessage("Invalid expansion").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(30), warnings[0].ContextMap()["id"])
}

func TestBuilder_Cancelled(t *testing.T) {
	b, _ := newBuilder(t, nil, catalog.Item{ID: 1, Type: catalog.ItemTypeCard, No: 1, Name: "Rowlet", Expansion: "SUM"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
