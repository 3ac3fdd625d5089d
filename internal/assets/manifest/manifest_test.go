package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_SetKeepsInsertionOrder(t *testing.T) {
	m := New()
	m.Set("b.png", "https://example.test/b")
	m.Set("a.png", "https://example.test/a")
	m.Set("b.png", "https://example.test/b2")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []Entry{
		{Path: "b.png", URL: "https://example.test/b2"},
		{Path: "a.png", URL: "https://example.test/a"},
	}, m.Entries())

	url, ok := m.Get("a.png")
	assert.True(t, ok)
	assert.Equal(t, "https://example.test/a", url)

	_, ok = m.Get("c.png")
	assert.False(t, ok)
}

func TestManifest_WriteFile(t *testing.T) {
	m := New()
	m.Set("sources/card/SUM/2.png", "https://example.test/2.png?a=1&b=2")
	m.Set("sources/card/SUM/1.png", "https://example.test/1.png")

	path := filepath.Join(t.TempDir(), "card", "manifest.json")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
  "sources/card/SUM/2.png": "https://example.test/2.png?a=1&b=2",
  "sources/card/SUM/1.png": "https://example.test/1.png"
}`, string(data))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Entries(), loaded.Entries())
}

func TestManifest_UnmarshalRejectsNonObject(t *testing.T) {
	m := New()
	assert.Error(t, m.UnmarshalJSON([]byte(`["a"]`)))
	assert.Error(t, m.UnmarshalJSON([]byte(`{"a": 1}`)))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
