// Package manifest builds and persists the list of card source images to
// download, keyed by local path.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one local file and the URL it is downloaded from.
type Entry struct {
	Path string
	URL  string
}

// Manifest is an insertion ordered path -> URL mapping.
type Manifest struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{index: make(map[string]int)}
}

// Get returns the URL recorded for path.
func (m *Manifest) Get(path string) (string, bool) {
	i, ok := m.index[path]
	if !ok {
		return "", false
	}
	return m.entries[i].URL, true
}

// Set records url for path. Existing paths keep their position.
func (m *Manifest) Set(path, url string) {
	if i, ok := m.index[path]; ok {
		m.entries[i].URL = url
		return
	}
	m.index[path] = len(m.entries)
	m.entries = append(m.entries, Entry{Path: path, URL: url})
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns the entries in insertion order.
func (m *Manifest) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// MarshalJSON encodes the manifest as a JSON object preserving order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, e.Path); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, e.URL); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeString writes s as a JSON string without HTML escaping, so URLs keep
// their ampersands.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest must be a JSON object")
	}

	decoded := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected manifest key %v", tok)
		}
		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("manifest entry %s: %w", path, err)
		}
		decoded.Set(path, url)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *decoded
	return nil
}

// WriteFile writes the manifest as pretty printed JSON.
func (m *Manifest) WriteFile(path string) error {
	raw, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("indent manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadFile loads a manifest written by WriteFile.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := New()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}
