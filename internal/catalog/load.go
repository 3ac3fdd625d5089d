package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Files names the three upstream tables on disk.
type Files struct {
	Expansions string // expansions.json
	Items      string // items.json
	SetMap     string // ptcgo-set-map.json
}

// LoadFiles reads the upstream tables from disk.
func LoadFiles(files Files) (*Catalog, error) {
	var expansions []Expansion
	if err := readJSONFile(files.Expansions, &expansions); err != nil {
		return nil, fmt.Errorf("load expansions: %w", err)
	}

	itemsFile, err := os.Open(files.Items)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer itemsFile.Close()

	items, err := DecodeItems(itemsFile)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	var setCodes map[string]string
	if err := readJSONFile(files.SetMap, &setCodes); err != nil {
		return nil, fmt.Errorf("load set map: %w", err)
	}

	return New(expansions, items, setCodes), nil
}

// DecodeItems decodes an item table keyed by numeric id.
func DecodeItems(r io.Reader) ([]Item, error) {
	var raw map[string]Item
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for key, item := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q: %w", key, err)
		}
		item.ID = id
		items = append(items, item)
	}
	return items, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
