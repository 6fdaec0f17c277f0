// Package prefs persists the user's sort/filter preferences to local
// device storage. Preferences are local-only state: they survive
// launches but are never pushed to the backend.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"taskflow/internal/model"
)

// Prefs is the persisted preference set.
type Prefs struct {
	Sort   model.SortOptions   `json:"sort"`
	Filter model.FilterOptions `json:"filter"`
}

// Default returns the first-launch preferences.
func Default() Prefs {
	return Prefs{
		Sort:   model.DefaultSortOptions(),
		Filter: model.DefaultFilterOptions(),
	}
}

// Load reads preferences from path. A missing file yields the defaults.
// A saved file is decoded into a zero Prefs, not merged over the
// defaults: an absent filter predicate means the user chose not to
// filter on that dimension, and merging would resurrect the default.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), err
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), err
	}
	if p.Sort.Field == "" {
		p.Sort = model.DefaultSortOptions()
	}
	return p, nil
}

// Save writes preferences to path, creating the parent directory if
// needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
