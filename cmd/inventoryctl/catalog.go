package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fulfillment/internal/inventory"
)

type catalogFile struct {
	Items []catalogItem `toml:"items"`
}

type catalogItem struct {
	ID             int64  `toml:"id"`
	Model          string `toml:"model"`
	Size           string `toml:"size"`
	AvailableCount int    `toml:"available_count"`
}

// loadCatalog reads the stock catalog at path. An empty path, or a file without an
// items table, yields the default catalog.
func loadCatalog(path string) ([]inventory.Item, error) {
	if strings.TrimSpace(path) == "" {
		return inventory.DefaultCatalog(), nil
	}

	var raw catalogFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !meta.IsDefined("items") {
		return inventory.DefaultCatalog(), nil
	}

	items := make([]inventory.Item, 0, len(raw.Items))
	seen := make(map[string]struct{}, len(raw.Items))
	for i, entry := range raw.Items {
		model := strings.TrimSpace(entry.Model)
		size := strings.TrimSpace(entry.Size)
		if model == "" || size == "" {
			return nil, fmt.Errorf("catalog item[%d]: model and size are required", i)
		}
		if entry.AvailableCount < 0 {
			return nil, fmt.Errorf("catalog item[%d]: available_count must not be negative", i)
		}
		key := model + "\x00" + size
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalog item[%d]: duplicate %s/%s", i, model, size)
		}
		seen[key] = struct{}{}
		items = append(items, inventory.Item{
			ID:             entry.ID,
			Model:          model,
			Size:           size,
			AvailableCount: entry.AvailableCount,
		})
	}
	return items, nil
}
