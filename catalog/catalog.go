// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/hex"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/sharebot/sharebot/lib/config"
)

// Category is one entry of the category table. Key is what the selection
// menu sends back; Name is what users see.
type Category struct {
	Name string
	Key  string
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	categories []Category
	items      map[string][]string // category key -> sorted items
	owner      map[string]string   // item -> category key
	all        []string
}

// Load reads every category's file from the catalog directory and merges
// its inline items. A missing or unreadable file is an error.
func Load(cfg config.CatalogConfig) (*Catalog, error) {
	categories := make([]Category, 0, len(cfg.Categories))
	items := make(map[string][]string, len(cfg.Categories))

	for _, entry := range cfg.Categories {
		category := Category{Name: entry.Name, Key: entry.Key}
		categories = append(categories, category)

		var names []string
		if entry.File != "" {
			path := entry.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.Directory, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("catalog: category %s: %w", entry.Name, err)
			}
			names = SplitRecord(string(data))
		}
		for _, inline := range entry.Items {
			if name := SanitizeName(inline); name != "" {
				names = append(names, name)
			}
		}
		items[entry.Key] = names
	}
	return New(categories, items)
}

// New builds a catalog from an ordered category list and the raw item
// names per category key. Names are sanitized; empty results are skipped.
func New(categories []Category, items map[string][]string) (*Catalog, error) {
	catalog := &Catalog{
		categories: slices.Clone(categories),
		items:      make(map[string][]string, len(categories)),
		owner:      make(map[string]string),
	}

	for _, category := range categories {
		if _, duplicate := catalog.items[category.Key]; duplicate {
			return nil, fmt.Errorf("catalog: category key %q listed twice", category.Key)
		}

		var names []string
		for _, raw := range items[category.Key] {
			name := SanitizeName(raw)
			if name == "" {
				continue
			}
			if key, seen := catalog.owner[name]; seen {
				if key == category.Key {
					continue
				}
				return nil, fmt.Errorf("catalog: item %q is in both %s and %s",
					name, catalog.categoryName(key), category.Name)
			}
			catalog.owner[name] = category.Key
			catalog.all = append(catalog.all, name)
			names = append(names, name)
		}
		slices.Sort(names)
		catalog.items[category.Key] = names
	}

	for key := range items {
		if _, known := catalog.items[key]; !known {
			return nil, fmt.Errorf("catalog: items given for unknown category key %q", key)
		}
	}
	return catalog, nil
}

// Categories returns the category table in configured order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Category looks up a category by key.
func (c *Catalog) Category(key string) (Category, bool) {
	for _, category := range c.categories {
		if category.Key == key {
			return category, true
		}
	}
	return Category{}, false
}

// ItemsInCategory yields the category's items in sorted order. The
// sequence is finite and may be ranged over any number of times. An
// unknown key yields nothing.
func (c *Catalog) ItemsInCategory(key string) iter.Seq[string] {
	return slices.Values(c.items[key])
}

// CategoryOf reports which category an item belongs to.
func (c *Catalog) CategoryOf(item string) (Category, bool) {
	key, ok := c.owner[item]
	if !ok {
		return Category{}, false
	}
	return c.Category(key)
}

// Contains reports whether item is in any category.
func (c *Catalog) Contains(item string) bool {
	_, ok := c.owner[item]
	return ok
}

// Items returns every item, category by category in load order.
func (c *Catalog) Items() []string {
	return slices.Clone(c.all)
}

// Len is the total number of items.
func (c *Catalog) Len() int {
	return len(c.all)
}

// Fingerprint is a hex BLAKE3 digest of the category table and its items.
func (c *Catalog) Fingerprint() string {
	hasher := blake3.New()
	for _, category := range c.categories {
		fmt.Fprintf(hasher, "category\x00%s\x00%s\x00", category.Key, category.Name)
		for _, item := range c.items[category.Key] {
			fmt.Fprintf(hasher, "item\x00%s\x00", item)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *Catalog) categoryName(key string) string {
	if category, ok := c.Category(key); ok {
		return category.Name
	}
	return key
}
