// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sharebot/sharebot/lib/config"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := New(
		[]Category{{Name: "Hat", Key: "0"}, {Name: "Belt", Key: "5"}},
		map[string][]string{
			"0": {"Red Hat", "Blue Hat", "Red Hat", "Top;Hat"},
			"5": {"Leather Belt"},
		},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return catalog
}

func TestItemsInCategorySortedAndDeduplicated(t *testing.T) {
	catalog := testCatalog(t)

	got := slices.Collect(catalog.ItemsInCategory("0"))
	want := []string{"Blue Hat", "Red Hat", "TopHat"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ItemsInCategory mismatch (-want +got):\n%s", diff)
	}

	// Restartable: a second pass sees the same sequence.
	if diff := cmp.Diff(want, slices.Collect(catalog.ItemsInCategory("0"))); diff != "" {
		t.Errorf("second pass mismatch (-want +got):\n%s", diff)
	}

	if items := slices.Collect(catalog.ItemsInCategory("missing")); len(items) != 0 {
		t.Errorf("unknown category yielded %v", items)
	}
}

func TestLookups(t *testing.T) {
	catalog := testCatalog(t)

	if !catalog.Contains("Leather Belt") || catalog.Contains("Golden Hat") {
		t.Error("Contains returned the wrong membership")
	}
	category, ok := catalog.CategoryOf("Blue Hat")
	if !ok || category.Name != "Hat" {
		t.Errorf("CategoryOf(Blue Hat) = %+v, %v", category, ok)
	}
	if _, ok := catalog.Category("9"); ok {
		t.Error("Category(9) found a category")
	}
	if catalog.Len() != 4 {
		t.Errorf("Len() = %d, want 4", catalog.Len())
	}
	want := []Category{{Name: "Hat", Key: "0"}, {Name: "Belt", Key: "5"}}
	if diff := cmp.Diff(want, catalog.Categories()); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsCrossCategoryDuplicates(t *testing.T) {
	_, err := New(
		[]Category{{Name: "Hat", Key: "0"}, {Name: "Top", Key: "1"}},
		map[string][]string{"0": {"Bandana"}, "1": {"Bandana"}},
	)
	if err == nil || !strings.Contains(err.Error(), "Bandana") {
		t.Fatalf("New() error = %v, want a duplicate item error", err)
	}
}

func TestNewRejectsUnknownCategoryKey(t *testing.T) {
	_, err := New([]Category{{Name: "Hat", Key: "0"}}, map[string][]string{"7": {"Sock"}})
	if err == nil {
		t.Fatal("New accepted items for an undeclared category")
	}
}

func TestFingerprint(t *testing.T) {
	first := testCatalog(t).Fingerprint()
	if len(first) != 64 {
		t.Fatalf("fingerprint %q is not 32 hex bytes", first)
	}
	if second := testCatalog(t).Fingerprint(); second != first {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}

	other, err := New([]Category{{Name: "Hat", Key: "0"}}, map[string][]string{"0": {"Red Hat"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if other.Fingerprint() == first {
		t.Error("different catalogs share a fingerprint")
	}
}

func TestLoad(t *testing.T) {
	directory := t.TempDir()
	if err := os.WriteFile(filepath.Join(directory, "Hat.txt"), []byte("Red Hat\n\nBlue Hat\nRm;Hat\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(config.CatalogConfig{
		Directory: directory,
		Categories: []config.CategoryConfig{
			{Name: "Hat", Key: "0", File: "Hat.txt"},
			{Name: "Vest", Key: "4", Items: []string{"Puffer Vest"}},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff([]string{"Blue Hat", "Red Hat", "RmHat"}, slices.Collect(catalog.ItemsInCategory("0"))); diff != "" {
		t.Errorf("hats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Puffer Vest"}, slices.Collect(catalog.ItemsInCategory("4"))); diff != "" {
		t.Errorf("vests mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(config.CatalogConfig{
		Directory:  t.TempDir(),
		Categories: []config.CategoryConfig{{Name: "Top", Key: "1", File: "Top.txt"}},
	})
	if err == nil {
		t.Fatal("Load succeeded with a missing category file")
	}
}
