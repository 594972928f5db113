// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/wantstore"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.Category{{Name: "Hat", Key: "0"}, {Name: "Belt", Key: "5"}},
		map[string][]string{
			"0": {"Red Hat", "Blue Hat", "Golden Hat"},
			"5": {"Leather Belt"},
		},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func newTestRegistry(t *testing.T, store wantstore.Store) *Registry {
	t.Helper()
	registry, err := New(Config{Store: store, Catalog: testCatalog(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return registry
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Config{Catalog: testCatalog(t)}); err == nil {
		t.Error("New accepted a nil store")
	}
	if _, err := New(Config{Store: wantstore.NewMemoryStore()}); err == nil {
		t.Error("New accepted a nil catalog")
	}
}

func TestAddIsIdempotent(t *testing.T) {
	store := wantstore.NewMemoryStore()
	registry := newTestRegistry(t, store)
	ctx := context.Background()

	for range 3 {
		if err := registry.Add(ctx, "Red Hat", "alice"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	raw, err := store.Read(ctx, "Red Hat")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]string{"alice"}, raw); diff != "" {
		t.Errorf("stored record mismatch (-want +got):\n%s", diff)
	}

	needs, err := registry.Needs(ctx, "Red Hat", "alice")
	if err != nil || !needs {
		t.Errorf("Needs(Red Hat, alice) = %v, %v; want true", needs, err)
	}
}

func TestRemove(t *testing.T) {
	registry := newTestRegistry(t, wantstore.NewMemoryStore())
	ctx := context.Background()

	if err := registry.Remove(ctx, "Red Hat", "nobody"); err != nil {
		t.Fatalf("Remove on an empty set: %v", err)
	}
	for _, user := range []string{"alice", "bob"} {
		if err := registry.Add(ctx, "Red Hat", user); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := registry.Remove(ctx, "Red Hat", "alice"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := registry.Remove(ctx, "Red Hat", "alice"); err != nil {
		t.Fatalf("second Remove: %v", err)
	}

	members, err := registry.WhoNeeds(ctx, "Red Hat")
	if err != nil {
		t.Fatalf("WhoNeeds: %v", err)
	}
	if diff := cmp.Diff([]string{"bob"}, members); diff != "" {
		t.Errorf("WhoNeeds mismatch (-want +got):\n%s", diff)
	}
}

func TestWhoNeedsCollapsesDuplicates(t *testing.T) {
	store := wantstore.NewMemoryStore()
	ctx := context.Background()
	// A hand-edited record may repeat a user.
	if err := store.Rewrite(ctx, "Blue Hat", []string{"alice", "bob", "alice"}); err != nil {
		t.Fatal(err)
	}
	registry := newTestRegistry(t, store)

	members, err := registry.WhoNeeds(ctx, "Blue Hat")
	if err != nil {
		t.Fatalf("WhoNeeds: %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, members); diff != "" {
		t.Errorf("WhoNeeds mismatch (-want +got):\n%s", diff)
	}

	empty, err := registry.WhoNeeds(ctx, "Golden Hat")
	if err != nil || len(empty) != 0 {
		t.Errorf("WhoNeeds(never written) = %v, %v; want empty", empty, err)
	}
}

func TestNeededByAndForget(t *testing.T) {
	registry := newTestRegistry(t, wantstore.NewMemoryStore())
	ctx := context.Background()

	wants := map[string][]string{
		"Red Hat":      {"alice", "bob"},
		"Golden Hat":   {"alice"},
		"Leather Belt": {"bob", "alice"},
	}
	for item, users := range wants {
		for _, user := range users {
			if err := registry.Add(ctx, item, user); err != nil {
				t.Fatalf("Add(%s, %s): %v", item, user, err)
			}
		}
	}

	needed, err := registry.NeededBy(ctx, "alice")
	if err != nil {
		t.Fatalf("NeededBy: %v", err)
	}
	// Catalog order: categories in turn, items as loaded.
	if diff := cmp.Diff([]string{"Red Hat", "Golden Hat", "Leather Belt"}, needed); diff != "" {
		t.Errorf("NeededBy mismatch (-want +got):\n%s", diff)
	}

	if err := registry.Forget(ctx, "alice"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	needed, err = registry.NeededBy(ctx, "alice")
	if err != nil {
		t.Fatalf("NeededBy after Forget: %v", err)
	}
	if len(needed) != 0 {
		t.Errorf("NeededBy(alice) after Forget = %v", needed)
	}

	for item := range wants {
		members, err := registry.WhoNeeds(ctx, item)
		if err != nil {
			t.Fatalf("WhoNeeds: %v", err)
		}
		if slices.Contains(members, "alice") {
			t.Errorf("%s still lists alice: %v", item, members)
		}
	}
	bobNeeds, _ := registry.NeededBy(ctx, "bob")
	if diff := cmp.Diff([]string{"Red Hat", "Leather Belt"}, bobNeeds); diff != "" {
		t.Errorf("bob's wants changed by forgetting alice (-want +got):\n%s", diff)
	}

	if err := registry.Forget(ctx, "alice"); err != nil {
		t.Errorf("Forget is not retry-safe: %v", err)
	}
}

func TestConcurrentRemovesConverge(t *testing.T) {
	directory := t.TempDir()
	store, err := wantstore.OpenFileStore(filepath.Join(directory, "wants"))
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	registry := newTestRegistry(t, store)
	ctx := context.Background()

	var users []string
	for index := range 20 {
		user := fmt.Sprintf("user%d", index)
		users = append(users, user)
		if err := registry.Add(ctx, "Red Hat", user); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var wg sync.WaitGroup
	for _, user := range users[:15] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := registry.Remove(ctx, "Red Hat", user); err != nil {
				t.Errorf("Remove(%s): %v", user, err)
			}
		}()
	}
	wg.Wait()

	members, err := registry.WhoNeeds(ctx, "Red Hat")
	if err != nil {
		t.Fatalf("WhoNeeds: %v", err)
	}
	if diff := cmp.Diff(users[15:], members); diff != "" {
		t.Errorf("lost update under concurrent Remove (-want +got):\n%s", diff)
	}
	if size := registry.locks.size(); size != 0 {
		t.Errorf("%d item locks left behind", size)
	}
}

func TestStorageUnavailable(t *testing.T) {
	store := wantstore.NewMemoryStore()
	registry := newTestRegistry(t, store)
	store.FailWith(errors.New("disk detached"))
	ctx := context.Background()

	checks := map[string]error{
		"Add":    registry.Add(ctx, "Red Hat", "alice"),
		"Remove": registry.Remove(ctx, "Red Hat", "alice"),
		"Forget": registry.Forget(ctx, "alice"),
	}
	_, checks["WhoNeeds"] = registry.WhoNeeds(ctx, "Red Hat")
	_, checks["Needs"] = registry.Needs(ctx, "Red Hat", "alice")
	_, checks["NeededBy"] = registry.NeededBy(ctx, "alice")

	for name, err := range checks {
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("%s error = %v, want ErrStorageUnavailable", name, err)
		}
	}
}

func TestItemsInCategory(t *testing.T) {
	registry := newTestRegistry(t, wantstore.NewMemoryStore())
	got := slices.Collect(registry.ItemsInCategory("0"))
	if diff := cmp.Diff([]string{"Blue Hat", "Golden Hat", "Red Hat"}, got); diff != "" {
		t.Errorf("ItemsInCategory mismatch (-want +got):\n%s", diff)
	}
}
