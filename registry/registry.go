// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/wantstore"
)

// ErrStorageUnavailable is wrapped by errors caused by the want store.
var ErrStorageUnavailable = wantstore.ErrUnavailable

// forgetParallelism bounds concurrent item rewrites during Forget.
const forgetParallelism = 8

// Config holds the Registry's dependencies. Store and Catalog are
// required.
type Config struct {
	Store   wantstore.Store
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

// Registry maps items to the set of users wanting them. Safe for
// concurrent use.
type Registry struct {
	store   wantstore.Store
	catalog *catalog.Catalog
	locks   *keyedMutex
	logger  *slog.Logger
}

func New(cfg Config) (*Registry, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("registry: Store is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("registry: Catalog is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		locks:   newKeyedMutex(),
		logger:  logger,
	}, nil
}

// Catalog returns the catalog the registry scans.
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// Add records that user wants item. Adding an existing pair changes
// nothing.
func (r *Registry) Add(ctx context.Context, item, user string) error {
	item, user = catalog.SanitizeName(item), catalog.SanitizeName(user)
	unlock := r.locks.Lock(item)
	defer unlock()

	members, err := r.store.Read(ctx, item)
	if err != nil {
		return fmt.Errorf("registry: add %q: %w", item, err)
	}
	if slices.Contains(members, user) {
		return nil
	}
	if err := r.store.Append(ctx, item, user); err != nil {
		return fmt.Errorf("registry: add %q: %w", item, err)
	}
	r.logger.Debug("want added", "item", item, "user", user)
	return nil
}

// Remove deletes user from item's set. Removing an absent pair is not an
// error and leaves the record untouched.
func (r *Registry) Remove(ctx context.Context, item, user string) error {
	item, user = catalog.SanitizeName(item), catalog.SanitizeName(user)
	unlock := r.locks.Lock(item)
	defer unlock()

	members, err := r.store.Read(ctx, item)
	if err != nil {
		return fmt.Errorf("registry: remove %q: %w", item, err)
	}
	remaining := slices.DeleteFunc(slices.Clone(members), func(member string) bool {
		return member == user
	})
	if len(remaining) == len(members) {
		return nil
	}
	if err := r.store.Rewrite(ctx, item, remaining); err != nil {
		return fmt.Errorf("registry: remove %q: %w", item, err)
	}
	r.logger.Debug("want removed", "item", item, "user", user)
	return nil
}

// Needs reports whether user wants item.
func (r *Registry) Needs(ctx context.Context, item, user string) (bool, error) {
	members, err := r.WhoNeeds(ctx, item)
	if err != nil {
		return false, err
	}
	return slices.Contains(members, catalog.SanitizeName(user)), nil
}

// WhoNeeds returns the users wanting item in first-recorded order, with
// duplicates collapsed.
func (r *Registry) WhoNeeds(ctx context.Context, item string) ([]string, error) {
	item = catalog.SanitizeName(item)
	members, err := r.store.Read(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("registry: who needs %q: %w", item, err)
	}
	seen := make(map[string]bool, len(members))
	unique := members[:0:0]
	for _, member := range members {
		if !seen[member] {
			seen[member] = true
			unique = append(unique, member)
		}
	}
	return unique, nil
}

// NeededBy scans the whole catalog and returns the items user wants, in
// catalog order.
func (r *Registry) NeededBy(ctx context.Context, user string) ([]string, error) {
	user = catalog.SanitizeName(user)
	var needed []string
	for _, item := range r.catalog.Items() {
		members, err := r.store.Read(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("registry: needed by: %w", err)
		}
		if slices.Contains(members, user) {
			needed = append(needed, item)
		}
	}
	return needed, nil
}

// Forget removes user from every catalog item. Each item is updated
// atomically; a failure part way leaves earlier items updated, and a
// retry finishes the job.
func (r *Registry) Forget(ctx context.Context, user string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(forgetParallelism)
	for _, item := range r.catalog.Items() {
		group.Go(func() error {
			return r.Remove(groupCtx, item, user)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("registry: forget: %w", err)
	}
	r.logger.Info("user forgotten", "user", catalog.SanitizeName(user), "items_scanned", r.catalog.Len())
	return nil
}

// ItemsInCategory yields the category's items in sorted order.
func (r *Registry) ItemsInCategory(key string) iter.Seq[string] {
	return r.catalog.ItemsInCategory(key)
}
