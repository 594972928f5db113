// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/matrixbot"
	"github.com/sharebot/sharebot/registry"
	"github.com/sharebot/sharebot/wantstore"
)

// migrateParallelism bounds concurrent item copies during migrate.
const migrateParallelism = 8

// admin runs operator commands over the bot's registry.
type admin struct {
	catalog  *catalog.Catalog
	store    wantstore.Store
	registry *registry.Registry
	out      io.Writer
	logger   *slog.Logger
}

// registryUser accepts either a Matrix user id or a stored id.
func registryUser(user string) string {
	if strings.HasPrefix(user, "@") {
		return matrixbot.EncodeUser(user)
	}
	return user
}

// displayUser shows a stored id as the Matrix id it encodes.
func displayUser(id string) string {
	if matrixID, ok := matrixbot.DecodeUser(id); ok {
		return matrixID
	}
	return id
}

func (a *admin) whoNeeds(ctx context.Context, item string) error {
	if !a.catalog.Contains(catalog.SanitizeName(item)) {
		return fmt.Errorf("%q is not in the catalog", item)
	}
	users, err := a.registry.WhoNeeds(ctx, item)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintf(a.out, "nobody needs %s\n", item)
		return nil
	}
	for _, user := range users {
		fmt.Fprintln(a.out, displayUser(user))
	}
	return nil
}

func (a *admin) neededBy(ctx context.Context, user string) error {
	items, err := a.registry.NeededBy(ctx, registryUser(user))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(a.out, "%s needs nothing\n", user)
		return nil
	}
	for _, item := range items {
		category, _ := a.catalog.CategoryOf(item)
		fmt.Fprintf(a.out, "%s\t%s\n", category.Name, item)
	}
	return nil
}

func (a *admin) forget(ctx context.Context, user string) error {
	if err := a.registry.Forget(ctx, registryUser(user)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "forgot %s\n", user)
	return nil
}

func (a *admin) catalogSummary() {
	for _, category := range a.catalog.Categories() {
		count := 0
		for range a.catalog.ItemsInCategory(category.Key) {
			count++
		}
		fmt.Fprintf(a.out, "%s\t%s\t%d\n", category.Key, category.Name, count)
	}
	fmt.Fprintf(a.out, "total\t\t%d\n", a.catalog.Len())
	fmt.Fprintf(a.out, "fingerprint\t%s\n", a.catalog.Fingerprint())
}

// migrate copies the want list of every catalog item into target and
// returns how many non-empty lists were copied.
func (a *admin) migrate(ctx context.Context, target wantstore.Store) (int, error) {
	var copied atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(migrateParallelism)
	for _, item := range a.catalog.Items() {
		group.Go(func() error {
			users, err := a.store.Read(groupCtx, item)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				return nil
			}
			if err := target.Rewrite(groupCtx, item, users); err != nil {
				return err
			}
			copied.Add(1)
			a.logger.Debug("item migrated", "item", item, "users", len(users))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return int(copied.Load()), fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(a.out, "migrated %d of %d items\n", copied.Load(), a.catalog.Len())
	return int(copied.Load()), nil
}
