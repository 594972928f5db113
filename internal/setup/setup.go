// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package setup builds the storage side of the bot from a configuration.
// The bot and the admin tool share it so they read the same catalog and
// store the same way.
package setup

import (
	"fmt"
	"log/slog"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/lib/config"
	"github.com/sharebot/sharebot/registry"
	"github.com/sharebot/sharebot/wantstore"
)

// Components are the long-lived pieces both binaries use.
type Components struct {
	Catalog  *catalog.Catalog
	Store    wantstore.Store
	Registry *registry.Registry
}

// Open loads the catalog, opens the configured want store and builds the
// registry over both. Close releases the store.
func Open(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	items, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		"categories", len(items.Categories()),
		"items", items.Len(),
		"fingerprint", items.Fingerprint(),
	)

	store, err := wantstore.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s want store: %w", cfg.Storage.Backend, err)
	}
	logger.Info("want store opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	wants, err := registry.New(registry.Config{
		Store:   store,
		Catalog: items,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Components{Catalog: items, Store: store, Registry: wants}, nil
}

// Close closes the want store.
func (c *Components) Close() error {
	return c.Store.Close()
}

// LoadConfig reads the file at path, or the file named by SHAREBOT_CONFIG
// when path is empty, and validates it.
func LoadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}
