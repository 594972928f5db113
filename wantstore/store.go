// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package wantstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/lib/config"
)

// ErrUnavailable is wrapped by every error caused by the backing medium.
var ErrUnavailable = errors.New("want store unavailable")

// Store is a durable mapping from key to an ordered list of strings.
type Store interface {
	// Read returns the list stored under key, or nil if there is none.
	Read(ctx context.Context, key string) ([]string, error)

	// Append adds one value to the end of key's list.
	Append(ctx context.Context, key, value string) error

	// Rewrite replaces key's list. An empty values list leaves the key
	// present and empty.
	Rewrite(ctx context.Context, key string, values []string) error

	Close() error
}

// OperationError reports a failed store operation. It matches both
// ErrUnavailable and the underlying cause under errors.Is.
type OperationError struct {
	Op  string
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("wantstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func unavailable(op, key string, err error) error {
	return &OperationError{Op: op, Key: key, Err: err}
}

// Open constructs the backend named by cfg.Backend.
func Open(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.Backend {
	case config.BackendFile:
		return OpenFileStore(cfg.Path)
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.Path, logger)
	case config.BackendBolt:
		return OpenBoltStore(cfg.Path)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("wantstore: unknown backend %q", cfg.Backend)
	}
}

// cleanKey sanitizes a key and rejects one that sanitizes to nothing.
func cleanKey(op, key string) (string, error) {
	clean := catalog.SanitizeName(key)
	if clean == "" {
		return "", fmt.Errorf("wantstore: %s: key %q is empty after sanitization", op, key)
	}
	return clean, nil
}

// cleanValues sanitizes each value and drops the ones left empty.
func cleanValues(values []string) []string {
	var clean []string
	for _, value := range values {
		if sanitized := catalog.SanitizeName(value); sanitized != "" {
			clean = append(clean, sanitized)
		}
	}
	return clean
}
