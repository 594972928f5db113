// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package wantstore

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a process-local Store. FailWith makes every later call
// fail, for exercising storage-error paths.
type MemoryStore struct {
	mu      sync.Mutex
	lists   map[string][]string
	failure error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]string)}
}

// FailWith makes subsequent operations return err wrapped as
// unavailable. A nil err restores normal operation.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *MemoryStore) Read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey("read", key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return nil, unavailable("read", key, s.failure)
	}
	return slices.Clone(s.lists[key]), nil
}

func (s *MemoryStore) Append(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("append", key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return unavailable("append", key, s.failure)
	}
	s.lists[key] = append(s.lists[key], cleanValues([]string{value})...)
	return nil
}

func (s *MemoryStore) Rewrite(ctx context.Context, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("rewrite", key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return unavailable("rewrite", key, s.failure)
	}
	s.lists[key] = cleanValues(values)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
