// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package wantstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharebot/sharebot/catalog"
)

// FileStore keeps one text file per key in a directory.
type FileStore struct {
	directory string
}

// OpenFileStore creates the directory if needed.
func OpenFileStore(directory string) (*FileStore, error) {
	if strings.TrimSpace(directory) == "" {
		return nil, fmt.Errorf("wantstore: file store directory is required")
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, unavailable("open", directory, err)
	}
	return &FileStore{directory: filepath.Clean(directory)}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.directory, key+".txt")
}

func (s *FileStore) Read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey("read", key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("read", key, err)
	}
	return catalog.SplitRecord(string(data)), nil
}

func (s *FileStore) Append(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("append", key)
	if err != nil {
		return err
	}
	value = catalog.SanitizeName(value)
	if value == "" {
		return nil
	}

	file, err := os.OpenFile(s.path(key), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return unavailable("append", key, err)
	}
	if _, err := file.WriteString(value + "\n"); err != nil {
		file.Close()
		return unavailable("append", key, err)
	}
	if err := file.Close(); err != nil {
		return unavailable("append", key, err)
	}
	return nil
}

// Rewrite replaces the file atomically: a temp file in the same directory
// is synced and renamed over the old one.
func (s *FileStore) Rewrite(ctx context.Context, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("rewrite", key)
	if err != nil {
		return err
	}

	var content strings.Builder
	for _, value := range cleanValues(values) {
		content.WriteString(value)
		content.WriteByte('\n')
	}
	if err := writeFileAtomic(s.path(key), []byte(content.String())); err != nil {
		return unavailable("rewrite", key, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), ".want-*")
	if err != nil {
		return err
	}
	tempPath := temp.Name()
	cleanup := func() { _ = os.Remove(tempPath) }

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		cleanup()
		return err
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		cleanup()
		return err
	}
	if err := temp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
