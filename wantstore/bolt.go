// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package wantstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sharebot/sharebot/lib/codec"
)

const wantsBucket = "wants"

// BoltStore keeps each list as a CBOR array under its key.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens the database file, waiting at most a second for
// another process's lock.
func OpenBoltStore(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("wantstore: bolt path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, unavailable("open", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(wantsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, unavailable("open", path, fmt.Errorf("create %s bucket: %w", wantsBucket, err))
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey("read", key)
	if err != nil {
		return nil, err
	}

	var values []string
	err = s.db.View(func(tx *bbolt.Tx) error {
		var err error
		values, err = decodeList(tx.Bucket([]byte(wantsBucket)).Get([]byte(key)))
		return err
	})
	if err != nil {
		return nil, unavailable("read", key, err)
	}
	return cleanValues(values), nil
}

func (s *BoltStore) Append(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("append", key)
	if err != nil {
		return err
	}
	added := cleanValues([]string{value})
	if len(added) == 0 {
		return nil
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(wantsBucket))
		values, err := decodeList(bucket.Get([]byte(key)))
		if err != nil {
			return err
		}
		return putList(bucket, key, append(values, added[0]))
	})
	if err != nil {
		return unavailable("append", key, err)
	}
	return nil
}

func (s *BoltStore) Rewrite(ctx context.Context, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("rewrite", key)
	if err != nil {
		return err
	}
	values = cleanValues(values)

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return putList(tx.Bucket([]byte(wantsBucket)), key, values)
	})
	if err != nil {
		return unavailable("rewrite", key, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// decodeList copies out of the bbolt page; payload is only valid inside
// the transaction.
func decodeList(payload []byte) ([]string, error) {
	if payload == nil {
		return nil, nil
	}
	var values []string
	if err := codec.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return values, nil
}

func putList(bucket *bbolt.Bucket, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	payload, err := codec.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	return bucket.Put([]byte(key), payload)
}
