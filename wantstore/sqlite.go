// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package wantstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/sharebot/sharebot/lib/sqlitepool"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS want_entries (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	item   TEXT NOT NULL,
	member TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS want_entries_by_item ON want_entries (item, id);
`

// SQLiteStore keeps every list in one table, ordered by insertion id.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	poolSize := 0
	if path == ":memory:" {
		poolSize = 1
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: poolSize,
		Schema:   sqliteSchema,
		Logger:   logger,
	})
	if err != nil {
		return nil, unavailable("open", path, err)
	}
	return &SQLiteStore{pool: pool}, nil
}

func (s *SQLiteStore) Read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey("read", key)
	if err != nil {
		return nil, err
	}

	var members []string
	err = s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT member FROM want_entries WHERE item = ? ORDER BY id",
			&sqlitex.ExecOptions{
				Args: []any{key},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					members = append(members, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, unavailable("read", key, err)
	}
	return cleanValues(members), nil
}

func (s *SQLiteStore) Append(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("append", key)
	if err != nil {
		return err
	}
	values := cleanValues([]string{value})
	if len(values) == 0 {
		return nil
	}

	err = s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return insertMember(conn, key, values[0])
	})
	if err != nil {
		return unavailable("append", key, err)
	}
	return nil
}

// Rewrite deletes and reinserts the list in one IMMEDIATE transaction.
func (s *SQLiteStore) Rewrite(ctx context.Context, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey("rewrite", key)
	if err != nil {
		return err
	}
	values = cleanValues(values)

	err = s.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		if err := sqlitex.Execute(conn, "DELETE FROM want_entries WHERE item = ?",
			&sqlitex.ExecOptions{Args: []any{key}}); err != nil {
			return err
		}
		for _, value := range values {
			if err := insertMember(conn, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("rewrite", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

func insertMember(conn *sqlite.Conn, key, member string) error {
	return sqlitex.Execute(conn, "INSERT INTO want_entries (item, member) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{key, member}})
}
