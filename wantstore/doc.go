// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package wantstore is the durable key to list-of-strings store behind the
// registry. Keys are item names and values are user ids.
//
// A key that was never written reads as an empty list. Every backend
// sanitizes keys and values on the way in and on the way out, so a record
// can never smuggle a separator or a path component. Failures to reach
// the backing medium wrap [ErrUnavailable].
//
// Four backends share the [Store] contract:
//
//   - [FileStore]: one newline-separated text file per item,
//     <dir>/<item>.txt. Appends are O_APPEND writes; rewrites go through
//     a temp file and rename.
//   - [SQLiteStore]: a want_entries table in a pure-Go SQLite database
//     opened through lib/sqlitepool.
//   - [BoltStore]: a bbolt bucket mapping item to a CBOR-encoded list.
//   - [MemoryStore]: for tests and throwaway deployments.
//
// Stores do not serialize read-modify-write sequences across calls;
// the registry holds a per-item lock for that.
package wantstore
