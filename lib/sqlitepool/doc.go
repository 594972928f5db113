// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens a small pool of pure-Go SQLite connections
// (zombiezen.com/go/sqlite) with the pragmas the want store relies on.
//
// Every connection runs in WAL mode with a busy timeout, so concurrent
// readers never block the single writer. [Config.Schema] is applied to
// each connection on first use; it must be idempotent (CREATE ... IF NOT
// EXISTS). [Pool.With] borrows a connection for the duration of a
// callback and always returns it.
package sqlitepool
