// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the read-only table of item categories and the
// items in each, loaded once at startup.
//
// Categories keep their configured order. Items within a category are
// sorted, deduplicated, and passed through [Sanitize], which is the same
// filter the want store applies to its records. An item belongs to
// exactly one category; loading a catalog that lists a name twice across
// categories fails.
//
// [Catalog.Fingerprint] is a BLAKE3 digest over the whole table. The bot
// logs it at startup and sharebot-admin prints it, so operators can tell
// whether two processes agree on the catalog.
package catalog
