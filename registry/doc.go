// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry records which users want which catalog items.
//
// A [Registry] is shared by every command running in the process. Each
// read-modify-write on one item (Add, Remove) holds that item's lock, so
// two concurrent removals of different users from the same item both take
// effect. Operations on different items never contend.
//
// A user id appears at most once per item. Reading an item nobody ever
// wanted yields an empty set, not an error. When the store cannot be
// reached, errors wrap [ErrStorageUnavailable].
package registry
