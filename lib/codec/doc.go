// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is sharebot's CBOR encoding, used wherever a backing store
// keeps a structured value in a single opaque blob (the bbolt want-set
// store keeps each item's member list this way).
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2) so the same
// member list always produces the same bytes. Decoding ignores unknown
// fields and maps any-typed values to map[string]any.
package codec
