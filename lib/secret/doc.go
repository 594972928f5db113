// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps the bot's Matrix access token out of the Go heap.
//
// [Buffer] is backed by an anonymous mmap region that is mlocked (never
// swapped) and excluded from core dumps. Close zeroes, unlocks, and unmaps
// it. [ReadFromPath] loads a token file; [FromString] adopts a token that
// arrived through the environment.
//
// Depends on golang.org/x/sys/unix only.
package secret
