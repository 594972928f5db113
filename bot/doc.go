// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot is the command surface: needsomething, dontneed,
// foundsomething, whatdoineed, forgetme, and help.
//
// Each command runs against an [Invocation], the invoking user plus a
// prompt.Channel bound to that user. Commands that need an item run the
// selection flow first; foundsomething then hands the item to claim
// negotiation and forgetme goes through the erasure confirmation.
//
// When the registry cannot reach its store, the command tells the user
// [StorageUnavailableText] and returns the error, which [Bot.Dispatch]
// logs. A storage failure never stops the process.
package bot
