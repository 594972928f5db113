// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package selection walks a user from a category menu to exactly one
// catalog item.
//
// The flow is two private prompts. The first offers the categories as a
// single select menu. The second shows the chosen category's items split
// into groups of at most GroupSize (one select menu each) and pages of at
// most GroupsPerPage groups, with "back" and "next" buttons that wrap
// around. Every wait is bounded by Timeout on the injected clock.
//
// Anything unexpected (a button where a menu was expected, an unknown
// control, an empty selection, an item outside the category) ends the flow
// as Cancelled after a warning log. Callers treat Cancelled and TimedOut
// the same way: no item.
package selection
