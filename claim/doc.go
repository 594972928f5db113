// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package claim runs the public negotiation that follows a found item.
//
// The finder's status message is edited to name the item, and a claim
// prompt pings everyone who wanted it at that moment (the list is read
// once). The prompt has three buttons:
//
//   - claim: anyone may press it; the first press wins and ends the
//     negotiation. The registry is not changed: the claimant is asked to
//     run the dontneed command once they have the item.
//   - cancel: only the finder may end the share this way. Anyone else gets
//     a private notice and the prompt keeps waiting.
//   - have: the presser is removed from the item's want set and the
//     prompt keeps waiting.
//
// Each wait is bounded by Timeout; a wait with no response ends the
// negotiation. Presses are handled strictly one at a time in arrival
// order. Every terminal outcome withdraws the prompt and edits the status
// message exactly once.
package claim
