// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by sharebot tests.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-deadline pattern so tests never block forever on a channel.
// They are the only place tests touch the wall clock; everything under
// test runs on a [clock.FakeClock].
//
// [UniqueID] yields distinct identifiers for transaction IDs and event
// IDs in fake homeservers.
package testutil
