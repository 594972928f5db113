// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that every prompt
// wait in sharebot can be driven deterministically in tests.
//
// Production code holds a Clock and calls Now, After, or NewTimer instead
// of the time package. Real() delegates to the standard library. Fake()
// stands still until Advance is called.
//
// # Synchronizing with a FakeClock
//
// A goroutine waiting on a prompt registers a timer before it blocks. Tests
// must not advance the clock until that registration has happened, or the
// deadline is computed from the already-advanced time. Two helpers cover
// this:
//
//   - WaitForTimers(n) blocks until n timers are pending (armed and not yet
//     fired or stopped).
//   - WaitForRegistered(n) blocks until n timers have been registered over
//     the clock's lifetime. This is the right primitive for loops that stop
//     one timer and arm the next after handling an event: a test records
//     Registered() before delivering the event and then waits for one more.
//
//	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go negotiate(clk)
//	clk.WaitForRegistered(1)
//	clk.Advance(3 * time.Minute) // fires the pending wait
package clock
