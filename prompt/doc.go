// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompt is the contract between the interactive flows and the
// chat platform they run on.
//
// A flow sends a [Message] carrying [Controls] (select menus and buttons)
// through a [Channel] and receives a [Handle]. User interactions with that
// message arrive as [Event] values on Handle.Events, in the order the
// platform saw them. [Await] takes one event from the stream, bounded by a
// timeout measured on an injected clock.
//
// A Channel is bound to one command invocation: Private messages are
// visible to, and accept responses from, only the invoking user.
package prompt
