// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a small Matrix client-server API client covering
// what a command bot needs.
//
// [Client] holds the homeserver URL and HTTP transport. [Session] wraps a
// Client with an access token held in a [secret.Buffer] and exposes the
// authenticated calls the bot makes: identity checks (WhoAmI), room
// membership (JoinRoom, JoinedRooms), sending messages and annotations,
// message edits via m.replace relations, redactions, and /sync.
// Sessions must be closed to release the protected token memory.
//
// [InitialSync] and [RunSyncLoop] implement the long-poll loop with
// exponential backoff on transient failures. [AcceptInvites] joins every
// room the bot has been invited to.
//
// Message bodies are written in markdown. [NewMarkdownMessage] renders the
// HTML formatted_body with goldmark so clients that support rich text show
// bold item names.
//
// All API errors are returned as [*MatrixError] carrying the Matrix error
// code and HTTP status. [ErrorCode] extracts the code from a wrapped error.
package messaging
