// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrixbot runs the bot's commands in Matrix rooms.
//
// A [Router] follows the /sync stream of a [messaging.Session]. Room
// messages that start with the command prefix are dispatched, each in its
// own goroutine, with a prompt.Channel bound to the room and the invoking
// user.
//
// Matrix has no message components, so prompts are rendered as text. Menu
// options are numbered and buttons are listed by label. The bot reacts to
// its own prompts with every button label so users can answer with one
// click. A user answers a prompt by reacting with a button label, or by
// replying to it with a button label, an option number or an option
// name. Private prompts mention the invoking user, and only that user's
// answers are delivered.
//
// Registry user ids are the hex encoding of Matrix user ids; see
// [EncodeUser].
package matrixbot
