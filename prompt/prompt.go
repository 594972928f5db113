// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/sharebot/sharebot/lib/clock"
)

// ErrClosed is returned by Await when the handle's event stream ended.
var ErrClosed = errors.New("prompt: event stream closed")

// Style is a rendering hint for a button.
type Style int

const (
	Primary Style = iota
	Secondary
	Success
	Danger
)

type Button struct {
	ID    string
	Label string
	Style Style
}

type Option struct {
	Label string
	Value string
}

type SelectMenu struct {
	ID          string
	Placeholder string
	Options     []Option
}

// Controls are the interactive parts of a message. A message without
// controls is plain status text.
type Controls struct {
	Menus   []SelectMenu
	Buttons []Button
}

// Empty reports whether there is nothing to interact with.
func (c Controls) Empty() bool {
	return len(c.Menus) == 0 && len(c.Buttons) == 0
}

type Message struct {
	// Content is markdown.
	Content  string
	Controls Controls

	// Private restricts visibility and responses to the invoking user.
	Private bool
}

// Text is a plain message without controls.
func Text(content string) Message {
	return Message{Content: content}
}

// EventKind distinguishes the two interactions a prompt supports.
type EventKind int

const (
	ButtonPressed EventKind = iota + 1
	ItemsSelected
)

func (k EventKind) String() string {
	switch k {
	case ButtonPressed:
		return "button_pressed"
	case ItemsSelected:
		return "items_selected"
	default:
		return "unknown"
	}
}

// Event is one user interaction with a prompt. ControlID is the button
// or menu id. Values is set for ItemsSelected only.
type Event struct {
	Kind      EventKind
	ControlID string
	Values    []string
	User      string
}

// Channel is where a command talks to users.
type Channel interface {
	// Send posts a message and returns a handle to it.
	Send(ctx context.Context, message Message) (Handle, error)

	// Notify sends a short notice that only user sees.
	Notify(ctx context.Context, user, text string) error

	// Mention renders a user id as a platform mention.
	Mention(user string) string
}

// Handle refers to one sent message.
type Handle interface {
	// Edit replaces the message content and controls.
	Edit(ctx context.Context, message Message) error

	// Delete withdraws the message.
	Delete(ctx context.Context) error

	// Events delivers interactions in arrival order. The channel is
	// closed by Close.
	Events() <-chan Event

	// Close stops event delivery. The message itself stays as it is.
	Close() error
}

// Await returns the next event from handle. ok is false when timeout
// elapsed on clk first. A cancelled ctx returns ctx.Err(); an ended
// stream returns ErrClosed.
func Await(ctx context.Context, clk clock.Clock, handle Handle, timeout time.Duration) (event Event, ok bool, err error) {
	timer := clk.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event, open := <-handle.Events():
		if !open {
			return Event{}, false, ErrClosed
		}
		return event, true, nil
	case <-timer.C:
		return Event{}, false, nil
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	}
}
