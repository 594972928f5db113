// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompttest provides a scripted in-memory prompt.Channel.
//
// Every Send creates a [Handle] and queues it on the channel; tests pick
// prompts up in order with [Channel.NextPrompt] and answer them with
// [Handle.Press] or [Handle.Select]. Events are unbuffered by default, so
// Press returns only once the flow under test has received the event.
// [Channel.BufferEvents] gives later prompts a buffer so several answers
// can be queued at once with [Handle.Queue].
package prompttest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sharebot/sharebot/lib/testutil"
	"github.com/sharebot/sharebot/prompt"
)

// Timeout bounds every wait in this package.
const Timeout = 5 * time.Second

// Notice is one private notice.
type Notice struct {
	User string
	Text string
}

// Channel records everything a flow does.
type Channel struct {
	mu        sync.Mutex
	sent      []*Handle
	notices   []Notice
	sendError error
	buffer    int
	prompts   chan *Handle
}

func NewChannel() *Channel {
	return &Channel{prompts: make(chan *Handle, 64)}
}

// BufferEvents gives every prompt sent after the call an event buffer of
// size n.
func (c *Channel) BufferEvents(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = n
}

// FailSends makes later Send calls return err.
func (c *Channel) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendError = err
}

func (c *Channel) Send(ctx context.Context, message prompt.Message) (prompt.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.sendError != nil {
		err := c.sendError
		c.mu.Unlock()
		return nil, err
	}
	handle := &Handle{
		index:   len(c.sent),
		history: []prompt.Message{message},
		events:  make(chan prompt.Event, c.buffer),
	}
	c.sent = append(c.sent, handle)
	c.mu.Unlock()

	c.prompts <- handle
	return handle, nil
}

func (c *Channel) Notify(ctx context.Context, user, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{User: user, Text: text})
	return nil
}

func (c *Channel) Mention(user string) string {
	return "<@" + user + ">"
}

// NextPrompt returns the next message sent through the channel, failing
// the test if none arrives in time.
func (c *Channel) NextPrompt(t testutil.Failer) *Handle {
	t.Helper()
	return testutil.RequireReceive(t, c.prompts, Timeout, "waiting for a prompt")
}

// Sent returns every handle in send order.
func (c *Channel) Sent() []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

// Notices returns every private notice in order.
func (c *Channel) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.notices)
}

// Handle is a sent message and its scripted event stream.
type Handle struct {
	index int

	mu      sync.Mutex
	history []prompt.Message
	deleted bool
	closed  bool
	events  chan prompt.Event
}

func (h *Handle) Edit(ctx context.Context, message prompt.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deleted {
		return fmt.Errorf("prompttest: edit of deleted message %d", h.index)
	}
	h.history = append(h.history, message)
	return nil
}

func (h *Handle) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = true
	return nil
}

func (h *Handle) Events() <-chan prompt.Event {
	return h.events
}

// Close marks the handle released. The event channel stays open so a
// late Press fails by timeout instead of panicking.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Message is the current content, after any edits.
func (h *Handle) Message() prompt.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history[len(h.history)-1]
}

// History is the original message followed by every edit.
func (h *Handle) History() []prompt.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.history)
}

func (h *Handle) Deleted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deleted
}

func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Press delivers a button press and waits for the flow to take it.
func (h *Handle) Press(t testutil.Failer, buttonID, user string) {
	t.Helper()
	h.Deliver(t, prompt.Event{Kind: prompt.ButtonPressed, ControlID: buttonID, User: user})
}

// Select delivers a menu selection and waits for the flow to take it.
func (h *Handle) Select(t testutil.Failer, menuID string, values []string, user string) {
	t.Helper()
	h.Deliver(t, prompt.Event{Kind: prompt.ItemsSelected, ControlID: menuID, Values: values, User: user})
}

// Deliver sends an arbitrary event, including malformed ones.
func (h *Handle) Deliver(t testutil.Failer, event prompt.Event) {
	t.Helper()
	testutil.RequireSend(t, h.events, event, Timeout, "delivering %s on prompt %d", event.ControlID, h.index)
}

// Queue delivers events back to back without waiting for the flow to
// take each one. The prompt must have been sent with a buffer of at least
// len(events).
func (h *Handle) Queue(t testutil.Failer, events ...prompt.Event) {
	t.Helper()
	if len(events) > cap(h.events)-len(h.events) {
		t.Fatalf("prompttest: %d events do not fit the buffer of prompt %d", len(events), h.index)
	}
	for _, event := range events {
		h.events <- event
	}
}

// Unread is the number of queued events the flow has not taken.
func (h *Handle) Unread() int {
	return len(h.events)
}

// CloseEvents ends the event stream, as a platform does when the message
// disappears underneath the flow.
func (h *Handle) CloseEvents() {
	close(h.events)
}
