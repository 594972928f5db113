// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package matrixbot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sharebot/sharebot/messaging"
	"github.com/sharebot/sharebot/prompt"
)

// roomChannel is the prompt.Channel of one command invocation.
type roomChannel struct {
	router  *Router
	roomID  string
	invoker string // Matrix user id
}

func (c *roomChannel) Send(ctx context.Context, message prompt.Message) (prompt.Handle, error) {
	content := c.content(message)
	eventID, err := c.router.session.SendMessage(ctx, c.roomID, content)
	if err != nil {
		return nil, fmt.Errorf("matrixbot: sending prompt: %w", err)
	}

	h := &handle{
		channel:  c,
		eventID:  eventID,
		controls: message.Controls,
		private:  message.Private,
		events:   make(chan prompt.Event),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		reacted:  make(map[string]bool),
		logger:   c.router.logger.With("room_id", c.roomID, "event_id", eventID),
	}
	if !message.Controls.Empty() {
		c.router.register(h)
		h.offerButtons(ctx, message.Controls)
	}
	return h, nil
}

func (c *roomChannel) Notify(ctx context.Context, user, text string) error {
	content := messaging.NewMarkdownMessage(c.Mention(user) + ": " + text)
	if matrixID, ok := DecodeUser(user); ok {
		content.Mentions = &messaging.Mentions{UserIDs: []string{matrixID}}
	}
	if _, err := c.router.session.SendMessage(ctx, c.roomID, content); err != nil {
		return fmt.Errorf("matrixbot: sending notice: %w", err)
	}
	return nil
}

func (c *roomChannel) Mention(user string) string {
	if matrixID, ok := DecodeUser(user); ok {
		return matrixID
	}
	return user
}

// content renders message for this room. Private messages are addressed
// to the invoker.
func (c *roomChannel) content(message prompt.Message) messaging.MessageContent {
	body := render(message)
	if !message.Private {
		return messaging.NewMarkdownMessage(body)
	}
	content := messaging.NewMarkdownMessage(c.invoker + ": " + body)
	content.Mentions = &messaging.Mentions{UserIDs: []string{c.invoker}}
	return content
}

// handle is a sent prompt. Answers arrive through deliver from the sync
// goroutine and wait in pending, in arrival order, until the flow takes
// them from events. pending is unbounded: deliver never blocks and never
// drops an answer.
type handle struct {
	channel *roomChannel
	eventID string
	private bool
	logger  *slog.Logger

	mu       sync.Mutex
	controls prompt.Controls
	reacted  map[string]bool
	pending  []prompt.Event
	pumping  bool
	closed   bool

	events chan prompt.Event
	wake   chan struct{}
	done   chan struct{}
}

func (h *handle) Edit(ctx context.Context, message prompt.Message) error {
	router := h.channel.router
	content := h.channel.content(message)
	if _, err := router.session.EditMessage(ctx, h.channel.roomID, h.eventID, content); err != nil {
		return fmt.Errorf("matrixbot: editing prompt: %w", err)
	}

	h.mu.Lock()
	h.controls = message.Controls
	closed := h.closed
	h.mu.Unlock()

	if !closed && !message.Controls.Empty() {
		router.register(h)
		h.offerButtons(ctx, message.Controls)
	}
	return nil
}

func (h *handle) Delete(ctx context.Context) error {
	h.channel.router.unregister(h.eventID)
	if err := h.channel.router.session.Redact(ctx, h.channel.roomID, h.eventID, "prompt closed"); err != nil {
		return fmt.Errorf("matrixbot: deleting prompt: %w", err)
	}
	return nil
}

func (h *handle) Events() <-chan prompt.Event {
	return h.events
}

// Close stops delivery and closes the event channel. Answers still
// pending are discarded.
func (h *handle) Close() error {
	h.channel.router.unregister(h.eventID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	if !h.pumping {
		close(h.events)
	}
	return nil
}

// answerable returns the current controls, or false when sender may not
// answer this prompt.
func (h *handle) answerable(sender string) (prompt.Controls, bool) {
	if h.private && sender != h.channel.invoker {
		return prompt.Controls{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.controls, !h.closed
}

// deliver queues event without blocking the sync loop. The first answer
// starts the pump.
func (h *handle) deliver(event prompt.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.pending = append(h.pending, event)
	if !h.pumping {
		h.pumping = true
		go h.pump()
	}
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// pump moves pending answers to events one at a time until Close.
func (h *handle) pump() {
	defer close(h.events)
	for {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.mu.Unlock()
			select {
			case <-h.wake:
				continue
			case <-h.done:
				return
			}
		}
		next := h.pending[0]
		h.pending = h.pending[1:]
		h.mu.Unlock()

		select {
		case h.events <- next:
		case <-h.done:
			return
		}
	}
}

// queued reports how many answers are waiting behind the one being
// handed over.
func (h *handle) queued() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// offerButtons reacts to the prompt with each button label not offered
// yet, so users can answer by clicking the reaction.
func (h *handle) offerButtons(ctx context.Context, controls prompt.Controls) {
	for _, button := range controls.Buttons {
		h.mu.Lock()
		offered := h.reacted[button.Label]
		h.reacted[button.Label] = true
		h.mu.Unlock()
		if offered {
			continue
		}
		if _, err := h.channel.router.session.React(ctx, h.channel.roomID, h.eventID, button.Label); err != nil {
			h.logger.Warn("offering button failed", "label", button.Label, "error", err)
		}
	}
}
