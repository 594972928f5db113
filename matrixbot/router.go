// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package matrixbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sharebot/sharebot/bot"
	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/messaging"
	"github.com/sharebot/sharebot/prompt"
)

// SyncFilter limits /sync to the room events the router handles.
const SyncFilter = `{"room":{"timeline":{"types":["m.room.message","m.reaction"],"limit":50},"state":{"types":[]},"ephemeral":{"types":[]},"account_data":{"types":[]}},"presence":{"types":[]},"account_data":{"types":[]}}`

// Dispatcher runs one command. *bot.Bot implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, invocation bot.Invocation) error
}

// Config configures a Router. Session and Dispatcher are required.
type Config struct {
	Session    *messaging.Session
	Dispatcher Dispatcher

	// CommandPrefix starts every command message. Default "!".
	CommandPrefix string

	// Rooms are joined at startup, in addition to accepted invites.
	Rooms []string

	// Clock drives sync retry backoff. Default clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Router connects the command set to Matrix rooms.
type Router struct {
	session    *messaging.Session
	dispatcher Dispatcher
	prefix     string
	rooms      []string
	clock      clock.Clock
	logger     *slog.Logger

	mu      sync.Mutex
	self    string
	handles map[string]*handle

	commands sync.WaitGroup
}

func New(cfg Config) (*Router, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("matrixbot: Session is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("matrixbot: Dispatcher is required")
	}
	r := &Router{
		session:    cfg.Session,
		dispatcher: cfg.Dispatcher,
		prefix:     cfg.CommandPrefix,
		rooms:      cfg.Rooms,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		self:       cfg.Session.UserID(),
		handles:    make(map[string]*handle),
	}
	if r.prefix == "" {
		r.prefix = "!"
	}
	if r.clock == nil {
		r.clock = clock.Real()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r, nil
}

// Run verifies the session, joins rooms, skips the backlog with an
// initial sync and then handles events until ctx is cancelled. It waits
// for running commands before returning.
func (r *Router) Run(ctx context.Context) error {
	defer r.commands.Wait()

	userID, err := r.session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("matrixbot: checking access token: %w", err)
	}
	r.mu.Lock()
	if r.self != "" && r.self != userID {
		r.logger.Warn("access token belongs to another user", "configured", r.self, "actual", userID)
	}
	r.self = userID
	r.mu.Unlock()

	for _, room := range r.rooms {
		roomID, err := r.session.JoinRoom(ctx, room)
		if err != nil {
			r.logger.Error("failed to join room", "room", room, "error", err)
			continue
		}
		r.logger.Info("joined room", "room", room, "room_id", roomID)
	}

	since, initial, err := messaging.InitialSync(ctx, r.session, SyncFilter)
	if err != nil {
		return fmt.Errorf("matrixbot: %w", err)
	}
	messaging.AcceptInvites(ctx, r.session, initial.Rooms.Invite, r.logger)
	r.logger.Info("listening for commands", "user_id", userID, "prefix", r.prefix)

	if err := messaging.RunSyncLoop(ctx, r.session, messaging.SyncConfig{Filter: SyncFilter}, since, r.handleSync, r.clock, r.logger); err != nil {
		return fmt.Errorf("matrixbot: %w", err)
	}
	return nil
}

func (r *Router) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	if len(response.Rooms.Invite) > 0 {
		messaging.AcceptInvites(ctx, r.session, response.Rooms.Invite, r.logger)
	}
	for roomID, room := range response.Rooms.Join {
		for _, event := range room.Timeline.Events {
			r.handleEvent(ctx, roomID, event)
		}
	}
}

func (r *Router) handleEvent(ctx context.Context, roomID string, event messaging.Event) {
	if event.Sender == r.selfID() {
		return
	}
	logger := r.logger.With("room_id", roomID, "event_id", event.EventID, "sender", event.Sender)

	switch event.Type {
	case messaging.EventTypeReaction:
		var content messaging.ReactionContent
		if err := event.DecodeContent(&content); err != nil {
			logger.Debug("ignoring malformed reaction", "error", err)
			return
		}
		if content.RelatesTo.RelType != messaging.RelationAnnotation {
			return
		}
		r.deliver(content.RelatesTo.EventID, event.Sender, func(controls prompt.Controls) (prompt.Event, bool) {
			return interpretReaction(controls, content.RelatesTo.Key)
		})

	case messaging.EventTypeMessage:
		var content messaging.MessageContent
		if err := event.DecodeContent(&content); err != nil {
			logger.Debug("ignoring malformed message", "error", err)
			return
		}
		if relation := content.RelatesTo; relation != nil {
			if relation.RelType == messaging.RelationReplace {
				return
			}
			if relation.InReplyTo != nil && r.lookup(relation.InReplyTo.EventID) != nil {
				r.deliver(relation.InReplyTo.EventID, event.Sender, func(controls prompt.Controls) (prompt.Event, bool) {
					return interpretReply(controls, content.Body)
				})
				return
			}
		}
		r.command(ctx, roomID, event.Sender, content.Body, logger)
	}
}

// command dispatches body if it is a command, in its own goroutine.
func (r *Router) command(ctx context.Context, roomID, sender, body string, logger *slog.Logger) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(body), r.prefix)
	if !ok {
		return
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	name := fields[0]

	invocation := bot.Invocation{
		User:    EncodeUser(sender),
		Channel: &roomChannel{router: r, roomID: roomID, invoker: sender},
	}
	r.commands.Go(func() {
		err := r.dispatcher.Dispatch(ctx, name, invocation)
		if errors.Is(err, bot.ErrUnknownCommand) {
			logger.Debug("ignoring unknown command", "command", name)
		}
	})
}

// deliver hands the answer sender gave to the prompt eventID, if that
// prompt is open and sender may answer it.
func (r *Router) deliver(eventID, sender string, interpret func(prompt.Controls) (prompt.Event, bool)) {
	h := r.lookup(eventID)
	if h == nil {
		return
	}
	controls, ok := h.answerable(sender)
	if !ok {
		return
	}
	answer, ok := interpret(controls)
	if !ok {
		return
	}
	answer.User = EncodeUser(sender)
	h.deliver(answer)
}

func (r *Router) selfID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self
}

func (r *Router) register(h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.eventID] = h
}

func (r *Router) unregister(eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, eventID)
}

func (r *Router) lookup(eventID string) *handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[eventID]
}
