// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sharebot/sharebot/claim"
	"github.com/sharebot/sharebot/erasure"
	"github.com/sharebot/sharebot/prompt"
	"github.com/sharebot/sharebot/registry"
	"github.com/sharebot/sharebot/selection"
)

// Command names, without the prefix.
const (
	CommandNeed        = "needsomething"
	CommandDontNeed    = "dontneed"
	CommandFound       = "foundsomething"
	CommandWhatDoINeed = "whatdoineed"
	CommandForgetMe    = "forgetme"
	CommandHelp        = "help"
)

// StorageUnavailableText is shown when the want store cannot be reached.
const StorageUnavailableText = "storage is unavailable, try again later"

// ErrUnknownCommand is returned by Dispatch for a name it does not know.
var ErrUnknownCommand = errors.New("bot: unknown command")

// Invocation is one command call.
type Invocation struct {
	User    string
	Channel prompt.Channel
}

// Config wires the bot to its components. All but Logger are required.
type Config struct {
	Registry   *registry.Registry
	Selector   *selection.Selector
	Negotiator *claim.Negotiator
	Confirmer  *erasure.Confirmer

	// CommandPrefix is used in help and reminder texts. Default "!".
	CommandPrefix string

	Logger *slog.Logger
}

// Bot holds no per-command state; every method may run concurrently.
type Bot struct {
	registry   *registry.Registry
	selector   *selection.Selector
	negotiator *claim.Negotiator
	confirmer  *erasure.Confirmer
	prefix     string
	logger     *slog.Logger
	commands   map[string]func(context.Context, Invocation) error
}

func New(cfg Config) (*Bot, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("bot: Registry is required")
	case cfg.Selector == nil:
		return nil, fmt.Errorf("bot: Selector is required")
	case cfg.Negotiator == nil:
		return nil, fmt.Errorf("bot: Negotiator is required")
	case cfg.Confirmer == nil:
		return nil, fmt.Errorf("bot: Confirmer is required")
	}
	b := &Bot{
		registry:   cfg.Registry,
		selector:   cfg.Selector,
		negotiator: cfg.Negotiator,
		confirmer:  cfg.Confirmer,
		prefix:     cfg.CommandPrefix,
		logger:     cfg.Logger,
	}
	if b.prefix == "" {
		b.prefix = "!"
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	b.commands = map[string]func(context.Context, Invocation) error{
		CommandNeed:        b.Need,
		CommandDontNeed:    b.DontNeed,
		CommandFound:       b.Found,
		CommandWhatDoINeed: b.WhatDoINeed,
		CommandForgetMe:    b.ForgetMe,
		CommandHelp:        b.Help,
	}
	return b, nil
}

// Commands lists the command names Dispatch accepts.
func (b *Bot) Commands() []string {
	return []string{CommandNeed, CommandDontNeed, CommandFound, CommandWhatDoINeed, CommandForgetMe, CommandHelp}
}

// Dispatch runs the named command and logs its failure. The error is
// returned as well, for callers that track it.
func (b *Bot) Dispatch(ctx context.Context, name string, invocation Invocation) error {
	run, ok := b.commands[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	logger := b.logger.With("command", name, "user", invocation.User)
	logger.Debug("command started")
	if err := run(ctx, invocation); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	logger.Debug("command finished")
	return nil
}

// Need adds the selected item to the user's wants.
func (b *Bot) Need(ctx context.Context, invocation Invocation) error {
	return b.withItem(ctx, invocation, "Select the cosmetic you need", func(status prompt.Handle, item string) error {
		needs, err := b.registry.Needs(ctx, item, invocation.User)
		if err != nil {
			return b.storageFailure(ctx, status, err)
		}
		if needs {
			return status.Edit(ctx, private("you already need that cosmetic"))
		}
		if err := b.registry.Add(ctx, item, invocation.User); err != nil {
			return b.storageFailure(ctx, status, err)
		}
		return status.Edit(ctx, private(fmt.Sprintf("you now need **%s**", item)))
	})
}

// DontNeed removes the selected item from the user's wants.
func (b *Bot) DontNeed(ctx context.Context, invocation Invocation) error {
	return b.withItem(ctx, invocation, "Select the cosmetic you don't need", func(status prompt.Handle, item string) error {
		needs, err := b.registry.Needs(ctx, item, invocation.User)
		if err != nil {
			return b.storageFailure(ctx, status, err)
		}
		if !needs {
			return status.Edit(ctx, private(fmt.Sprintf("You already didn't need **%s**", item)))
		}
		if err := b.registry.Remove(ctx, item, invocation.User); err != nil {
			return b.storageFailure(ctx, status, err)
		}
		return status.Edit(ctx, private(fmt.Sprintf("You now don't need **%s**", item)))
	})
}

// Found announces a duplicate and runs the claim negotiation.
func (b *Bot) Found(ctx context.Context, invocation Invocation) error {
	channel := invocation.Channel
	status, err := channel.Send(ctx, prompt.Text(fmt.Sprintf("%s has found a cosmetic", channel.Mention(invocation.User))))
	if err != nil {
		return fmt.Errorf("bot: sending status: %w", err)
	}
	defer status.Close()

	result, err := b.selector.ChooseItem(ctx, channel, invocation.User)
	if err != nil {
		return err
	}
	if result.Outcome != selection.Resolved {
		return withdraw(ctx, status)
	}

	outcome, err := b.negotiator.Negotiate(ctx, channel, status, invocation.User, result.Item)
	b.logger.Info("share finished",
		"session_id", outcome.SessionID,
		"item", result.Item,
		"finder", invocation.User,
		"outcome", outcome.Outcome.String(),
		"claimant", outcome.Claimant,
		"notified", len(outcome.Notified),
	)
	return err
}

// WhatDoINeed lists the user's wants privately.
func (b *Bot) WhatDoINeed(ctx context.Context, invocation Invocation) error {
	items, err := b.registry.NeededBy(ctx, invocation.User)
	if err != nil {
		return b.reportStorageFailure(ctx, invocation, err)
	}
	content := "You don't need anything"
	if len(items) > 0 {
		var list strings.Builder
		list.WriteString("You need\n")
		for _, item := range items {
			fmt.Fprintf(&list, "\n**%s**", item)
		}
		content = list.String()
	}
	return b.say(ctx, invocation, content)
}

// ForgetMe erases the user from the registry after confirmation.
func (b *Bot) ForgetMe(ctx context.Context, invocation Invocation) error {
	outcome, err := b.confirmer.ConfirmForget(ctx, invocation.Channel, invocation.User)
	if err != nil {
		if errors.Is(err, registry.ErrStorageUnavailable) {
			return b.reportStorageFailure(ctx, invocation, err)
		}
		return err
	}
	b.logger.Info("forget request finished", "user", invocation.User, "outcome", outcome.String())
	return nil
}

// Help shows the help text privately.
func (b *Bot) Help(ctx context.Context, invocation Invocation) error {
	return b.say(ctx, invocation, HelpText(b.prefix))
}

// HelpText is the help message with commands written under prefix.
func HelpText(prefix string) string {
	return fmt.Sprintf(`This is a bot for sharing cosmetics with the community.

You can tell it what cosmetics you need with `+"`%[1]sneedsomething`"+`, and when you or someone finds a duplicate they can use the `+"`%[1]sfoundsomething`"+` command to ping everyone that needs it.
Use `+"`%[1]swhatdoineed`"+` to see what the bot thinks you need and `+"`%[1]sdontneed`"+` to tell it what you've unlocked. `+"`%[1]sforgetme`"+` removes you entirely.

The bot keeps a shared database across all the rooms it's in, but be aware that this means that users you don't share a room with might see your user.`, prefix)
}

// withItem posts a private status, runs the selection, and calls fn with
// the chosen item. No item deletes the status.
func (b *Bot) withItem(ctx context.Context, invocation Invocation, instruction string, fn func(status prompt.Handle, item string) error) error {
	status, err := invocation.Channel.Send(ctx, private(instruction))
	if err != nil {
		return fmt.Errorf("bot: sending status: %w", err)
	}
	defer status.Close()

	result, err := b.selector.ChooseItem(ctx, invocation.Channel, invocation.User)
	if err != nil {
		return err
	}
	if result.Outcome != selection.Resolved {
		return withdraw(ctx, status)
	}
	return fn(status, result.Item)
}

func (b *Bot) storageFailure(ctx context.Context, status prompt.Handle, cause error) error {
	if err := status.Edit(ctx, private(StorageUnavailableText)); err != nil {
		b.logger.Warn("storage failure notice failed", "error", err)
	}
	return cause
}

func (b *Bot) reportStorageFailure(ctx context.Context, invocation Invocation, cause error) error {
	if err := invocation.Channel.Notify(ctx, invocation.User, StorageUnavailableText); err != nil {
		b.logger.Warn("storage failure notice failed", "error", err)
	}
	return cause
}

// say sends a private message without controls.
func (b *Bot) say(ctx context.Context, invocation Invocation, content string) error {
	handle, err := invocation.Channel.Send(ctx, private(content))
	if err != nil {
		return fmt.Errorf("bot: sending reply: %w", err)
	}
	return handle.Close()
}

func private(content string) prompt.Message {
	return prompt.Message{Content: content, Private: true}
}

func withdraw(ctx context.Context, status prompt.Handle) error {
	if err := status.Delete(ctx); err != nil {
		return fmt.Errorf("bot: withdrawing status: %w", err)
	}
	return nil
}
