// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package erasure asks a user to confirm before the registry forgets
// everything they want.
package erasure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/prompt"
)

const (
	YesButtonID = "yes"
	NoButtonID  = "no"
)

// DefaultTimeout bounds the wait for a confirmation.
const DefaultTimeout = time.Minute

// Warning is the confirmation prompt text.
const Warning = "This will make the bot forget all the cosmetics you need and remove you from its database in *all* rooms. " +
	"This is **irreversible**, if you've spent lots of time entering in cosmetics you'll lose that progress."

// User-facing results.
const (
	ConfirmedText = "You've been deleted"
	DeclinedText  = "Cancelled"
	TimedOutText  = "Timed out"
	AbortedText   = "That response wasn't understood, nothing was deleted"
)

type Outcome int

const (
	Confirmed Outcome = iota + 1
	Declined
	TimedOut
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	case TimedOut:
		return "timed_out"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Forgetter is the registry operation guarded by the confirmation.
type Forgetter interface {
	Forget(ctx context.Context, user string) error
}

type Config struct {
	Forgetter Forgetter
	Clock     clock.Clock
	Timeout   time.Duration
	Logger    *slog.Logger
}

type Confirmer struct {
	forgetter Forgetter
	clock     clock.Clock
	timeout   time.Duration
	logger    *slog.Logger
}

func New(cfg Config) (*Confirmer, error) {
	if cfg.Forgetter == nil {
		return nil, fmt.Errorf("erasure: Forgetter is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("erasure: Clock is required")
	}
	confirmer := &Confirmer{
		forgetter: cfg.Forgetter,
		clock:     cfg.Clock,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
	if confirmer.timeout <= 0 {
		confirmer.timeout = DefaultTimeout
	}
	if confirmer.logger == nil {
		confirmer.logger = slog.New(slog.DiscardHandler)
	}
	return confirmer, nil
}

// ConfirmForget shows the warning to user and calls Forget only on an
// explicit yes. Declined and TimedOut leave the registry alone and differ
// only in the text shown. A Forget failure is returned with Outcome
// Confirmed.
func (c *Confirmer) ConfirmForget(ctx context.Context, channel prompt.Channel, user string) (Outcome, error) {
	logger := c.logger.With("user", user)

	handle, err := channel.Send(ctx, prompt.Message{
		Content: Warning,
		Private: true,
		Controls: prompt.Controls{Buttons: []prompt.Button{
			{ID: YesButtonID, Label: "Yes, Do It", Style: prompt.Danger},
			{ID: NoButtonID, Label: "Yeah... nevermind", Style: prompt.Primary},
		}},
	})
	if err != nil {
		return Aborted, fmt.Errorf("erasure: sending confirmation: %w", err)
	}
	defer handle.Close()

	event, ok, err := prompt.Await(ctx, c.clock, handle, c.timeout)
	if err != nil {
		c.withdraw(context.WithoutCancel(ctx), handle, logger)
		return Aborted, fmt.Errorf("erasure: awaiting confirmation: %w", err)
	}
	c.withdraw(ctx, handle, logger)
	if !ok {
		logger.Info("forget confirmation timed out")
		return TimedOut, c.reply(ctx, channel, user, TimedOutText)
	}

	if event.Kind == prompt.ButtonPressed {
		switch event.ControlID {
		case YesButtonID:
			if err := c.forgetter.Forget(ctx, user); err != nil {
				return Confirmed, fmt.Errorf("erasure: %w", err)
			}
			logger.Info("user erased")
			return Confirmed, c.reply(ctx, channel, user, ConfirmedText)
		case NoButtonID:
			return Declined, c.reply(ctx, channel, user, DeclinedText)
		}
	}
	logger.Warn("malformed confirmation response", "kind", event.Kind.String(), "control_id", event.ControlID)
	return Aborted, c.reply(ctx, channel, user, AbortedText)
}

// withdraw removes the confirmation prompt once it has an answer.
func (c *Confirmer) withdraw(ctx context.Context, handle prompt.Handle, logger *slog.Logger) {
	if err := handle.Delete(ctx); err != nil {
		logger.Warn("withdrawing confirmation failed", "error", err)
	}
}

func (c *Confirmer) reply(ctx context.Context, channel prompt.Channel, user, text string) error {
	if err := channel.Notify(ctx, user, text); err != nil {
		return fmt.Errorf("erasure: reply: %w", err)
	}
	return nil
}
