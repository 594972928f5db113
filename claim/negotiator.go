// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package claim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/prompt"
)

// Button ids on the claim prompt.
const (
	ClaimButtonID  = "claim"
	CancelButtonID = "cancel"
	HaveButtonID   = "have"
)

// DefaultTimeout bounds each wait for a response.
const DefaultTimeout = 3 * time.Minute

// UnauthorizedCancelNotice is sent privately to anyone but the finder who
// presses cancel.
const UnauthorizedCancelNotice = "Only the creator of the cosmetic share can cancel it"

// Outcome is how a negotiation ended.
type Outcome int

const (
	Claimed Outcome = iota + 1
	Cancelled
	TimedOut
	// Aborted: a malformed response or a broken event stream.
	Aborted
	// Failed: the registry could not record an "already have".
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarizes a finished negotiation.
type Result struct {
	Outcome Outcome

	// Claimant is set when Outcome is Claimed.
	Claimant string

	// Notified is the want set read when the prompt went out.
	Notified []string

	SessionID string
}

// Wants is the part of the registry a negotiation uses.
type Wants interface {
	WhoNeeds(ctx context.Context, item string) ([]string, error)
	Remove(ctx context.Context, item, user string) error
}

// Config for a Negotiator. Wants and Clock are required.
type Config struct {
	Wants   Wants
	Clock   clock.Clock
	Timeout time.Duration

	// CommandPrefix is shown in the reminder to run dontneed. Default "!".
	CommandPrefix string

	Logger *slog.Logger
}

// Negotiator runs claim negotiations. One Negotiator serves every
// command; each Negotiate call is independent.
type Negotiator struct {
	wants         Wants
	clock         clock.Clock
	timeout       time.Duration
	commandPrefix string
	logger        *slog.Logger
}

func New(cfg Config) (*Negotiator, error) {
	if cfg.Wants == nil {
		return nil, fmt.Errorf("claim: Wants is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("claim: Clock is required")
	}
	negotiator := &Negotiator{
		wants:         cfg.Wants,
		clock:         cfg.Clock,
		timeout:       cfg.Timeout,
		commandPrefix: cfg.CommandPrefix,
		logger:        cfg.Logger,
	}
	if negotiator.timeout <= 0 {
		negotiator.timeout = DefaultTimeout
	}
	if negotiator.commandPrefix == "" {
		negotiator.commandPrefix = "!"
	}
	if negotiator.logger == nil {
		negotiator.logger = slog.New(slog.DiscardHandler)
	}
	return negotiator, nil
}

// session is the state of one negotiation.
type session struct {
	id      string
	channel prompt.Channel
	status  prompt.Handle
	finder  string
	item    string
	logger  *slog.Logger
}

// Negotiate announces item on status (the finder's public message),
// pings its wanters, and runs the claim loop. The error is non-nil for
// Failed, and for Aborted when the channel or context broke.
func (n *Negotiator) Negotiate(ctx context.Context, channel prompt.Channel, status prompt.Handle, finder, item string) (Result, error) {
	s := &session{
		id:      uuid.NewString(),
		channel: channel,
		status:  status,
		finder:  finder,
		item:    item,
	}
	s.logger = n.logger.With("session_id", s.id, "item", item, "finder", finder)
	result := Result{SessionID: s.id}

	s.setStatus(ctx, fmt.Sprintf("%s has found **%s**", channel.Mention(finder), item))

	wanters, err := n.wants.WhoNeeds(ctx, item)
	if err != nil {
		result.Outcome = Failed
		s.setStatus(ctx, fmt.Sprintf("%s found **%s** but the want list could not be read", channel.Mention(finder), item))
		return result, fmt.Errorf("claim: reading wanters: %w", err)
	}
	result.Notified = wanters

	claimPrompt, err := channel.Send(ctx, prompt.Message{
		Content:  s.announcement(wanters),
		Controls: prompt.Controls{Buttons: claimButtons()},
	})
	if err != nil {
		result.Outcome = Aborted
		return result, fmt.Errorf("claim: sending claim prompt: %w", err)
	}
	defer claimPrompt.Close()
	s.logger.Info("claim negotiation started", "notified", len(wanters))

	for {
		event, ok, err := prompt.Await(ctx, n.clock, claimPrompt, n.timeout)
		if err != nil {
			result.Outcome = Aborted
			// ctx may be the reason; the cleanup still has to reach the room.
			s.finish(context.WithoutCancel(ctx), claimPrompt, result.Outcome,
				fmt.Sprintf("%s found **%s** but the share was interrupted", channel.Mention(finder), item))
			return result, fmt.Errorf("claim: awaiting response: %w", err)
		}
		if !ok {
			result.Outcome = TimedOut
			s.finish(ctx, claimPrompt, result.Outcome, fmt.Sprintf("%s found **%s** but no one responded within %s",
				channel.Mention(finder), item, n.timeout))
			return result, nil
		}

		if event.Kind != prompt.ButtonPressed {
			return n.abort(ctx, s, claimPrompt, result, "expected a button press", event)
		}

		switch event.ControlID {
		case CancelButtonID:
			if event.User != finder {
				s.logger.Info("cancel refused", "user", event.User)
				if err := channel.Notify(ctx, event.User, UnauthorizedCancelNotice); err != nil {
					s.logger.Warn("unauthorized cancel notice failed", "user", event.User, "error", err)
				}
				continue
			}
			result.Outcome = Cancelled
			s.finish(ctx, claimPrompt, result.Outcome, fmt.Sprintf("%s found **%s** but cancelled", channel.Mention(finder), item))
			return result, nil

		case ClaimButtonID:
			result.Outcome = Claimed
			result.Claimant = event.User
			s.finish(ctx, claimPrompt, result.Outcome, fmt.Sprintf(
				"%s found **%s** which has been claimed by %s\n\nMake sure to use the `%sdontneed` command later so you don't get pinged again",
				channel.Mention(finder), item, channel.Mention(event.User), n.commandPrefix))
			return result, nil

		case HaveButtonID:
			if err := n.wants.Remove(ctx, item, event.User); err != nil {
				result.Outcome = Failed
				s.finish(ctx, claimPrompt, result.Outcome, fmt.Sprintf("%s found **%s** but storage is unavailable, try again later",
					channel.Mention(finder), item))
				return result, fmt.Errorf("claim: recording already-have for %s: %w", event.User, err)
			}
			s.logger.Info("already have recorded", "user", event.User)

		default:
			return n.abort(ctx, s, claimPrompt, result, "unknown button", event)
		}
	}
}

func (n *Negotiator) abort(ctx context.Context, s *session, claimPrompt prompt.Handle, result Result, reason string, event prompt.Event) (Result, error) {
	s.logger.Warn("malformed claim response",
		"reason", reason,
		"kind", event.Kind.String(),
		"control_id", event.ControlID,
		"user", event.User,
	)
	result.Outcome = Aborted
	s.finish(ctx, claimPrompt, result.Outcome, fmt.Sprintf("%s found **%s** but the share was aborted", s.channel.Mention(s.finder), s.item))
	return result, nil
}

// finish withdraws the claim prompt and writes the single terminal status.
func (s *session) finish(ctx context.Context, claimPrompt prompt.Handle, outcome Outcome, text string) {
	if err := claimPrompt.Delete(ctx); err != nil {
		s.logger.Warn("withdrawing claim prompt failed", "error", err)
	}
	s.setStatus(ctx, text)
	s.logger.Info("claim negotiation finished", "outcome", outcome.String())
}

func (s *session) setStatus(ctx context.Context, text string) {
	if err := s.status.Edit(ctx, prompt.Text(text)); err != nil {
		s.logger.Warn("updating status failed", "error", err)
	}
}

func (s *session) announcement(wanters []string) string {
	finder := s.channel.Mention(s.finder)
	if len(wanters) == 0 {
		return fmt.Sprintf("%s has found **%s** but no one needs it, you can still claim it if you need it", finder, s.item)
	}
	mentions := make([]string, 0, len(wanters))
	for _, user := range wanters {
		mentions = append(mentions, s.channel.Mention(user))
	}
	return fmt.Sprintf("%s has found **%s**\n\n%s\n\nYou can still claim it if you weren't pinged, and if you have it but got pinged click \"Already Have It\"",
		finder, s.item, strings.Join(mentions, " "))
}

func claimButtons() []prompt.Button {
	return []prompt.Button{
		{ID: ClaimButtonID, Label: "Claim", Style: prompt.Success},
		{ID: CancelButtonID, Label: "Cancel", Style: prompt.Danger},
		{ID: HaveButtonID, Label: "Already Have It", Style: prompt.Primary},
	}
}
