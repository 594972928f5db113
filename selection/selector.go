// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/prompt"
)

// Control ids on the selection prompts.
const (
	CategoryMenuID = "category"
	NextButtonID   = "next"
	BackButtonID   = "back"
)

// Outcome is how a selection ended.
type Outcome int

const (
	Resolved Outcome = iota + 1
	Cancelled
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Result carries the chosen item when Outcome is Resolved.
type Result struct {
	Item    string
	Outcome Outcome
}

// Source supplies the category table and item lists. *catalog.Catalog
// satisfies it.
type Source interface {
	Categories() []catalog.Category
	ItemsInCategory(key string) iter.Seq[string]
}

// Config for a Selector. Source and Clock are required; zero Timeout,
// GroupSize, and GroupsPerPage take the defaults.
type Config struct {
	Source        Source
	Clock         clock.Clock
	Timeout       time.Duration
	GroupSize     int
	GroupsPerPage int
	Logger        *slog.Logger
}

const (
	DefaultTimeout       = time.Minute
	DefaultGroupSize     = 25
	DefaultGroupsPerPage = 4
)

// Selector runs selection flows. One Selector serves every command.
type Selector struct {
	source        Source
	clock         clock.Clock
	timeout       time.Duration
	groupSize     int
	groupsPerPage int
	logger        *slog.Logger
}

func New(cfg Config) (*Selector, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("selection: Source is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("selection: Clock is required")
	}
	selector := &Selector{
		source:        cfg.Source,
		clock:         cfg.Clock,
		timeout:       positiveOr(cfg.Timeout, DefaultTimeout),
		groupSize:     positiveOr(cfg.GroupSize, DefaultGroupSize),
		groupsPerPage: positiveOr(cfg.GroupsPerPage, DefaultGroupsPerPage),
		logger:        cfg.Logger,
	}
	if selector.logger == nil {
		selector.logger = slog.New(slog.DiscardHandler)
	}
	return selector, nil
}

func positiveOr[T int | time.Duration](value, fallback T) T {
	if value <= 0 {
		return fallback
	}
	return value
}

// ChooseItem runs the flow for user over channel. The returned error is
// set only when the channel itself failed; protocol violations and
// timeouts are outcomes, not errors.
func (s *Selector) ChooseItem(ctx context.Context, channel prompt.Channel, user string) (Result, error) {
	logger := s.logger.With("session_id", uuid.NewString(), "user", user)

	category, outcome, err := s.chooseCategory(ctx, channel, user, logger)
	if err != nil || outcome != Resolved {
		return Result{Outcome: outcome}, err
	}

	items := slices.Collect(s.source.ItemsInCategory(category.Key))
	if len(items) == 0 {
		logger.Info("selected category has no items", "category", category.Name)
		if err := channel.Notify(ctx, user, fmt.Sprintf("There is nothing in **%s** yet", category.Name)); err != nil {
			return Result{Outcome: Cancelled}, fmt.Errorf("selection: empty category notice: %w", err)
		}
		return Result{Outcome: Cancelled}, nil
	}

	return s.chooseFromPages(ctx, channel, user, items, logger)
}

func (s *Selector) chooseCategory(ctx context.Context, channel prompt.Channel, user string, logger *slog.Logger) (catalog.Category, Outcome, error) {
	categories := s.source.Categories()
	options := make([]prompt.Option, 0, len(categories))
	for _, category := range categories {
		options = append(options, prompt.Option{Label: category.Name, Value: category.Key})
	}

	handle, err := channel.Send(ctx, prompt.Message{
		Content: "Select category",
		Private: true,
		Controls: prompt.Controls{Menus: []prompt.SelectMenu{{
			ID:          CategoryMenuID,
			Placeholder: "Category",
			Options:     options,
		}}},
	})
	if err != nil {
		return catalog.Category{}, Cancelled, fmt.Errorf("selection: sending category prompt: %w", err)
	}
	defer handle.Close()

	event, outcome, err := s.await(ctx, channel, user, handle, logger)
	if err != nil || outcome != Resolved {
		return catalog.Category{}, outcome, err
	}

	if event.Kind != prompt.ItemsSelected || event.ControlID != CategoryMenuID {
		return catalog.Category{}, s.violation(ctx, handle, logger, "expected a category selection", event), nil
	}
	if len(event.Values) == 0 {
		return catalog.Category{}, s.violation(ctx, handle, logger, "no category selected", event), nil
	}
	for _, category := range categories {
		if category.Key == event.Values[0] {
			if err := handle.Delete(ctx); err != nil {
				logger.Warn("deleting category prompt failed", "error", err)
			}
			return category, Resolved, nil
		}
	}
	return catalog.Category{}, s.violation(ctx, handle, logger, "unknown category", event), nil
}

func (s *Selector) chooseFromPages(ctx context.Context, channel prompt.Channel, user string, items []string, logger *slog.Logger) (Result, error) {
	pages := Paginate(items, s.groupSize, s.groupsPerPage)
	inCategory := make(map[string]bool, len(items))
	for _, item := range items {
		inCategory[item] = true
	}

	current := 0
	handle, err := channel.Send(ctx, renderPage(pages, current))
	if err != nil {
		return Result{Outcome: Cancelled}, fmt.Errorf("selection: sending item prompt: %w", err)
	}
	defer handle.Close()

	for {
		event, outcome, err := s.await(ctx, channel, user, handle, logger)
		if err != nil || outcome != Resolved {
			return Result{Outcome: outcome}, err
		}

		switch event.Kind {
		case prompt.ItemsSelected:
			menu, err := strconv.Atoi(event.ControlID)
			if err != nil || menu < 0 || menu >= len(pages[current]) {
				return Result{Outcome: s.violation(ctx, handle, logger, "unknown menu", event)}, nil
			}
			if len(event.Values) == 0 {
				return Result{Outcome: s.violation(ctx, handle, logger, "no item selected", event)}, nil
			}
			item := event.Values[0]
			if !inCategory[item] {
				return Result{Outcome: s.violation(ctx, handle, logger, "item not in category", event)}, nil
			}
			if err := handle.Delete(ctx); err != nil {
				logger.Warn("deleting item prompt failed", "error", err)
			}
			logger.Debug("item selected", "item", item)
			return Result{Item: item, Outcome: Resolved}, nil

		case prompt.ButtonPressed:
			switch event.ControlID {
			case NextButtonID:
				current = nextPage(current, len(pages))
			case BackButtonID:
				current = previousPage(current, len(pages))
			default:
				return Result{Outcome: s.violation(ctx, handle, logger, "unknown button", event)}, nil
			}
			if err := handle.Edit(ctx, renderPage(pages, current)); err != nil {
				return Result{Outcome: Cancelled}, fmt.Errorf("selection: turning page: %w", err)
			}

		default:
			return Result{Outcome: s.violation(ctx, handle, logger, "unknown event kind", event)}, nil
		}
	}
}

// await waits for one event. A timeout withdraws the prompt and tells the
// user; the outcome is Resolved when an event arrived.
func (s *Selector) await(ctx context.Context, channel prompt.Channel, user string, handle prompt.Handle, logger *slog.Logger) (prompt.Event, Outcome, error) {
	event, ok, err := prompt.Await(ctx, s.clock, handle, s.timeout)
	if err != nil {
		return prompt.Event{}, Cancelled, fmt.Errorf("selection: awaiting response: %w", err)
	}
	if ok {
		return event, Resolved, nil
	}

	logger.Info("selection timed out", "timeout", s.timeout)
	if err := handle.Delete(ctx); err != nil {
		logger.Warn("deleting timed out prompt failed", "error", err)
	}
	if err := channel.Notify(ctx, user, "Timed out"); err != nil {
		return prompt.Event{}, TimedOut, fmt.Errorf("selection: timeout notice: %w", err)
	}
	return prompt.Event{}, TimedOut, nil
}

// violation logs a malformed response and withdraws the prompt.
func (s *Selector) violation(ctx context.Context, handle prompt.Handle, logger *slog.Logger, reason string, event prompt.Event) Outcome {
	logger.Warn("malformed selection response",
		"reason", reason,
		"kind", event.Kind.String(),
		"control_id", event.ControlID,
		"values", event.Values,
	)
	if err := handle.Delete(ctx); err != nil {
		logger.Warn("deleting prompt after malformed response failed", "error", err)
	}
	return Cancelled
}

func renderPage(pages []Page, current int) prompt.Message {
	page := pages[current]
	menus := make([]prompt.SelectMenu, 0, len(page))
	for index, group := range page {
		options := make([]prompt.Option, 0, len(group))
		for _, item := range group {
			options = append(options, prompt.Option{Label: item, Value: item})
		}
		menus = append(menus, prompt.SelectMenu{
			ID:          strconv.Itoa(index),
			Placeholder: group[0],
			Options:     options,
		})
	}
	return prompt.Message{
		Content: fmt.Sprintf("Select cosmetic\nPage **%d** of %d", current+1, len(pages)),
		Private: true,
		Controls: prompt.Controls{
			Menus: menus,
			Buttons: []prompt.Button{
				{ID: BackButtonID, Label: "< Page", Style: prompt.Secondary},
				{ID: NextButtonID, Label: "Page >", Style: prompt.Secondary},
			},
		},
	}
}
