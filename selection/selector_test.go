// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sharebot/sharebot/catalog"
	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/lib/testutil"
	"github.com/sharebot/sharebot/prompt"
	"github.com/sharebot/sharebot/prompt/prompttest"
)

type flowResult struct {
	result Result
	err    error
}

type harness struct {
	clock   *clock.FakeClock
	channel *prompttest.Channel
	results chan flowResult
}

// start runs one selection for alice over a catalog with three hats, 230
// numbered tops, and an empty belt category.
func start(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.Category{{Name: "Hat", Key: "0"}, {Name: "Top", Key: "1"}, {Name: "Belt", Key: "5"}},
		map[string][]string{
			"0": {"Red Hat", "Blue Hat", "Golden Hat"},
			"1": numberedTops(230),
		},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	h := &harness{
		clock:   clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		channel: prompttest.NewChannel(),
		results: make(chan flowResult, 1),
	}
	selector, err := New(Config{Source: cat, Clock: h.clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go func() {
		result, err := selector.ChooseItem(context.Background(), h.channel, "alice")
		h.results <- flowResult{result, err}
	}()
	return h
}

func numberedTops(count int) []string {
	items := make([]string, count)
	for index := range items {
		items[index] = fmt.Sprintf("Top %03d", index)
	}
	return items
}

func (h *harness) wait(t *testing.T) flowResult {
	t.Helper()
	return testutil.RequireReceive(t, h.results, prompttest.Timeout, "waiting for selection result")
}

func TestChooseItemResolves(t *testing.T) {
	h := start(t)

	categoryPrompt := h.channel.NextPrompt(t)
	message := categoryPrompt.Message()
	if !message.Private || message.Content != "Select category" {
		t.Errorf("category prompt = %+v", message)
	}
	wantOptions := []prompt.Option{{Label: "Hat", Value: "0"}, {Label: "Top", Value: "1"}, {Label: "Belt", Value: "5"}}
	if diff := cmp.Diff(wantOptions, message.Controls.Menus[0].Options); diff != "" {
		t.Errorf("category options mismatch (-want +got):\n%s", diff)
	}
	categoryPrompt.Select(t, CategoryMenuID, []string{"0"}, "alice")

	itemPrompt := h.channel.NextPrompt(t)
	menus := itemPrompt.Message().Controls.Menus
	if len(menus) != 1 || menus[0].Placeholder != "Blue Hat" || len(menus[0].Options) != 3 {
		t.Errorf("item menus = %+v", menus)
	}
	itemPrompt.Select(t, "0", []string{"Golden Hat"}, "alice")

	got := h.wait(t)
	if got.err != nil || got.result != (Result{Item: "Golden Hat", Outcome: Resolved}) {
		t.Errorf("ChooseItem() = %+v", got)
	}
	if !categoryPrompt.Deleted() || !itemPrompt.Deleted() {
		t.Error("prompts were not withdrawn after resolution")
	}
	if !categoryPrompt.Closed() || !itemPrompt.Closed() {
		t.Error("prompt handles were not closed")
	}
}

func TestChooseItemPagesWrapAround(t *testing.T) {
	h := start(t)
	h.channel.NextPrompt(t).Select(t, CategoryMenuID, []string{"1"}, "alice")
	itemPrompt := h.channel.NextPrompt(t)

	pageOf := func() string {
		content := itemPrompt.Message().Content
		return content[strings.Index(content, "Page"):]
	}
	if got := pageOf(); got != "Page **1** of 3" {
		t.Fatalf("initial page = %q", got)
	}
	if menus := itemPrompt.Message().Controls.Menus; len(menus) != 4 {
		t.Fatalf("first page has %d menus, want 4", len(menus))
	}

	itemPrompt.Press(t, BackButtonID, "alice")
	h.clock.WaitForRegistered(3)
	if got := pageOf(); got != "Page **3** of 3" {
		t.Errorf("back from the first page = %q", got)
	}
	if menus := itemPrompt.Message().Controls.Menus; len(menus) != 2 || menus[1].Placeholder != "Top 225" {
		t.Errorf("last page menus = %+v", menus)
	}

	itemPrompt.Press(t, NextButtonID, "alice")
	h.clock.WaitForRegistered(4)
	if got := pageOf(); got != "Page **1** of 3" {
		t.Errorf("next from the last page = %q", got)
	}

	itemPrompt.Press(t, NextButtonID, "alice")
	h.clock.WaitForRegistered(5)
	itemPrompt.Select(t, "3", []string{"Top 190"}, "alice")

	got := h.wait(t)
	if got.result != (Result{Item: "Top 190", Outcome: Resolved}) {
		t.Errorf("ChooseItem() = %+v", got)
	}
}

func TestChooseItemTimesOut(t *testing.T) {
	t.Run("category prompt", func(t *testing.T) {
		h := start(t)
		categoryPrompt := h.channel.NextPrompt(t)
		h.clock.WaitForRegistered(1)
		h.clock.Advance(DefaultTimeout)

		got := h.wait(t)
		if got.err != nil || got.result.Outcome != TimedOut {
			t.Errorf("ChooseItem() = %+v, want TimedOut", got)
		}
		if !categoryPrompt.Deleted() {
			t.Error("timed out prompt not withdrawn")
		}
		if diff := cmp.Diff([]prompttest.Notice{{User: "alice", Text: "Timed out"}}, h.channel.Notices()); diff != "" {
			t.Errorf("notices mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("item prompt after paging", func(t *testing.T) {
		h := start(t)
		h.channel.NextPrompt(t).Select(t, CategoryMenuID, []string{"1"}, "alice")
		itemPrompt := h.channel.NextPrompt(t)
		itemPrompt.Press(t, NextButtonID, "alice")

		// Paging re-arms the wait: just short of a full timeout after
		// the press must not fire.
		h.clock.WaitForRegistered(3)
		h.clock.Advance(DefaultTimeout - time.Second)
		select {
		case got := <-h.results:
			t.Fatalf("selection ended early: %+v", got)
		default:
		}
		h.clock.Advance(time.Second)

		got := h.wait(t)
		if got.result.Outcome != TimedOut {
			t.Errorf("ChooseItem() = %+v, want TimedOut", got)
		}
		if !itemPrompt.Deleted() {
			t.Error("timed out item prompt not withdrawn")
		}
	})
}

func TestChooseItemProtocolViolations(t *testing.T) {
	onCategory := []struct {
		name  string
		event prompt.Event
	}{
		{"button instead of menu", prompt.Event{Kind: prompt.ButtonPressed, ControlID: "next", User: "alice"}},
		{"unknown menu", prompt.Event{Kind: prompt.ItemsSelected, ControlID: "color", Values: []string{"0"}, User: "alice"}},
		{"empty selection", prompt.Event{Kind: prompt.ItemsSelected, ControlID: CategoryMenuID, User: "alice"}},
		{"unknown category", prompt.Event{Kind: prompt.ItemsSelected, ControlID: CategoryMenuID, Values: []string{"9"}, User: "alice"}},
	}
	for _, test := range onCategory {
		t.Run("category/"+test.name, func(t *testing.T) {
			h := start(t)
			categoryPrompt := h.channel.NextPrompt(t)
			categoryPrompt.Deliver(t, test.event)

			got := h.wait(t)
			if got.err != nil || got.result.Outcome != Cancelled {
				t.Errorf("ChooseItem() = %+v, want Cancelled", got)
			}
			if len(h.channel.Sent()) != 1 {
				t.Errorf("flow continued after a malformed response: %d prompts", len(h.channel.Sent()))
			}
			if !categoryPrompt.Deleted() {
				t.Error("category prompt not withdrawn after malformed response")
			}
		})
	}

	onItems := []struct {
		name  string
		event prompt.Event
	}{
		{"item outside category", prompt.Event{Kind: prompt.ItemsSelected, ControlID: "0", Values: []string{"Leather Belt"}, User: "alice"}},
		{"empty selection", prompt.Event{Kind: prompt.ItemsSelected, ControlID: "0", User: "alice"}},
		{"menu not on page", prompt.Event{Kind: prompt.ItemsSelected, ControlID: "3", Values: []string{"Red Hat"}, User: "alice"}},
		{"unknown button", prompt.Event{Kind: prompt.ButtonPressed, ControlID: "claim", User: "alice"}},
		{"unknown kind", prompt.Event{Kind: 99, ControlID: "0", User: "alice"}},
	}
	for _, test := range onItems {
		t.Run("items/"+test.name, func(t *testing.T) {
			h := start(t)
			h.channel.NextPrompt(t).Select(t, CategoryMenuID, []string{"0"}, "alice")
			itemPrompt := h.channel.NextPrompt(t)
			itemPrompt.Deliver(t, test.event)

			got := h.wait(t)
			if got.err != nil || got.result.Outcome != Cancelled || got.result.Item != "" {
				t.Errorf("ChooseItem() = %+v, want Cancelled without item", got)
			}
			if !itemPrompt.Deleted() {
				t.Error("prompt not withdrawn after malformed response")
			}
		})
	}
}

func TestChooseItemEmptyCategory(t *testing.T) {
	h := start(t)
	h.channel.NextPrompt(t).Select(t, CategoryMenuID, []string{"5"}, "alice")

	got := h.wait(t)
	if got.err != nil || got.result.Outcome != Cancelled {
		t.Errorf("ChooseItem() = %+v, want Cancelled", got)
	}
	if len(h.channel.Sent()) != 1 {
		t.Errorf("an item prompt was sent for an empty category")
	}
	notices := h.channel.Notices()
	if len(notices) != 1 || !strings.Contains(notices[0].Text, "Belt") {
		t.Errorf("notices = %+v", notices)
	}
}
