// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package matrixbot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sharebot/sharebot/prompt"
)

// render turns a prompt message into markdown. Options are numbered
// across all menus so one number identifies both the menu and the option.
func render(message prompt.Message) string {
	var body strings.Builder
	body.WriteString(message.Content)

	number := 1
	for _, menu := range message.Controls.Menus {
		body.WriteString("\n\n")
		if menu.Placeholder != "" {
			fmt.Fprintf(&body, "*%s*\n\n", menu.Placeholder)
		}
		for index, option := range menu.Options {
			if index > 0 {
				body.WriteString("\n")
			}
			fmt.Fprintf(&body, "%d. %s", number, option.Label)
			number++
		}
	}

	if len(message.Controls.Menus) > 0 {
		body.WriteString("\n\nReply with a number to choose")
	}
	if len(message.Controls.Buttons) > 0 {
		labels := make([]string, len(message.Controls.Buttons))
		for index, button := range message.Controls.Buttons {
			labels[index] = "`" + button.Label + "`"
		}
		body.WriteString("\n\nReact or reply with ")
		body.WriteString(strings.Join(labels, " "))
	}
	return body.String()
}

// interpretReaction maps a reaction key to a button press.
func interpretReaction(controls prompt.Controls, key string) (prompt.Event, bool) {
	key = strings.TrimSpace(key)
	for _, button := range controls.Buttons {
		if strings.EqualFold(key, button.Label) || strings.EqualFold(key, button.ID) {
			return prompt.Event{Kind: prompt.ButtonPressed, ControlID: button.ID}, true
		}
	}
	return prompt.Event{}, false
}

// interpretReply maps the text of a reply to a button press or a menu
// selection. Buttons win over option names that spell the same.
func interpretReply(controls prompt.Controls, body string) (prompt.Event, bool) {
	text := strings.TrimSpace(stripReplyFallback(body))
	if text == "" {
		return prompt.Event{}, false
	}

	if event, ok := interpretReaction(controls, text); ok {
		return event, true
	}

	if number, err := strconv.Atoi(text); err == nil {
		for _, menu := range controls.Menus {
			if number >= 1 && number <= len(menu.Options) {
				return selected(menu, menu.Options[number-1]), true
			}
			number -= len(menu.Options)
		}
		return prompt.Event{}, false
	}

	for _, menu := range controls.Menus {
		for _, option := range menu.Options {
			if strings.EqualFold(text, option.Value) || strings.EqualFold(text, option.Label) {
				return selected(menu, option), true
			}
		}
	}
	return prompt.Event{}, false
}

func selected(menu prompt.SelectMenu, option prompt.Option) prompt.Event {
	return prompt.Event{
		Kind:      prompt.ItemsSelected,
		ControlID: menu.ID,
		Values:    []string{option.Value},
	}
}

// stripReplyFallback drops the quoted "> " lines clients prepend to a
// reply body.
func stripReplyFallback(body string) string {
	lines := strings.Split(body, "\n")
	start := 0
	for start < len(lines) && strings.HasPrefix(lines[start], ">") {
		start++
	}
	return strings.Join(lines[start:], "\n")
}
