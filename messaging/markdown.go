// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return markdownInstance
}

// RenderMarkdown converts markdown to the HTML subset Matrix clients
// accept. A single paragraph is unwrapped from its <p> element.
func RenderMarkdown(source string) (string, error) {
	var buffer bytes.Buffer
	if err := getMarkdown().Convert([]byte(source), &buffer); err != nil {
		return "", err
	}
	rendered := strings.TrimSpace(buffer.String())
	if inner, ok := strings.CutPrefix(rendered, "<p>"); ok {
		if inner, ok = strings.CutSuffix(inner, "</p>"); ok && !strings.Contains(inner, "<p>") {
			return inner, nil
		}
	}
	return rendered, nil
}

// NewTextMessage creates a plain m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewMarkdownMessage creates an m.text message whose body is the markdown
// source and whose formatted_body is the rendered HTML. When rendering
// fails, or yields the body unchanged, the message stays plain text.
func NewMarkdownMessage(body string) MessageContent {
	content := NewTextMessage(body)
	rendered, err := RenderMarkdown(body)
	if err != nil || rendered == body {
		return content
	}
	content.Format = FormatHTML
	content.FormattedBody = rendered
	return content
}

// NewEdit creates the content of an m.replace edit of target. The
// fallback body is prefixed with '*' the way clients that do not
// understand edits expect.
func NewEdit(target string, replacement MessageContent) MessageContent {
	fallback := replacement
	fallback.Body = "* " + replacement.Body
	if fallback.FormattedBody != "" {
		fallback.FormattedBody = "* " + replacement.FormattedBody
	}
	fallback.RelatesTo = &RelatesTo{RelType: RelationReplace, EventID: target}
	newContent := replacement
	newContent.RelatesTo = nil
	newContent.NewContent = nil
	fallback.NewContent = &newContent
	return fallback
}

// NewReaction creates an annotation of target with the given key.
func NewReaction(target, key string) ReactionContent {
	return ReactionContent{RelatesTo: RelatesTo{
		RelType: RelationAnnotation,
		EventID: target,
		Key:     key,
	}}
}
