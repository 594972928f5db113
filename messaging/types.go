// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"
)

// Event types the bot sends or reacts to.
const (
	EventTypeMessage   = "m.room.message"
	EventTypeReaction  = "m.reaction"
	EventTypeRedaction = "m.room.redaction"
	EventTypeMember    = "m.room.member"
)

// Relation types.
const (
	RelationReplace    = "m.replace"
	RelationAnnotation = "m.annotation"
)

// FormatHTML is the only formatted_body format defined by Matrix.
const FormatHTML = "org.matrix.custom.html"

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType       string     `json:"msgtype"`
	Body          string     `json:"body"`
	Format        string     `json:"format,omitempty"`
	FormattedBody string     `json:"formatted_body,omitempty"`
	Mentions      *Mentions  `json:"m.mentions,omitempty"`
	RelatesTo     *RelatesTo `json:"m.relates_to,omitempty"`

	// NewContent carries the replacement content of an m.replace edit.
	NewContent *MessageContent `json:"m.new_content,omitempty"`
}

// Mentions lists the users a message is addressed to. Clients use it to
// decide who to notify.
type Mentions struct {
	UserIDs []string `json:"user_ids,omitempty"`
}

// RelatesTo expresses a relation to another event. Edits use
// m.replace, reactions use m.annotation with Key set, and replies only
// set InReplyTo.
type RelatesTo struct {
	RelType   string     `json:"rel_type,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	Key       string     `json:"key,omitempty"`
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID string `json:"event_id"`
}

// ReactionContent is the content of an m.reaction event.
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// Event is a Matrix event as delivered by /sync.
type Event struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	Sender         string          `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	Content        json.RawMessage `json:"content"`
	StateKey       *string         `json:"state_key,omitempty"`
	Redacts        string          `json:"redacts,omitempty"`
}

// DecodeContent unmarshals the event content into target.
func (e Event) DecodeContent(target any) error {
	if len(e.Content) == 0 {
		return fmt.Errorf("messaging: event %s has no content", e.EventID)
	}
	if err := json.Unmarshal(e.Content, target); err != nil {
		return fmt.Errorf("messaging: decoding %s content of event %s: %w", e.Type, e.EventID, err)
	}
	return nil
}

// SyncOptions controls a single /sync request.
type SyncOptions struct {
	Since      string // next_batch token from the previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds
	SetTimeout bool   // send Timeout even when zero
	Filter     string // filter id or inline JSON filter
}

// SyncResponse is the top-level /sync response.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection holds per-room sync data keyed by room id.
type RoomsSection struct {
	Join   map[string]JoinedRoom  `json:"join,omitempty"`
	Invite map[string]InvitedRoom `json:"invite,omitempty"`
	Leave  map[string]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom holds sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// InvitedRoom holds sync data for a room the bot was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom holds sync data for a room the bot has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection contains timeline events.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned when sending or redacting an event.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []string `json:"joined_rooms"`
}

// ServerVersionsResponse is returned by ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// RedactRequest is the body of a redaction.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}
