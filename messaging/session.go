// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/sharebot/sharebot/lib/secret"
)

// Session is an authenticated Matrix session. The access token lives in a
// secret.Buffer; call Close when the session is no longer needed.
type Session struct {
	client      *Client
	accessToken *secret.Buffer
	userID      string
}

// UserID returns the fully-qualified user id the session was created for.
func (s *Session) UserID() string {
	return s.userID
}

// Close releases the access token memory. Idempotent.
func (s *Session) Close() error {
	return s.accessToken.Close()
}

// WhoAmI validates the access token and returns the user id it belongs to.
func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: whoami failed: %w", err)
	}
	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// JoinRoom joins a room by id or alias and returns the room id.
func (s *Session) JoinRoom(ctx context.Context, roomIDOrAlias string) (string, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomIDOrAlias)
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return "", fmt.Errorf("messaging: join room %s failed: %w", roomIDOrAlias, err)
	}
	var response struct {
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse join response: %w", err)
	}
	return response.RoomID, nil
}

// JoinedRooms lists the rooms the session's user has joined.
func (s *Session) JoinedRooms(ctx context.Context) ([]string, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/joined_rooms", s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: joined rooms failed: %w", err)
	}
	var response JoinedRoomsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse joined rooms response: %w", err)
	}
	return response.JoinedRooms, nil
}

// SendMessage sends an m.room.message and returns its event id.
func (s *Session) SendMessage(ctx context.Context, roomID string, content MessageContent) (string, error) {
	return s.SendEvent(ctx, roomID, EventTypeMessage, content)
}

// EditMessage replaces the content of a message previously sent by this
// session and returns the id of the edit event.
func (s *Session) EditMessage(ctx context.Context, roomID, eventID string, replacement MessageContent) (string, error) {
	return s.SendEvent(ctx, roomID, EventTypeMessage, NewEdit(eventID, replacement))
}

// React annotates an event with key, usually an emoji.
func (s *Session) React(ctx context.Context, roomID, eventID, key string) (string, error) {
	return s.SendEvent(ctx, roomID, EventTypeReaction, NewReaction(eventID, key))
}

// SendEvent sends an event of any type using the idempotent PUT form with
// a fresh transaction id.
func (s *Session) SendEvent(ctx context.Context, roomID, eventType string, content any) (string, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID),
		url.PathEscape(eventType),
		url.PathEscape(newTransactionID()),
	)
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return "", fmt.Errorf("messaging: send %s to %s failed: %w", eventType, roomID, err)
	}
	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// Redact removes the content of an event.
func (s *Session) Redact(ctx context.Context, roomID, eventID, reason string) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/redact/%s/%s",
		url.PathEscape(roomID),
		url.PathEscape(eventID),
		url.PathEscape(newTransactionID()),
	)
	if _, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, RedactRequest{Reason: reason}); err != nil {
		return fmt.Errorf("messaging: redact %s in %s failed: %w", eventID, roomID, err)
	}
	return nil
}

// Sync performs one /sync request. Leave options.Since empty for the
// initial sync; set options.Timeout to long-poll.
func (s *Session) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}
	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// newTransactionID returns a transaction id unique across restarts.
func newTransactionID() string {
	return "sharebot-" + uuid.NewString()
}
