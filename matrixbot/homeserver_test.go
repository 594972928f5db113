// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package matrixbot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/sharebot/sharebot/lib/secret"
	"github.com/sharebot/sharebot/messaging"
)

const (
	botID   = "@sharebot:example.org"
	aliceID = "@alice:example.org"
	bobID   = "@bob:example.org"
	roomID  = "!trading:example.org"
)

type sentEvent struct {
	roomID    string
	eventType string
	eventID   string
	content   map[string]any
}

type redaction struct {
	roomID  string
	eventID string
}

// fakeHomeserver answers the endpoints the router uses and records what
// the bot sends. Incremental syncs are served from syncs in order and
// otherwise block until the request is cancelled.
type fakeHomeserver struct {
	t       *testing.T
	server  *httptest.Server
	initial messaging.SyncResponse
	syncs   chan messaging.SyncResponse

	mu       sync.Mutex
	nextID   int
	sent     []sentEvent
	redacted []redaction
	joined   []string
}

func newFakeHomeserver(t *testing.T) *fakeHomeserver {
	t.Helper()
	hs := &fakeHomeserver{
		t:       t,
		initial: messaging.SyncResponse{NextBatch: "s1"},
		syncs:   make(chan messaging.SyncResponse, 8),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /_matrix/client/v3/account/whoami", func(writer http.ResponseWriter, request *http.Request) {
		hs.reply(writer, messaging.WhoAmIResponse{UserID: botID})
	})
	mux.HandleFunc("POST /_matrix/client/v3/join/{room}", func(writer http.ResponseWriter, request *http.Request) {
		room := request.PathValue("room")
		hs.mu.Lock()
		hs.joined = append(hs.joined, room)
		hs.mu.Unlock()
		hs.reply(writer, map[string]string{"room_id": room})
	})
	mux.HandleFunc("PUT /_matrix/client/v3/rooms/{room}/send/{type}/{txn}", func(writer http.ResponseWriter, request *http.Request) {
		var content map[string]any
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Errorf("decoding sent content: %v", err)
		}
		hs.mu.Lock()
		hs.nextID++
		event := sentEvent{
			roomID:    request.PathValue("room"),
			eventType: request.PathValue("type"),
			eventID:   fmt.Sprintf("$event%d", hs.nextID),
			content:   content,
		}
		hs.sent = append(hs.sent, event)
		hs.mu.Unlock()
		hs.reply(writer, messaging.SendEventResponse{EventID: event.eventID})
	})
	mux.HandleFunc("PUT /_matrix/client/v3/rooms/{room}/redact/{event}/{txn}", func(writer http.ResponseWriter, request *http.Request) {
		hs.mu.Lock()
		hs.nextID++
		eventID := fmt.Sprintf("$event%d", hs.nextID)
		hs.redacted = append(hs.redacted, redaction{roomID: request.PathValue("room"), eventID: request.PathValue("event")})
		hs.mu.Unlock()
		hs.reply(writer, messaging.SendEventResponse{EventID: eventID})
	})
	mux.HandleFunc("GET /_matrix/client/v3/sync", func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("since") == "" {
			hs.reply(writer, hs.initial)
			return
		}
		select {
		case response := <-hs.syncs:
			hs.reply(writer, response)
		case <-request.Context().Done():
		}
	})

	hs.server = httptest.NewServer(mux)
	t.Cleanup(hs.server.Close)
	return hs
}

func (hs *fakeHomeserver) reply(writer http.ResponseWriter, value any) {
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		hs.t.Errorf("encoding response: %v", err)
	}
}

// session returns a bot session against the fake server.
func (hs *fakeHomeserver) session() *messaging.Session {
	hs.t.Helper()
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: hs.server.URL,
		HTTPClient:    hs.server.Client(),
	})
	if err != nil {
		hs.t.Fatalf("NewClient: %v", err)
	}
	token, err := secret.FromString("syt_bot_token")
	if err != nil {
		hs.t.Fatalf("creating token: %v", err)
	}
	session, err := client.NewSession(botID, token)
	if err != nil {
		hs.t.Fatalf("NewSession: %v", err)
	}
	hs.t.Cleanup(func() { session.Close() })
	return session
}

func (hs *fakeHomeserver) sentEvents() []sentEvent {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return slices.Clone(hs.sent)
}

func (hs *fakeHomeserver) sentOfType(eventType string) []sentEvent {
	var matching []sentEvent
	for _, event := range hs.sentEvents() {
		if event.eventType == eventType {
			matching = append(matching, event)
		}
	}
	return matching
}

func (hs *fakeHomeserver) redactions() []redaction {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return slices.Clone(hs.redacted)
}

func (hs *fakeHomeserver) joinedRooms() []string {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return slices.Clone(hs.joined)
}

func rawContent(t *testing.T, content any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("encoding content: %v", err)
	}
	return data
}

func messageEvent(t *testing.T, eventID, sender, body string) messaging.Event {
	return messaging.Event{
		EventID: eventID,
		Type:    messaging.EventTypeMessage,
		Sender:  sender,
		Content: rawContent(t, messaging.NewTextMessage(body)),
	}
}

func replyEvent(t *testing.T, eventID, sender, target, body string) messaging.Event {
	content := messaging.NewTextMessage(body)
	content.RelatesTo = &messaging.RelatesTo{InReplyTo: &messaging.InReplyTo{EventID: target}}
	return messaging.Event{
		EventID: eventID,
		Type:    messaging.EventTypeMessage,
		Sender:  sender,
		Content: rawContent(t, content),
	}
}

func reactionEvent(t *testing.T, eventID, sender, target, key string) messaging.Event {
	return messaging.Event{
		EventID: eventID,
		Type:    messaging.EventTypeReaction,
		Sender:  sender,
		Content: rawContent(t, messaging.NewReaction(target, key)),
	}
}

func timeline(events ...messaging.Event) *messaging.SyncResponse {
	return &messaging.SyncResponse{
		Rooms: messaging.RoomsSection{
			Join: map[string]messaging.JoinedRoom{
				roomID: {Timeline: messaging.TimelineSection{Events: events}},
			},
		},
	}
}
