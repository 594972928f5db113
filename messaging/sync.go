// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharebot/sharebot/lib/clock"
)

// SyncConfig configures the /sync long-poll loop.
type SyncConfig struct {
	// Filter is an inline JSON filter restricting what the homeserver
	// returns.
	Filter string

	// Timeout is the long-poll timeout in milliseconds. Default: 30000.
	Timeout int

	// MaxBackoff caps the delay between retries after a failed sync.
	// Backoff starts at one second and doubles. Default: 30 seconds.
	MaxBackoff time.Duration
}

// SyncHandler is called for each /sync response. The next poll starts
// after it returns.
type SyncHandler func(ctx context.Context, response *SyncResponse)

// InitialSync performs a sync with no since token and returns the token
// the incremental loop should start from, along with the response.
func InitialSync(ctx context.Context, session *Session, filter string) (string, *SyncResponse, error) {
	response, err := session.Sync(ctx, SyncOptions{Filter: filter})
	if err != nil {
		return "", nil, fmt.Errorf("initial sync: %w", err)
	}
	return response.NextBatch, response, nil
}

// RunSyncLoop polls /sync from sinceToken until ctx is cancelled, calling
// handler for each response. Other errors are retried with exponential
// backoff on clk, waiting longer when a rate limit asks for it. A rejected
// access token ends the loop.
func RunSyncLoop(ctx context.Context, session *Session, config SyncConfig, sinceToken string, handler SyncHandler, clk clock.Clock, logger *slog.Logger) error {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}

		response, err := session.Sync(ctx, SyncOptions{
			Since:      sinceToken,
			Timeout:    timeout,
			SetTimeout: true,
			Filter:     config.Filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if credentialsRejected(err) {
				return err
			}
			delay := retryDelay(err, backoff)
			logger.Error("sync failed, retrying", "error", err, "delay", delay)
			session.client.CloseIdleConnections()
			select {
			case <-ctx.Done():
				return nil
			case <-clk.After(delay):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch
		handler(ctx, response)
	}
}

// AcceptInvites joins every room in invites and returns the ids of the
// rooms joined. Failures are logged and skipped.
func AcceptInvites(ctx context.Context, session *Session, invites map[string]InvitedRoom, logger *slog.Logger) []string {
	var accepted []string
	for roomID := range invites {
		logger.Info("accepting room invite", "room_id", roomID)
		if _, err := session.JoinRoom(ctx, roomID); err != nil {
			logger.Error("failed to accept room invite", "room_id", roomID, "error", err)
			continue
		}
		accepted = append(accepted, roomID)
	}
	return accepted
}
