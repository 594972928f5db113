// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds reads of Matrix client-server API responses.
//
// The homeserver is remote and untrusted as far as memory is concerned,
// so every JSON body the bot reads goes through [ReadResponse], which
// stops at [MaxResponseSize]. Sync responses for a small community bot
// are a few kilobytes; the cap only matters when something upstream
// misbehaves.
package netutil

import "io"

// MaxResponseSize caps a single JSON API response body: 32 MB.
const MaxResponseSize int64 = 32 << 20

// ReadResponse reads at most MaxResponseSize bytes of body.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody returns whatever part of an error response could be read, for
// inclusion in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}
