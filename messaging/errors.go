// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes the bot reacts to.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken  = "M_MISSING_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// MatrixError is a failed API call: the errcode body plus the HTTP status
// it came with. Inspect one with errors.As or [ErrorCode].
type MatrixError struct {
	Code    string `json:"errcode"`
	Message string `json:"error"`

	// RetryAfterMillis accompanies M_LIMIT_EXCEEDED.
	RetryAfterMillis int64 `json:"retry_after_ms,omitempty"`

	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("homeserver returned %s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("homeserver returned %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Temporary reports whether the same request can succeed later.
func (e *MatrixError) Temporary() bool {
	return e.Code == ErrCodeLimitExceeded || e.StatusCode >= http.StatusInternalServerError
}

// RetryAfter is the delay the homeserver asked for, or zero.
func (e *MatrixError) RetryAfter() time.Duration {
	return time.Duration(e.RetryAfterMillis) * time.Millisecond
}

// ErrorCode returns the errcode of the *MatrixError in err's chain, or ""
// when err did not come from the homeserver.
func ErrorCode(err error) string {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code
	}
	return ""
}

// credentialsRejected reports whether err means the access token is no
// longer usable. Nothing the bot retries can fix that.
func credentialsRejected(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeUnknownToken, ErrCodeMissingToken:
		return true
	}
	return false
}

// retryDelay is how long to wait before retrying after err: backoff, or
// the homeserver's rate-limit hint when that is longer.
func retryDelay(err error, backoff time.Duration) time.Duration {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) && matrixErr.RetryAfter() > backoff {
		return matrixErr.RetryAfter()
	}
	return backoff
}
