// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the slog logger the configuration asks for, writing
// to w. Unknown levels fall back to info and unknown formats to text;
// Validate rejects both before a binary gets here.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}
