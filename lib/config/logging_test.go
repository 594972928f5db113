// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var output bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&output)

	logger.Info("dropped")
	logger.Warn("kept", "item", "Golden Hat")

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want only the warning: %q", len(lines), output.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["item"] != "Golden Hat" {
		t.Errorf("record = %v", record)
	}
}

func TestNewLoggerTextDefaults(t *testing.T) {
	var output bytes.Buffer
	logger := LoggingConfig{Level: "verbose", Format: "text"}.NewLogger(&output)

	logger.Debug("hidden")
	logger.Info("shown")

	if got := output.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "msg=shown") {
		t.Errorf("text output = %q", got)
	}
}
