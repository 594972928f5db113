// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ReadFromPath reads a secret file, trims surrounding whitespace, and
// returns it in a protected buffer. An empty file is an error.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: reading %s: %w", path, err)
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret: %s is empty", path)
	}
	return NewFromBytes(trimmed)
}

// FromString moves a secret that arrived as a string (environment
// variable) into a protected buffer. The string itself cannot be zeroed.
func FromString(value string) (*Buffer, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("secret: value is empty")
	}
	return NewFromBytes([]byte(value))
}
