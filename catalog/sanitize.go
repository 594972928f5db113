// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import "strings"

// Sanitize drops every rune outside the allowed set: ASCII letters and
// digits, space, newline, and ' " - # ( ). Newline survives only so that
// multi-record text can still be split afterwards.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if allowed(r) {
			return r
		}
		return -1
	}, s)
}

// SanitizeName is Sanitize for a single value: newlines are dropped too.
func SanitizeName(s string) string {
	return strings.ReplaceAll(Sanitize(s), "\n", "")
}

// SplitRecord sanitizes text and splits it into newline-separated
// entries, skipping empty lines.
func SplitRecord(text string) []string {
	var entries []string
	for line := range strings.SplitSeq(Sanitize(text), "\n") {
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '\n', '\'', '"', '-', '#', '(', ')':
		return true
	}
	return false
}
