// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import "slices"

// Page is a list of item groups; each group becomes one select menu.
type Page [][]string

// Paginate splits items into groups of at most groupSize and pages of at
// most groupsPerPage groups, preserving order. No items yields no pages.
func Paginate(items []string, groupSize, groupsPerPage int) []Page {
	if groupSize <= 0 || groupsPerPage <= 0 {
		return nil
	}
	groups := slices.Collect(slices.Chunk(items, groupSize))
	var pages []Page
	for chunk := range slices.Chunk(groups, groupsPerPage) {
		pages = append(pages, Page(chunk))
	}
	return pages
}

// nextPage and previousPage wrap around at both ends.
func nextPage(current, count int) int {
	return (current + 1) % count
}

func previousPage(current, count int) int {
	return (current - 1 + count) % count
}
