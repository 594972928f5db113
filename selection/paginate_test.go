// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func numberedItems(count int) []string {
	items := make([]string, count)
	for index := range items {
		items[index] = fmt.Sprintf("Hat %03d", index)
	}
	return items
}

func TestPaginatePreservesEveryItemOnce(t *testing.T) {
	for _, count := range []int{0, 1, 24, 25, 26, 99, 100, 101, 230, 401} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			items := numberedItems(count)
			pages := Paginate(items, 25, 4)

			var flattened []string
			for pageIndex, page := range pages {
				if len(page) == 0 || len(page) > 4 {
					t.Errorf("page %d has %d groups", pageIndex, len(page))
				}
				for groupIndex, group := range page {
					if len(group) == 0 || len(group) > 25 {
						t.Errorf("page %d group %d has %d items", pageIndex, groupIndex, len(group))
					}
					flattened = append(flattened, group...)
				}
			}
			if count == 0 {
				if len(pages) != 0 {
					t.Errorf("Paginate of nothing produced %d pages", len(pages))
				}
				return
			}
			if diff := cmp.Diff(items, flattened); diff != "" {
				t.Errorf("flattened pages differ from input (-want +got):\n%s", diff)
			}
			if want := (count + 99) / 100; len(pages) != want {
				t.Errorf("%d items gave %d pages, want %d", count, len(pages), want)
			}
		})
	}
}

func TestPaginateOnlyLastGroupShort(t *testing.T) {
	pages := Paginate(numberedItems(230), 25, 4)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if len(pages[2]) != 2 || len(pages[2][1]) != 5 {
		t.Errorf("last page shape = %d groups, last group %d items", len(pages[2]), len(pages[2][len(pages[2])-1]))
	}
}

func TestPageNavigationWraps(t *testing.T) {
	tests := []struct {
		current, count, next, previous int
	}{
		{current: 0, count: 1, next: 0, previous: 0},
		{current: 0, count: 3, next: 1, previous: 2},
		{current: 2, count: 3, next: 0, previous: 1},
	}
	for _, test := range tests {
		if got := nextPage(test.current, test.count); got != test.next {
			t.Errorf("nextPage(%d, %d) = %d, want %d", test.current, test.count, got, test.next)
		}
		if got := previousPage(test.current, test.count); got != test.previous {
			t.Errorf("previousPage(%d, %d) = %d, want %d", test.current, test.count, got, test.previous)
		}
	}
}
