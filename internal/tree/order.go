package tree

import (
	"sort"
	"strings"

	"lawcode-cli/internal/model"
)

// SortSections sorts sections in place by order value, then id.
func SortSections(secs []model.Section) {
	sort.SliceStable(secs, func(i, j int) bool {
		return compareByOrderID(secs[i].Order, secs[j].Order, secs[i].ID, secs[j].ID) < 0
	})
}

// SortChapters sorts chapters in place by order value, then id.
// Duplicate order values (left behind by cross-section moves) stay stable.
func SortChapters(chs []model.Chapter) {
	sort.SliceStable(chs, func(i, j int) bool {
		return compareByOrderID(chs[i].Order, chs[j].Order, chs[i].ID, chs[j].ID) < 0
	})
}

func compareByOrderID(oa, ob int, ida, idb string) int {
	if oa < ob {
		return -1
	}
	if oa > ob {
		return 1
	}
	ida = strings.TrimSpace(ida)
	idb = strings.TrimSpace(idb)
	if ida < idb {
		return -1
	}
	if ida > idb {
		return 1
	}
	return 0
}

// ArrayMove returns a copy of ids with the element at from moved to index to.
// Out-of-range indexes are clamped.
func ArrayMove(ids []string, from, to int) []string {
	out := append([]string{}, ids...)
	if len(out) == 0 || from < 0 || from >= len(out) {
		return out
	}
	if to < 0 {
		to = 0
	}
	if to > len(out)-1 {
		to = len(out) - 1
	}
	if from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	rest := append([]string{}, out[to:]...)
	out = append(out[:to], moved)
	return append(out, rest...)
}

// IsContiguous reports whether chapter order values are exactly 1..N in slice order.
func IsContiguous(chs []model.Chapter) bool {
	for i := range chs {
		if chs[i].Order != i+1 {
			return false
		}
	}
	return true
}

func indexOf(ids []string, id string) int {
	id = strings.TrimSpace(id)
	for i := range ids {
		if strings.TrimSpace(ids[i]) == id {
			return i
		}
	}
	return -1
}
