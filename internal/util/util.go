package util

import (
	"sort"
	"strings"
)

// SortBy returns a copy of items sorted by less, using a stable sort so that
// repository listings (by ID, by name) come back in deterministic order
// across calls regardless of map iteration order upstream.
func SortBy[T any](items []T, less func(l, r T) bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// SliceIndexOf returns the index of the first occurrence of item in sl, or
// -1 if it is not present.
func SliceIndexOf[T comparable](item T, sl []T) int {
	for i := range sl {
		if sl[i] == item {
			return i
		}
	}
	return -1
}

// SliceRemove returns a copy of sl with the first occurrence of item
// removed. If item is not present, the returned slice has the same contents
// as sl.
func SliceRemove[T comparable](item T, sl []T) []T {
	pos := SliceIndexOf(item, sl)
	if pos < 0 {
		out := make([]T, len(sl))
		copy(out, sl)
		return out
	}

	out := make([]T, 0, len(sl)-1)
	out = append(out, sl[:pos]...)
	out = append(out, sl[pos+1:]...)
	return out
}

// MakeTextList gives a nice list of things based on their display name.
//
// TODO: turn this into a generic function that accepts displayable OR ~string
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}

	output := ""

	if len(items) == 1 {
		output += items[0]
	} else if len(items) == 2 {
		output += items[0] + " and " + items[1]
	} else {
		// if its more than two, use an oxford comma
		items[len(items)-1] = "and " + items[len(items)-1]
		output += strings.Join(items, ", ")
	}

	return output
}
