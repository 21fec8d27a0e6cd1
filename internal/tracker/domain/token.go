package domain

import (
	"sort"
	"strings"
)

// NormalizeID trims surrounding whitespace from a raw collection or token
// identifier. Lookups and map keys always use the normalized string form so
// numeric and string renditions of the same id collide.
func NormalizeID(raw string) string {
	return strings.TrimSpace(raw)
}

// SortTokenIDs orders token ids with a two-tier key: numeric ids first in
// ascending numeric order, then non-numeric ids lexicographically. The input
// is not mutated and sorting is idempotent.
func SortTokenIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		return lessTokenID(out[i], out[j])
	})
	return out
}

func lessTokenID(a, b string) bool {
	numA, numB := isNumericID(a), isNumericID(b)
	if numA != numB {
		return numA
	}
	if !numA {
		return a < b
	}
	return lessNumericID(a, b)
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// lessNumericID compares digit strings by value without parsing: after
// stripping leading zeros a shorter string is smaller, equal lengths compare
// lexicographically. Ids differing only in leading zeros fall back to a
// plain string compare so the order stays total.
func lessNumericID(a, b string) bool {
	trimmedA := strings.TrimLeft(a, "0")
	trimmedB := strings.TrimLeft(b, "0")
	if len(trimmedA) != len(trimmedB) {
		return len(trimmedA) < len(trimmedB)
	}
	if trimmedA != trimmedB {
		return trimmedA < trimmedB
	}
	return a < b
}
