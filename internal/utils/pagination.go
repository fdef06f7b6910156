// Package utils holds small helpers shared across layers. Nothing in here
// knows about doubts, courses, or HTTP; callers own that context.
package utils

import "strconv"

// AtoiDefault converts a string to an int, returning def when the string is
// empty or not a plain base-10 integer. The doubt list handlers use it for
// the page and page_size query params:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to the inclusive range [lo, hi]. It backs the pagination
// limits so a client can neither request page zero nor a page size that
// would scan the whole doubts table.
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
