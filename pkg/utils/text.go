// Package utils holds small helpers shared across the module.
package utils

// Truncate caps s at maxLen bytes, marking the cut with "...". Paths and
// user-supplied values pass through here before landing in log fields.
// A zero or negative maxLen disables the cap.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
