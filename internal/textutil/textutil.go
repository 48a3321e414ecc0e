// Package textutil holds rune-aware length helpers. Content thresholds count
// characters, not bytes; byte lengths would triple-count CJK text.
package textutil

import "unicode/utf8"

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns at most n characters of s without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Snippet truncates s to n characters and appends an ellipsis when anything
// was cut off.
func Snippet(s string, n int) string {
	if RuneLen(s) <= n {
		return s
	}
	return Truncate(s, n) + "..."
}
