// Package stringutil provides common string utility functions.
package stringutil

// TruncateStringWithEllipsis truncates a string to a maximum length and adds
// a "..." suffix. Strings shorter than maxLen are returned unchanged; when
// maxLen leaves no room for the ellipsis the string is cut without one.
func TruncateStringWithEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
