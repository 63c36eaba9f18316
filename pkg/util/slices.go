package util

// Tail returns the last n elements of s, or all of s when it is shorter.
// The result shares s's backing array.
func Tail[T any](s []T, n int) []T {
	if n <= 0 {
		return s[:0]
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
