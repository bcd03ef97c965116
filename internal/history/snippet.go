package history

import "strings"

// snippetMaxLen is the maximum visible length of a derived snippet,
// before the ellipsis marker.
const snippetMaxLen = 80

// Snippet derives the short preview stored next to an entry's content:
// whitespace runs collapse to single spaces, and anything past 80
// characters is truncated with a trailing "...". Truncation counts
// characters, not bytes, so multibyte content is never split mid-rune.
// Empty content yields an empty snippet.
func Snippet(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= snippetMaxLen {
		return collapsed
	}
	return strings.TrimRight(string(runes[:snippetMaxLen]), " ") + "..."
}
