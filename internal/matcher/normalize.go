package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// normalize folds text for comparison: NFKD with combining marks removed, punctuation
// replaced by spaces, lowercased and whitespace collapsed.
func normalize(text string) string {
	text = norm.NFKD.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}

	text = punctRegex.ReplaceAllString(b.String(), " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(strings.ToLower(text))
}

// containsPhrase reports whether the normalized needle appears in haystack on word boundaries.
func containsPhrase(haystack, needle string) bool {
	needle = normalize(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(" "+normalize(haystack)+" ", " "+needle+" ")
}
