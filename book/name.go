package book

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultFileName is used when nothing survives title sanitization.
const DefaultFileName = "memory-book"

// SanitizeTitle prepares title to be used as file name: only Latin letters
// (accented included), ASCII digits, hyphens, underscores and spaces are
// kept, any whitespace becomes space, result is trimmed. Idempotent, works
// for any input.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(title) {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// DownloadName returns document file name for the title.
func DownloadName(title string) string {
	name := SanitizeTitle(title)
	if len(name) == 0 {
		name = DefaultFileName
	}
	return name + ".pdf"
}
