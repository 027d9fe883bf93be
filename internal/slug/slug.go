// Package slug derives URL path segments and human labels from file
// names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.English)

// Make converts an arbitrary name into a URL-safe slug: diacritics
// stripped, lowercased, and every run of non-alphanumerics collapsed
// into a single hyphen.
//
//	"Café au Lait.md" -> "cafe-au-lait-md" (strip the extension first)
func Make(s string) string {
	s = stripDiacritics(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// Humanize turns a slug or file name into a display label:
// separators become spaces and words are title-cased.
//
//	"getting-started" -> "Getting Started"
func Humanize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return titleCaser.String(s)
}

// SplitOrderPrefix detects the `NN-name` file naming convention used to
// order documents without front-matter. It returns the name with the
// prefix removed, the numeric position, and whether a prefix was found.
//
//	"01-intro" -> ("intro", 1, true)
func SplitOrderPrefix(s string) (string, int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '-' && s[i] != '_') {
		return s, 0, false
	}
	rest := s[i+1:]
	if rest == "" {
		return s, 0, false
	}

	n := 0
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	return rest, n, true
}

func stripDiacritics(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return stripped
}
