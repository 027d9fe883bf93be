package site

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/slug"
)

// searchEntry is one document in search-index.json, consumed by the
// theme's search script.
type searchEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
	URL     string `json:"url"`
	Text    string `json:"text"`
}

// excerptLimit caps the indexed text per page, in runes. Enough for
// matching without shipping whole documents twice.
const excerptLimit = 320

func buildSearchIndex(set *content.Set) ([]byte, error) {
	entries := make([]searchEntry, 0, len(set.Pages))
	for _, p := range set.Pages {
		if p.Unlisted {
			continue
		}
		entries = append(entries, searchEntry{
			ID:      p.ID,
			Title:   p.Title,
			Section: sectionLabel(set, p.Section),
			URL:     p.Permalink,
			Text:    excerpt(p.Body, excerptLimit),
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal search index: %w", err)
	}
	return data, nil
}

// sectionLabel names a section for search results: the section index
// page's label when one exists, otherwise the humanized last segment.
func sectionLabel(set *content.Set, section string) string {
	if section == "" {
		return ""
	}
	if index, ok := set.ByID(section); ok {
		return index.Label()
	}
	if i := strings.LastIndexByte(section, '/'); i >= 0 {
		section = section[i+1:]
	}
	return slug.Humanize(section)
}

var (
	fencedBlock  = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`[^`]*`")
	imageLink    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdDecoration = regexp.MustCompile(`(?m)^#{1,6}[ \t]+|^>[ \t]?|[*_~]{1,3}`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// excerpt reduces a Markdown body to plain text for indexing: code
// blocks dropped, links flattened to their text, markup stripped,
// whitespace collapsed, cut at limit runes on a word boundary.
func excerpt(body []byte, limit int) string {
	text := string(body)
	text = fencedBlock.ReplaceAllString(text, " ")
	text = inlineCode.ReplaceAllString(text, " ")
	text = imageLink.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdDecoration.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}
