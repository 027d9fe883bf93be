package content

import (
	"sort"
	"strings"
)

// Set is the loaded content of a site: pages indexed by ID plus
// passthrough assets. Pages are kept sorted by ID.
type Set struct {
	Pages  []*Page
	Assets []Asset

	byID map[string]*Page
}

// NewSet builds a Set from already-parsed pages, sorting them by ID.
func NewSet(pages []*Page, assets []Asset) *Set {
	s := &Set{Pages: pages, Assets: assets, byID: make(map[string]*Page, len(pages))}
	sort.Slice(s.Pages, func(i, j int) bool { return s.Pages[i].ID < s.Pages[j].ID })
	for _, p := range s.Pages {
		s.byID[p.ID] = p
	}
	return s
}

// ByID looks a page up by its document ID.
func (s *Set) ByID(id string) (*Page, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Sections returns the distinct section IDs in lexical order, the root
// ("") included when it has pages.
func (s *Set) Sections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.Pages {
		if _, ok := seen[p.Section]; ok {
			continue
		}
		seen[p.Section] = struct{}{}
		out = append(out, p.Section)
	}
	sort.Strings(out)
	return out
}

// InSection returns the section's pages in sidebar order: explicit
// position first, ties broken by title, index pages always leading.
func (s *Set) InSection(section string) []*Page {
	var out []*Page
	for _, p := range s.Pages {
		if p.Section == section {
			out = append(out, p)
		}
	}
	SortPages(out)
	return out
}

// ChildSections lists the immediate child section IDs of section.
func (s *Set) ChildSections(section string) []string {
	prefix := ""
	if section != "" {
		prefix = section + "/"
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.Pages {
		if p.Section == section || !strings.HasPrefix(p.Section, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p.Section, prefix)
		child := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			child = rest[:i]
		}
		full := prefix + child
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		out = append(out, full)
	}
	sort.Strings(out)
	return out
}

// SortPages orders pages for sidebar presentation.
func SortPages(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.IsIndex != b.IsIndex {
			return a.IsIndex
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
