// Package content discovers and models the Markdown documents a site is
// built from.
package content

import (
	"html/template"
	"strings"
	"time"
)

// PositionUnset sorts pages without an explicit sidebar_position after
// every positioned page.
const PositionUnset = 1 << 30

// Page is one Markdown document.
type Page struct {
	// SourcePath is the absolute path of the source file.
	SourcePath string
	// RelPath is the slash-separated path relative to the docs dir.
	RelPath string

	// ID is the stable document identifier derived from the file path:
	// slugged path segments without the extension, order prefixes
	// stripped ("guides/01-intro.md" -> "guides/intro"). Index files
	// take their section's ID.
	ID string
	// Section is the ID of the section the page lives in, "" at root.
	Section string
	// IsIndex marks index.md / README.md section indexes.
	IsIndex bool

	Title        string
	Description  string
	SidebarLabel string
	// Position orders the page within its section. PositionUnset when
	// neither front-matter nor an NN- file prefix provided one.
	Position int

	// Slug is the final permalink segment.
	Slug string
	// Permalink is the absolute route of the rendered page, always with
	// a trailing slash ("/docs/guides/intro/").
	Permalink string

	Draft    bool
	Unlisted bool
	Date     time.Time
	Tags     []string
	UID      string

	// Fields is the full front-matter mapping as authored.
	Fields         map[string]any
	HadFrontMatter bool

	// Body is the Markdown source after front-matter removal.
	Body []byte

	// Filled in by the render stage.
	HTML template.HTML
	TOC  []Heading

	// Filled in by the git metadata stage when enabled.
	LastUpdated time.Time
	EditURL     string
}

// Heading is a TOC entry extracted during rendering.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

// Asset is a non-Markdown file copied through to the built site.
type Asset struct {
	SourcePath string
	RelPath    string
	// Route is the absolute URL the asset is served under.
	Route string
}

// Scheduled reports whether the page is dated in the future relative
// to now.
func (p *Page) Scheduled(now time.Time) bool {
	return !p.Date.IsZero() && p.Date.After(now)
}

// OutputPath is the file the page renders to, relative to the output
// root ("docs/guides/intro/index.html").
func (p *Page) OutputPath(baseURL string) string {
	route := strings.TrimPrefix(p.Permalink, baseURL)
	return route + "index.html"
}

// Label is the sidebar display name for the page.
func (p *Page) Label() string {
	if p.SidebarLabel != "" {
		return p.SidebarLabel
	}
	return p.Title
}
