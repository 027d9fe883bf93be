package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/frontmatter"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/slug"
)

var (
	// ErrDuplicateID indicates two source files mapping to the same
	// document ID.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrDocsDirMissing indicates the configured docs directory does
	// not exist.
	ErrDocsDirMissing = errors.New("docs directory not found")
)

var firstH1 = regexp.MustCompile(`(?m)^# (.+)\r?\n?`)

// Loader walks a docs tree and produces the page set.
type Loader struct {
	dir       string
	baseURL   string
	routeBase string
}

// NewLoader builds a loader for the configured docs directory.
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		dir:       cfg.Docs.Dir,
		baseURL:   cfg.Site.BaseURL,
		routeBase: cfg.Docs.RouteBase,
	}
}

// Load discovers every Markdown page and asset under the docs dir.
// Hidden files and directories are skipped. Front-matter problems and
// ID collisions fail the load with the offending file named.
func (l *Loader) Load() (*Set, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDocsDirMissing, l.dir)
	}

	var (
		pages  []*Page
		assets []Asset
		byID   = make(map[string]*Page)
	)

	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != l.dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case isMarkdownFile(p):
			page, err := l.loadPage(p, rel)
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			if prev, exists := byID[page.ID]; exists {
				return fmt.Errorf("%w: %q maps to both %s and %s", ErrDuplicateID, page.ID, prev.RelPath, page.RelPath)
			}
			byID[page.ID] = page
			pages = append(pages, page)
			slog.Debug("discovered page", logfields.Page(page.ID), logfields.File(rel))
		case isAssetFile(p):
			assets = append(assets, Asset{
				SourcePath: p,
				RelPath:    rel,
				Route:      l.assetRoute(rel),
			})
			slog.Debug("discovered asset", logfields.File(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	set := NewSet(pages, assets)

	routes := make(map[string]*Page, len(set.Pages))
	for _, page := range set.Pages {
		if prev, exists := routes[page.Permalink]; exists {
			return nil, fmt.Errorf("%w: %s and %s both resolve to %s", ErrDuplicateID, prev.RelPath, page.RelPath, page.Permalink)
		}
		routes[page.Permalink] = page
	}

	slog.Info("content loaded",
		logfields.Count(len(set.Pages)),
		slog.Int("assets", len(set.Assets)))
	return set, nil
}

func (l *Loader) loadPage(absPath, relPath string) (*Page, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	isIndex := isIndexName(name)

	cleanName, prefixPos, hadPrefix := slug.SplitOrderPrefix(name)

	segments := idSegments(path.Dir(relPath))
	section := strings.Join(segments, "/")

	page := &Page{
		SourcePath:     absPath,
		RelPath:        relPath,
		Section:        section,
		IsIndex:        isIndex,
		Position:       PositionUnset,
		Fields:         doc.Fields,
		HadFrontMatter: doc.Present,
		Body:           doc.Body,
	}

	if isIndex {
		page.ID = section
		if page.ID == "" {
			page.ID = "index"
			page.Section = ""
		} else {
			// A section index belongs to its parent for ordering.
			page.Section = path.Dir(section)
			if page.Section == "." {
				page.Section = ""
			}
		}
	} else {
		page.ID = joinID(section, slug.Make(cleanName))
	}

	page.Slug = slug.Make(cleanName)
	if s, ok := doc.String("slug"); ok && s != "" {
		page.Slug = strings.Trim(s, "/")
	}
	if hadPrefix {
		page.Position = prefixPos
	}
	if pos, ok := doc.Int("sidebar_position"); ok {
		page.Position = pos
	}
	if label, ok := doc.String("sidebar_label"); ok {
		page.SidebarLabel = label
	}
	if desc, ok := doc.String("description"); ok {
		page.Description = desc
	}
	if draft, ok := doc.Bool("draft"); ok {
		page.Draft = draft
	}
	if unlisted, ok := doc.Bool("unlisted"); ok {
		page.Unlisted = unlisted
	}
	if date, ok := doc.Time("date"); ok {
		page.Date = date
	}
	if tags, ok := doc.Strings("tags"); ok {
		page.Tags = tags
	}
	if uid, ok := doc.String("uid"); ok {
		page.UID = uid
	}

	l.resolveTitle(page, doc)
	page.Permalink = l.permalink(page, segments)
	return page, nil
}

// resolveTitle picks the page title: front-matter wins, then the
// body's leading H1, then the humanized file name. A leading H1 that
// matches the resolved title is removed so the layout's heading does
// not duplicate it.
func (l *Loader) resolveTitle(page *Page, doc *frontmatter.Doc) {
	title, _ := doc.String("title")

	m := firstH1.FindSubmatch(page.Body)
	var h1 string
	if m != nil {
		h1 = strings.TrimSpace(string(m[1]))
	}

	switch {
	case title != "":
		page.Title = title
	case h1 != "":
		page.Title = h1
	default:
		base := strings.TrimSuffix(path.Base(page.RelPath), path.Ext(page.RelPath))
		cleaned, _, _ := slug.SplitOrderPrefix(base)
		page.Title = slug.Humanize(cleaned)
	}

	if h1 != "" && h1 == page.Title {
		page.Body = firstH1.ReplaceAll(page.Body, nil)
	}
}

// permalink builds the absolute route for a page. Index pages land on
// their directory route; everything else appends the slug.
func (l *Loader) permalink(page *Page, dirSegments []string) string {
	parts := make([]string, 0, len(dirSegments)+2)
	if l.routeBase != "" {
		parts = append(parts, l.routeBase)
	}
	parts = append(parts, dirSegments...)
	if !page.IsIndex {
		parts = append(parts, page.Slug)
	}
	route := l.baseURL + strings.Join(parts, "/")
	if !strings.HasSuffix(route, "/") {
		route += "/"
	}
	return route
}

func (l *Loader) assetRoute(relPath string) string {
	dir := path.Dir(relPath)
	parts := make([]string, 0, 4)
	if l.routeBase != "" {
		parts = append(parts, l.routeBase)
	}
	parts = append(parts, idSegments(dir)...)
	parts = append(parts, path.Base(relPath))
	return l.baseURL + strings.Join(parts, "/")
}

// idSegments slugs each directory element of a relative path, dropping
// order prefixes. Returns nil for the root.
func idSegments(dir string) []string {
	if dir == "." || dir == "" {
		return nil
	}
	raw := strings.Split(dir, "/")
	out := make([]string, len(raw))
	for i, seg := range raw {
		cleaned, _, _ := slug.SplitOrderPrefix(seg)
		out[i] = slug.Make(cleaned)
	}
	return out
}

func joinID(section, name string) string {
	if section == "" {
		return name
	}
	return section + "/" + name
}

func isIndexName(name string) bool {
	lower := strings.ToLower(name)
	return lower == "index" || lower == "readme"
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

func isAssetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		".pdf", ".mp4", ".webm", ".ogv", ".csv", ".json", ".yaml", ".yml", ".xml", ".txt":
		return true
	}
	return false
}
