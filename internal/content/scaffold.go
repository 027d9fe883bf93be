package content

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
	"git.home.luguber.info/inful/notesite/internal/frontmatterops"
	"git.home.luguber.info/inful/notesite/internal/slug"
)

// ErrDocExists indicates a scaffold target that is already on disk.
var ErrDocExists = errors.New("document already exists")

// CreateDoc scaffolds a new Markdown document under docsDir. The id is
// a slash-separated route like "guides/setup"; intermediate section
// directories are created as needed. An empty title is derived from
// the last id segment. The new page slots in after the highest
// sidebar_position among its siblings.
func CreateDoc(docsDir, id, title string) (string, error) {
	id = strings.Trim(path.Clean(strings.TrimSuffix(id, ".md")), "/")
	if id == "" || id == "." || id == ".." ||
		strings.HasPrefix(id, "../") || strings.Contains(id, "\\") {
		return "", fmt.Errorf("invalid document id %q", id)
	}

	full := filepath.Join(docsDir, filepath.FromSlash(id)+".md")
	if _, err := os.Stat(full); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDocExists, full)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create section dir: %w", err)
	}

	if title == "" {
		base := path.Base(id)
		if rest, _, ok := slug.SplitOrderPrefix(base); ok {
			base = rest
		}
		title = slug.Humanize(base)
	}

	fields := map[string]any{
		"title":            title,
		"sidebar_position": nextSidebarPosition(filepath.Dir(full)),
	}
	if _, _, err := frontmatterops.EnsureUID(fields); err != nil {
		return "", err
	}
	if _, _, err := frontmatterops.UpsertFingerprint(fields, nil, time.Now()); err != nil {
		return "", err
	}

	doc := &frontmatter.Doc{
		Fields:  fields,
		Present: true,
		Style:   frontmatter.Style{Newline: "\n", HasTrailingNewline: true},
	}
	data, err := frontmatter.Encode(doc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return full, nil
}

// nextSidebarPosition returns one past the highest sidebar_position
// declared by sibling documents, or 1 in an empty section.
func nextSidebarPosition(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	maxPos := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		doc, err := frontmatter.Parse(data)
		if err != nil {
			continue
		}
		if pos, ok := doc.Fields["sidebar_position"].(int); ok && pos > maxPos {
			maxPos = pos
		}
	}
	return maxPos + 1
}
