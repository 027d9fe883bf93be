package sidebar

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/content"
)

// ErrUnresolved indicates doc references without a matching page.
var ErrUnresolved = errors.New("sidebar references unknown documents")

// Resolved is the sidebar after every doc reference has been attached
// to its page.
type Resolved struct {
	Items []Item
	// Docs is the depth-first document order, driving prev/next
	// pagination.
	Docs []*content.Page
	// Warnings records non-fatal oddities (empty categories, duplicate
	// references, entries dropped for excluded pages).
	Warnings []string
}

// Item is one resolved sidebar entry.
type Item struct {
	Type      NodeType
	Label     string
	Href      string
	Collapsed bool
	// Page backs doc items and linked category indexes.
	Page  *content.Page
	Items []Item
}

// Resolve attaches pages to the tree. Unresolvable doc IDs are
// collected and reported together so authors fix them in one pass.
// References to excluded pages (drafts, scheduled) drop their node
// with a warning instead of failing the build.
func Resolve(nodes []Node, set *content.Set, excluded map[string]string) (*Resolved, error) {
	r := &resolver{set: set, excluded: excluded, seen: make(map[string]bool)}

	items := r.resolveLevel(nodes)
	if len(r.missing) > 0 {
		sort.Strings(r.missing)
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(r.missing, ", "))
	}

	res := &Resolved{Items: items, Warnings: r.warnings}
	collectDocs(items, &res.Docs)
	return res, nil
}

type resolver struct {
	set      *content.Set
	excluded map[string]string
	seen     map[string]bool
	missing  []string
	warnings []string
}

func (r *resolver) resolveLevel(nodes []Node) []Item {
	items := make([]Item, 0, len(nodes))
	for i := range nodes {
		if item, ok := r.resolveNode(&nodes[i]); ok {
			items = append(items, item)
		}
	}
	return items
}

func (r *resolver) resolveNode(n *Node) (Item, bool) {
	switch n.Type {
	case NodeLink:
		return Item{Type: NodeLink, Label: n.Label, Href: n.Href}, true

	case NodeDoc:
		page, ok := r.lookup(n.ID)
		if !ok {
			return Item{}, false
		}
		label := n.Label
		if label == "" {
			label = page.Label()
		}
		return Item{Type: NodeDoc, Label: label, Page: page}, true

	default: // category
		item := Item{Type: NodeCategory, Label: n.Label, Collapsed: n.collapsed()}
		if n.ID != "" {
			if page, ok := r.lookup(n.ID); ok {
				item.Page = page
			}
		}
		item.Items = r.resolveLevel(n.Items)
		if len(item.Items) == 0 && item.Page == nil {
			r.warnings = append(r.warnings, fmt.Sprintf("category %q has no items", n.Label))
		}
		return item, true
	}
}

// lookup finds a page by ID, tracking duplicates, exclusions and
// misses.
func (r *resolver) lookup(id string) (*content.Page, bool) {
	if r.seen[id] {
		r.warnings = append(r.warnings, fmt.Sprintf("document %q referenced more than once", id))
	}
	r.seen[id] = true

	page, ok := r.set.ByID(id)
	if ok {
		return page, true
	}
	if reason, wasExcluded := r.excluded[id]; wasExcluded {
		r.warnings = append(r.warnings, fmt.Sprintf("dropping sidebar entry for %s page %q", reason, id))
		return nil, false
	}
	r.missing = append(r.missing, id)
	return nil, false
}

func collectDocs(items []Item, out *[]*content.Page) {
	for i := range items {
		if items[i].Page != nil {
			*out = append(*out, items[i].Page)
		}
		collectDocs(items[i].Items, out)
	}
}

// Prev and Next return the pagination neighbors of a page within the
// resolved document order.
func (r *Resolved) Prev(page *content.Page) *content.Page {
	for i, p := range r.Docs {
		if p == page && i > 0 {
			return r.Docs[i-1]
		}
	}
	return nil
}

func (r *Resolved) Next(page *content.Page) *content.Page {
	for i, p := range r.Docs {
		if p == page && i+1 < len(r.Docs) {
			return r.Docs[i+1]
		}
	}
	return nil
}

// LogWarnings emits collected warnings through slog.
func (r *Resolved) LogWarnings() {
	for _, w := range r.Warnings {
		slog.Warn("sidebar", slog.String("detail", w))
	}
}

// Contains reports whether the page appears anywhere in the resolved
// tree.
func (r *Resolved) Contains(page *content.Page) bool {
	for _, p := range r.Docs {
		if p == page {
			return true
		}
	}
	return false
}
