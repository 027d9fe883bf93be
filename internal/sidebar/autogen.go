package sidebar

import (
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/slug"
)

// Generate derives a sidebar from the filesystem layout when no
// sidebar file exists: directories become collapsed categories, pages
// order by sidebar_position then title. Index pages lead their level
// and double as the category link for their directory. Unlisted pages
// are left out.
func Generate(set *content.Set) []Node {
	return generateLevel(set, "")
}

type levelEntry struct {
	position int
	title    string
	index    bool
	node     Node
}

func generateLevel(set *content.Set, section string) []Node {
	var entries []levelEntry
	covered := make(map[string]bool)

	for _, page := range set.InSection(section) {
		if page.Unlisted {
			continue
		}
		if page.IsIndex && page.ID != "index" {
			// Index of a child section: becomes that section's
			// category node at this level.
			covered[page.ID] = true
			entries = append(entries, levelEntry{
				position: page.Position,
				title:    page.Label(),
				node: Node{
					Type:  NodeCategory,
					Label: page.Label(),
					ID:    page.ID,
					Items: generateLevel(set, page.ID),
				},
			})
			continue
		}
		entries = append(entries, levelEntry{
			position: page.Position,
			title:    page.Label(),
			index:    page.IsIndex,
			node:     Node{Type: NodeDoc, ID: page.ID},
		})
	}

	// Child directories without an index page still become categories,
	// labeled from their directory name.
	for _, child := range set.ChildSections(section) {
		if covered[child] {
			continue
		}
		items := generateLevel(set, child)
		if len(items) == 0 {
			continue
		}
		label := slug.Humanize(path.Base(child))
		entries = append(entries, levelEntry{
			position: content.PositionUnset,
			title:    label,
			node: Node{
				Type:  NodeCategory,
				Label: label,
				Items: items,
			},
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.index != b.index {
			return a.index
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return strings.ToLower(a.title) < strings.ToLower(b.title)
	})

	nodes := make([]Node, len(entries))
	for i, e := range entries {
		nodes[i] = e.node
	}
	return nodes
}
