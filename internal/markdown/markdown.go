// Package markdown renders page bodies to HTML, rewriting
// document-relative links onto site routes along the way.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/notesite/internal/content"
)

// Renderer converts Markdown bodies to HTML. Instances are not safe
// for concurrent use; create one per render worker.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the site renderer: GFM tables/strikethrough/task
// lists, automatic heading anchors, and raw HTML passed through
// (documentation pages routinely embed HTML snippets).
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Result is the rendered form of one page.
type Result struct {
	HTML []byte
	TOC  []content.Heading
	// Broken lists Markdown links whose target file is not part of the
	// content set.
	Broken []BrokenLink
}

// BrokenLink is a Markdown link that failed to resolve at render time.
type BrokenLink struct {
	Page        string
	Destination string
	Kind        LinkKind
}

// Render parses the page body, rewrites relative .md and image links
// onto their routes, collects the table of contents, and renders HTML.
// Unresolvable relative links are reported, not failed, so one stage
// can decide severity for the whole build.
func (r *Renderer) Render(page *content.Page, resolver *content.Resolver) (*Result, error) {
	source := page.Body
	ctx := parser.NewContext()
	root := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	res := &Result{}
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			dest := string(node.Destination)
			if rewritten, broken := r.rewriteLink(page, resolver, dest); broken != nil {
				res.Broken = append(res.Broken, *broken)
			} else if rewritten != dest {
				node.Destination = []byte(rewritten)
			}
		case *gmast.Image:
			dest := string(node.Destination)
			if rewritten, broken := r.rewriteImage(page, resolver, dest); broken != nil {
				res.Broken = append(res.Broken, *broken)
			} else if rewritten != dest {
				node.Destination = []byte(rewritten)
			}
		case *gmast.Heading:
			if node.Level >= 2 && node.Level <= 3 {
				anchor := ""
				if id, ok := node.AttributeString("id"); ok {
					if b, isBytes := id.([]byte); isBytes {
						anchor = string(b)
					}
				}
				res.TOC = append(res.TOC, content.Heading{
					Level:  node.Level,
					Text:   textOf(node, source),
					Anchor: anchor,
				})
			}
		}
		return gmast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, root); err != nil {
		return nil, err
	}
	res.HTML = buf.Bytes()
	return res, nil
}

// rewriteLink maps a Markdown document link onto the target page's
// permalink. External URLs, anchors and non-Markdown targets pass
// through untouched.
func (r *Renderer) rewriteLink(page *content.Page, resolver *content.Resolver, dest string) (string, *BrokenLink) {
	if dest == "" || isExternal(dest) || strings.HasPrefix(dest, "#") {
		return dest, nil
	}
	if !hasMarkdownExt(dest) {
		return dest, nil
	}

	target, fragment, ok := resolver.Page(page.RelPath, dest)
	if !ok {
		return dest, &BrokenLink{Page: page.ID, Destination: dest, Kind: LinkKindInline}
	}
	return target.Permalink + fragment, nil
}

// rewriteImage maps a relative image reference onto its emitted asset
// route.
func (r *Renderer) rewriteImage(page *content.Page, resolver *content.Resolver, dest string) (string, *BrokenLink) {
	if dest == "" || isExternal(dest) || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return dest, nil
	}

	asset, ok := resolver.Asset(page.RelPath, dest)
	if !ok {
		return dest, &BrokenLink{Page: page.ID, Destination: dest, Kind: LinkKindImage}
	}
	return asset.Route, nil
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "//") || schemePattern.MatchString(dest)
}

func hasMarkdownExt(dest string) bool {
	p, _ := splitFragment(dest)
	lower := strings.ToLower(p)
	for _, ext := range []string{".md", ".markdown", ".mdown", ".mkd"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func splitFragment(dest string) (string, string) {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}

// textOf flattens the visible text of an inline subtree.
func textOf(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
		case *gmast.String:
			b.Write(t.Value)
		default:
			b.WriteString(textOf(c, source))
		}
	}
	return b.String()
}
