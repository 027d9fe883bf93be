package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/content"
)

func testResolver() (*content.Page, *content.Resolver) {
	page := &content.Page{
		ID:        "guides/intro",
		RelPath:   "guides/intro.md",
		Permalink: "/docs/guides/intro/",
	}
	set := &content.Set{
		Pages: []*content.Page{
			page,
			{ID: "guides/setup", RelPath: "guides/setup.md", Permalink: "/docs/guides/setup/"},
			{ID: "reference", RelPath: "reference/README.md", Permalink: "/docs/reference/"},
		},
		Assets: []content.Asset{
			{RelPath: "guides/img/arch.png", Route: "/docs/guides/img/arch.png"},
		},
	}
	return page, set.Resolver()
}

func TestRender_RewritesRelativeDocLinks(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("See [setup](./setup.md) and the [reference](../reference/README.md#intro).\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Empty(t, res.Broken)

	html := string(res.HTML)
	require.Contains(t, html, `href="/docs/guides/setup/"`)
	require.Contains(t, html, `href="/docs/reference/#intro"`)
	require.NotContains(t, html, ".md")
}

func TestRender_LeavesExternalAndAnchorLinksAlone(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("[ext](https://example.com/x.md) [anchor](#here) [mail](mailto:a@b.c)\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Empty(t, res.Broken)

	html := string(res.HTML)
	require.Contains(t, html, `href="https://example.com/x.md"`)
	require.Contains(t, html, `href="#here"`)
	require.Contains(t, html, `href="mailto:a@b.c"`)
}

func TestRender_ReportsBrokenDocLinks(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("[gone](./missing.md)\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Len(t, res.Broken, 1)
	require.Equal(t, "guides/intro", res.Broken[0].Page)
	require.Equal(t, "./missing.md", res.Broken[0].Destination)
	require.Equal(t, LinkKindInline, res.Broken[0].Kind)
}

func TestRender_RewritesRelativeImages(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("![arch](img/arch.png) ![missing](img/nope.png)\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)

	require.Contains(t, string(res.HTML), `src="/docs/guides/img/arch.png"`)
	require.Len(t, res.Broken, 1)
	require.Equal(t, LinkKindImage, res.Broken[0].Kind)
}

func TestRender_DoesNotTouchCodeBlocks(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("```\n[not a link](./setup.md)\n```\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Empty(t, res.Broken)
	require.Contains(t, string(res.HTML), "[not a link](./setup.md)")
}

func TestRender_CollectsTOCWithAnchors(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("## First Part\n\ntext\n\n### Detail\n\n## Second Part\n\n#### Too Deep\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)

	require.Len(t, res.TOC, 3)
	require.Equal(t, content.Heading{Level: 2, Text: "First Part", Anchor: "first-part"}, res.TOC[0])
	require.Equal(t, 3, res.TOC[1].Level)
	require.Equal(t, "Second Part", res.TOC[2].Text)
}

func TestRender_GFMTables(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Contains(t, string(res.HTML), "<table>")
}

func TestRender_RawHTMLPassesThrough(t *testing.T) {
	page, resolver := testResolver()
	page.Body = []byte("<div class=\"note\">careful</div>\n")

	res, err := NewRenderer().Render(page, resolver)
	require.NoError(t, err)
	require.Contains(t, string(res.HTML), `<div class="note">careful</div>`)
}

func TestExtractLinks_CoversInlineImageAutoAndReference(t *testing.T) {
	body := []byte(`[a](./a.md)
![img](pic.png)
<https://auto.example.com>

[unused]: ./defined.md
`)

	links := ExtractLinks(body)

	var kinds []LinkKind
	var dests []string
	for _, l := range links {
		kinds = append(kinds, l.Kind)
		dests = append(dests, l.Destination)
	}
	require.Contains(t, dests, "./a.md")
	require.Contains(t, dests, "pic.png")
	require.Contains(t, dests, "https://auto.example.com")
	require.Contains(t, dests, "./defined.md")
	require.Contains(t, kinds, LinkKindReferenceDefinition)
}
