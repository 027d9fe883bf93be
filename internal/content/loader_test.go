package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/config"
)

func testConfig(t *testing.T, docsDir string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("site:\n  title: Test\ndocs:\n  dir: " + docsDir + "\n"))
	require.NoError(t, err)
	return cfg
}

func writeDoc(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLoad_BuildsIDsAndPermalinks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "intro.md", "---\ntitle: Intro\nsidebar_position: 1\n---\nHello.\n")
	writeDoc(t, dir, "guides/setup.md", "---\ntitle: Setup\n---\nSetup text.\n")
	writeDoc(t, dir, "guides/index.md", "# Guides\n\nOverview.\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)
	require.Len(t, set.Pages, 3)

	intro, ok := set.ByID("intro")
	require.True(t, ok)
	require.Equal(t, "Intro", intro.Title)
	require.Equal(t, 1, intro.Position)
	require.Equal(t, "/docs/intro/", intro.Permalink)
	require.Equal(t, "docs/intro/index.html", intro.OutputPath("/"))

	setup, ok := set.ByID("guides/setup")
	require.True(t, ok)
	require.Equal(t, "guides", setup.Section)
	require.Equal(t, "/docs/guides/setup/", setup.Permalink)

	guides, ok := set.ByID("guides")
	require.True(t, ok)
	require.True(t, guides.IsIndex)
	require.Equal(t, "", guides.Section)
	require.Equal(t, "Guides", guides.Title)
	require.Equal(t, "/docs/guides/", guides.Permalink)
}

func TestLoad_OrderPrefixesDrivePositionAndSlug(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "03-advanced.md", "Advanced.\n")
	writeDoc(t, dir, "01-first-steps.md", "First.\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	adv, ok := set.ByID("advanced")
	require.True(t, ok)
	require.Equal(t, 3, adv.Position)
	require.Equal(t, "/docs/advanced/", adv.Permalink)
	require.Equal(t, "Advanced", adv.Title)

	ordered := set.InSection("")
	require.Equal(t, "first-steps", ordered[0].ID)
	require.Equal(t, "advanced", ordered[1].ID)
}

func TestLoad_FrontMatterPositionBeatsPrefix(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "05-page.md", "---\nsidebar_position: 1\n---\nBody.\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	page, ok := set.ByID("page")
	require.True(t, ok)
	require.Equal(t, 1, page.Position)
}

func TestLoad_TitleFallsBackToH1ThenFileName(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "with-h1.md", "# From Heading\n\nBody.\n")
	writeDoc(t, dir, "bare-notes.md", "Just text.\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	h1, _ := set.ByID("with-h1")
	require.Equal(t, "From Heading", h1.Title)
	require.NotContains(t, string(h1.Body), "# From Heading")

	bare, _ := set.ByID("bare-notes")
	require.Equal(t, "Bare Notes", bare.Title)
}

func TestLoad_DuplicateIDs_Fail(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guides.md", "A.\n")
	writeDoc(t, dir, "guides/index.md", "B.\n")

	_, err := NewLoader(testConfig(t, dir)).Load()
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestLoad_SkipsHiddenAndCollectsAssets(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "intro.md", "Hi.\n")
	writeDoc(t, dir, ".hidden.md", "nope\n")
	writeDoc(t, dir, ".obsidian/cache.md", "nope\n")
	writeDoc(t, dir, "img/diagram.png", "\x89PNG")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)
	require.Len(t, set.Pages, 1)
	require.Len(t, set.Assets, 1)
	require.Equal(t, "img/diagram.png", set.Assets[0].RelPath)
	require.Equal(t, "/docs/img/diagram.png", set.Assets[0].Route)
}

func TestLoad_DraftAndScheduledFlags(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "draft.md", "---\ndraft: true\n---\nWIP.\n")
	writeDoc(t, dir, "future.md", "---\ndate: 2099-01-01\n---\nLater.\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	draft, _ := set.ByID("draft")
	require.True(t, draft.Draft)

	future, _ := set.ByID("future")
	require.True(t, future.Scheduled(time.Now()))
	require.False(t, future.Scheduled(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoad_EmptyFileStillBecomesPage(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "empty.md", "")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	page, ok := set.ByID("empty")
	require.True(t, ok)
	require.Empty(t, page.Body)
	require.Equal(t, "Empty", page.Title)
}

func TestLoad_MissingDocsDir_Fails(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing"))
	_, err := NewLoader(cfg).Load()
	require.ErrorIs(t, err, ErrDocsDirMissing)
}

func TestLoad_BadFrontMatter_NamesFile(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "broken.md", "---\ntitle: x\nno closing\n")

	_, err := NewLoader(testConfig(t, dir)).Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.md")
}

func TestChildSections(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a/one.md", "x\n")
	writeDoc(t, dir, "a/b/two.md", "x\n")
	writeDoc(t, dir, "c/three.md", "x\n")

	set, err := NewLoader(testConfig(t, dir)).Load()
	require.NoError(t, err)

	require.Equal(t, []string{"a", "c"}, set.ChildSections(""))
	require.Equal(t, []string{"a/b"}, set.ChildSections("a"))
}
