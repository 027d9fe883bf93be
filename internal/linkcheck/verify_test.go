package linkcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOut(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestVerifyDir_ResolvesCleanURLsAndFiles(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "index.html", `<!doctype html>
<html><head>
<link rel="stylesheet" href="/assets/css/main.css">
</head><body>
<a href="/docs/intro/">intro</a>
<a href="/docs/intro/#install">fragment</a>
<a href="https://example.com/">external</a>
<a href="mailto:docs@example.com">mail</a>
<a href="#top">same page</a>
<img src="/docs/pixel.png">
</body></html>`)
	writeOut(t, root, "docs/intro/index.html", `<html><body><a href="../">up</a><a href="/">home</a></body></html>`)
	writeOut(t, root, "docs/index.html", "<html></html>")
	writeOut(t, root, "docs/pixel.png", "png")
	writeOut(t, root, "assets/css/main.css", "body{}")

	findings, err := VerifyDir(root, "/")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestVerifyDir_FlagsMissingTargets(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "index.html", `<html><body>
<a href="/docs/gone/">gone</a>
<img src="missing.png">
</body></html>`)

	findings, err := VerifyDir(root, "/")
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, "index.html", findings[0].File)
	assert.Equal(t, "/docs/gone/", findings[0].URL)
	assert.Equal(t, "a", findings[0].Tag)
	assert.Equal(t, 2, findings[0].Line)

	assert.Equal(t, "missing.png", findings[1].URL)
	assert.Equal(t, "img", findings[1].Tag)
	assert.Equal(t, 3, findings[1].Line)
}

func TestVerifyDir_RelativeReferencesResolveFromFile(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "docs/a/index.html", `<html><body>
<a href="../b/">sibling</a>
<a href="../missing/">missing sibling</a>
</body></html>`)
	writeOut(t, root, "docs/b/index.html", "<html></html>")

	findings, err := VerifyDir(root, "/")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "docs/a/index.html", findings[0].File)
	assert.Equal(t, "../missing/", findings[0].URL)
}

func TestVerifyDir_BaseURLPrefix(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "index.html", `<html><body>
<a href="/notes/docs/intro/">ok</a>
<a href="/docs/intro/">outside base</a>
</body></html>`)
	writeOut(t, root, "docs/intro/index.html", "<html></html>")

	findings, err := VerifyDir(root, "/notes/")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "/docs/intro/", findings[0].URL)
}

func TestExtractRefs_TracksTagsAndLines(t *testing.T) {
	doc := []byte(`<html>
<head><script src="/assets/js/theme.js"></script></head>
<body>
<a href="/docs/">docs</a>
<source src="/media/clip.webm">
</body></html>`)

	refs := ExtractRefs(doc)
	require.Len(t, refs, 3)
	assert.Equal(t, Ref{URL: "/assets/js/theme.js", Tag: "script", Line: 2}, refs[0])
	assert.Equal(t, Ref{URL: "/docs/", Tag: "a", Line: 4}, refs[1])
	assert.Equal(t, Ref{URL: "/media/clip.webm", Tag: "source", Line: 5}, refs[2])
}

func TestIsExternal(t *testing.T) {
	assert.True(t, IsExternal("https://example.com"))
	assert.True(t, IsExternal("//cdn.example.com/lib.js"))
	assert.True(t, IsExternal("mailto:a@b.c"))
	assert.False(t, IsExternal("/docs/intro/"))
	assert.False(t, IsExternal("../up/"))
}
