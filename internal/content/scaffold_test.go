package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
	"git.home.luguber.info/inful/notesite/internal/frontmatterops"
)

func parseDoc(t *testing.T, path string) *frontmatter.Doc {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := frontmatter.Parse(data)
	require.NoError(t, err)
	require.True(t, doc.Present)
	return doc
}

func TestCreateDoc_DerivesTitleFromID(t *testing.T) {
	docs := t.TempDir()

	path, err := CreateDoc(docs, "guides/01-setup", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(docs, "guides", "01-setup.md"), path)

	doc := parseDoc(t, path)
	assert.Equal(t, "Setup", doc.Fields["title"])
}

func TestCreateDoc_ExplicitTitleAndSuffix(t *testing.T) {
	docs := t.TempDir()

	path, err := CreateDoc(docs, "intro.md", "Getting Started")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(docs, "intro.md"), path)

	doc := parseDoc(t, path)
	assert.Equal(t, "Getting Started", doc.Fields["title"])
}

func TestCreateDoc_SlotsAfterSiblings(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "existing.md"),
		[]byte("---\ntitle: Existing\nsidebar_position: 5\n---\nbody\n"), 0o644))

	path, err := CreateDoc(docs, "next", "")
	require.NoError(t, err)

	doc := parseDoc(t, path)
	assert.Equal(t, 6, doc.Fields["sidebar_position"])
}

func TestCreateDoc_FirstInSection(t *testing.T) {
	docs := t.TempDir()

	path, err := CreateDoc(docs, "fresh/start", "")
	require.NoError(t, err)

	doc := parseDoc(t, path)
	assert.Equal(t, 1, doc.Fields["sidebar_position"])
}

func TestCreateDoc_ExistingTarget(t *testing.T) {
	docs := t.TempDir()

	_, err := CreateDoc(docs, "intro", "")
	require.NoError(t, err)

	_, err = CreateDoc(docs, "intro", "")
	require.ErrorIs(t, err, ErrDocExists)
}

func TestCreateDoc_RejectsBadIDs(t *testing.T) {
	docs := t.TempDir()

	for _, id := range []string{"", ".", "..", "../escape", `a\b`} {
		_, err := CreateDoc(docs, id, "")
		assert.Error(t, err, "id %q", id)
	}
}

func TestCreateDoc_FieldsComplete(t *testing.T) {
	docs := t.TempDir()

	path, err := CreateDoc(docs, "complete", "")
	require.NoError(t, err)
	doc := parseDoc(t, path)

	uid, ok := doc.Fields["uid"].(string)
	require.True(t, ok, "uid must be a string")
	_, err = uuid.Parse(uid)
	assert.NoError(t, err, "uid must be a valid UUID")

	current, err := frontmatterops.FingerprintCurrent(doc.Fields, doc.Body)
	require.NoError(t, err)
	assert.True(t, current, "a fresh document starts with a current fingerprint")
	assert.NotEmpty(t, doc.Fields["lastmod"])
}
