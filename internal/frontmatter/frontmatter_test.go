package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontMatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.Present)
	require.Empty(t, doc.Fields)
	require.Equal(t, input, doc.Body)
}

func TestParse_WithFrontMatter_SplitsFieldsAndBody(t *testing.T) {
	input := []byte("---\ntitle: Intro\nsidebar_position: 2\n---\n# Title\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, "Intro", doc.Fields["title"])
	require.Equal(t, 2, doc.Fields["sidebar_position"])
	require.Equal(t, []byte("# Title\n"), doc.Body)
}

func TestParse_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: Intro\n# Title\n"))
	require.ErrorIs(t, err, ErrUnterminated)
}

func TestParse_CRLF_PreservesNewlineStyle(t *testing.T) {
	input := []byte("---\r\ntitle: Intro\r\n---\r\n# Title\r\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, "Intro", doc.Fields["title"])
	require.Equal(t, "\r\n", doc.Style.Newline)
	require.Equal(t, []byte("# Title\r\n"), doc.Body)
}

func TestParse_EmptyBlock_PresentWithNoFields(t *testing.T) {
	doc, err := Parse([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Empty(t, doc.Fields)
	require.Equal(t, []byte("# Title\n"), doc.Body)
}

func TestParse_ScalarFrontMatter_ReturnsNotMapping(t *testing.T) {
	_, err := Parse([]byte("---\njust a string\n---\nbody\n"))
	require.ErrorIs(t, err, ErrNotMapping)
}

func TestEncode_RoundTrip_IsByteStable(t *testing.T) {
	input := []byte("---\ntitle: Intro\n---\n# Title\n")

	doc, err := Parse(input)
	require.NoError(t, err)

	first, err := Encode(doc)
	require.NoError(t, err)

	redoc, err := Parse(first)
	require.NoError(t, err)
	second, err := Encode(redoc)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEncode_NoFrontMatter_ReturnsBodyUnchanged(t *testing.T) {
	doc, err := Parse([]byte("plain body\n"))
	require.NoError(t, err)

	out, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, []byte("plain body\n"), out)
}

func TestEncode_AddedFieldOnPlainDoc_EmitsBlock(t *testing.T) {
	doc, err := Parse([]byte("body\n"))
	require.NoError(t, err)

	doc.Fields["uid"] = "abc"
	out, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, []byte("---\nuid: abc\n---\nbody\n"), out)
}

func TestEncode_SortsKeysRecursively(t *testing.T) {
	doc := &Doc{
		Fields: map[string]any{
			"zeta":  1,
			"alpha": map[string]any{"b": 2, "a": 1},
		},
		Body:    []byte("x\n"),
		Present: true,
		Style:   Style{Newline: "\n"},
	}

	out, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, "---\nalpha:\n  a: 1\n  b: 2\nzeta: 1\n---\nx\n", string(out))
}

func TestEncode_CRLF_AppliesNewlineStyle(t *testing.T) {
	input := []byte("---\r\ntitle: Intro\r\n---\r\nbody\r\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	out, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDocAccessors_CoerceExpectedTypes(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Intro\nsidebar_position: 3\ndraft: true\ndate: 2026-03-01\ntags:\n  - go\n  - notes\n---\nbody\n"))
	require.NoError(t, err)

	title, ok := doc.String("title")
	require.True(t, ok)
	require.Equal(t, "Intro", title)

	pos, ok := doc.Int("sidebar_position")
	require.True(t, ok)
	require.Equal(t, 3, pos)

	draft, ok := doc.Bool("draft")
	require.True(t, ok)
	require.True(t, draft)

	date, ok := doc.Time("date")
	require.True(t, ok)
	require.Equal(t, 2026, date.Year())
	require.Equal(t, time.March, date.Month())

	tags, ok := doc.Strings("tags")
	require.True(t, ok)
	require.Equal(t, []string{"go", "notes"}, tags)
}

func TestDocAccessors_MissingOrWrongType_ReportFalse(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: 42\n---\nbody\n"))
	require.NoError(t, err)

	_, ok := doc.String("title")
	require.False(t, ok)

	_, ok = doc.Int("missing")
	require.False(t, ok)

	_, ok = doc.Time("title")
	require.False(t, ok)
}
