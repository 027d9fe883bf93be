// Package frontmatter parses and rewrites YAML front-matter on Markdown
// documents without disturbing the rest of the file.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnterminated indicates a document that opens a front-matter block
	// but never closes it.
	ErrUnterminated = errors.New("front matter opened with --- but closing delimiter is missing")

	// ErrNotMapping indicates front-matter YAML whose top level is not a
	// key/value mapping.
	ErrNotMapping = errors.New("front matter must be a YAML mapping")
)

// Style captures the formatting details needed to rewrite a document
// without churning its diff: the newline convention and whether the file
// ended with a newline. Original YAML formatting is not preserved.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Doc is a Markdown document split into parsed front-matter and body.
type Doc struct {
	// Fields holds the parsed front-matter mapping. Never nil, even when
	// the document had no front-matter block.
	Fields map[string]any

	// Body is everything after the closing delimiter, or the whole input
	// when no front-matter was present.
	Body []byte

	// Present reports whether the document carried a front-matter block.
	// An empty block (`---\n---\n`) still counts as present.
	Present bool

	// Style is the detected formatting of the source document.
	Style Style
}

// Parse splits content into front-matter and body and decodes the YAML.
//
// A document participates in front-matter only if it begins with `---`
// on its own line. Anything else, including a leading blank line, is
// treated as plain body.
func Parse(content []byte) (*Doc, error) {
	raw, body, present, style, err := split(content)
	if err != nil {
		return nil, err
	}

	doc := &Doc{
		Fields:  map[string]any{},
		Body:    body,
		Present: present,
		Style:   style,
	}
	if len(raw) == 0 {
		return doc, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrNotMapping, err)
		}
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if fields != nil {
		doc.Fields = fields
	}
	return doc, nil
}

// Encode reassembles the document. Front-matter keys are emitted in
// sorted order (recursively) so repeated rewrites are byte-stable, and
// the body is appended untouched in the document's original newline
// style. A document without front-matter round-trips to its body.
func Encode(doc *Doc) ([]byte, error) {
	if !doc.Present && len(doc.Fields) == 0 {
		return doc.Body, nil
	}

	raw, err := encodeFields(doc.Fields, doc.Style)
	if err != nil {
		return nil, err
	}
	return join(raw, doc.Body, doc.Style), nil
}

func split(content []byte) (raw, body []byte, present bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	rest := content[len(open):]

	// An immediately closed block means empty front-matter.
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], true, style, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, style, ErrUnterminated
	}

	raw = rest[: idx+len(nl) : idx+len(nl)]
	body = rest[idx+len(closing):]
	return raw, body, true, style, nil
}

func join(raw, body []byte, style Style) []byte {
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(raw)+len(body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	out = append(out, body...)
	return out
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		if i > 0 && content[i-1] == '\r' {
			newline = "\r\n"
		}
		break
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
