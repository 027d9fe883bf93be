// Package linkcheck validates the references a built site makes: the
// verify pass resolves internal links against the emitted files, the
// checker probes external URLs over HTTP.
package linkcheck

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/notesite/internal/util/sets"
)

// Finding is one reference that does not resolve to an emitted file.
type Finding struct {
	// File is the emitted HTML file holding the reference, relative to
	// the site root.
	File string `json:"file"`
	URL  string `json:"url"`
	Tag  string `json:"tag"`
	Line int    `json:"line"`
}

// Ref is a raw reference extracted from an HTML document.
type Ref struct {
	URL  string
	Tag  string
	Line int
}

// refAttrs maps the tags scanned to the attribute carrying the
// reference.
var refAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
	"source": "src",
}

// VerifyDir walks every HTML file under root and reports internal
// references that resolve to nothing the build emitted. External URLs
// are not probed here; see Checker.
func VerifyDir(root, baseURL string) ([]Finding, error) {
	emitted, htmlFiles, err := collectFiles(root)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, rel := range htmlFiles {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		for _, ref := range ExtractRefs(data) {
			if !resolves(ref.URL, rel, baseURL, emitted) {
				findings = append(findings, Finding{File: rel, URL: ref.URL, Tag: ref.Tag, Line: ref.Line})
			}
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	return findings, nil
}

// collectFiles walks root once, returning the set of emitted files
// (slash-separated relative paths) and the HTML files to scan.
func collectFiles(root string) (sets.Set[string], []string, error) {
	emitted := sets.New[string]()
	var htmlFiles []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		emitted.Add(rel)
		if strings.HasSuffix(rel, ".html") {
			htmlFiles = append(htmlFiles, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk output: %w", err)
	}
	sort.Strings(htmlFiles)
	return emitted, htmlFiles, nil
}

// ExtractRefs tokenizes an HTML document and returns every a, img,
// script, link and source reference with its line number.
func ExtractRefs(doc []byte) []Ref {
	var refs []Ref
	line := 1
	tz := html.NewTokenizer(bytes.NewReader(doc))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			return refs
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			token := tz.Token()
			if attr, ok := refAttrs[token.Data]; ok {
				for _, a := range token.Attr {
					if a.Key == attr && a.Val != "" {
						refs = append(refs, Ref{URL: a.Val, Tag: token.Data, Line: line})
					}
				}
			}
		}
		line += bytes.Count(tz.Raw(), []byte("\n"))
	}
}

// IsExternal reports whether a URL leaves the site: explicit scheme,
// protocol-relative, or a non-navigational scheme like mailto.
func IsExternal(url string) bool {
	if strings.HasPrefix(url, "//") {
		return true
	}
	for _, scheme := range []string{"http://", "https://", "mailto:", "tel:", "data:", "javascript:"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// resolves decides whether one reference points at an emitted file.
func resolves(url, fromRel, baseURL string, emitted sets.Set[string]) bool {
	if IsExternal(url) {
		return true // external URLs are the Checker's concern
	}
	if strings.HasPrefix(url, "#") {
		return true // same-document fragment
	}

	clean := url
	if i := strings.IndexAny(clean, "#?"); i >= 0 {
		clean = clean[:i]
	}
	if clean == "" {
		return true
	}

	var target string
	if strings.HasPrefix(clean, "/") {
		// Site-absolute references must live under the base URL.
		if !strings.HasPrefix(clean, baseURL) {
			return false
		}
		target = strings.TrimPrefix(clean, baseURL)
	} else {
		target = path.Join(path.Dir(fromRel), clean)
	}
	target = strings.TrimPrefix(path.Clean("/"+target), "/")

	// "/" and directory routes serve their index.html.
	if target == "" || target == "." {
		return emitted.Has("index.html")
	}
	if emitted.Has(target) {
		return true
	}
	return emitted.Has(target + "/index.html")
}
