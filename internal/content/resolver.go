package content

import (
	"net/url"
	"path"
	"strings"
)

// Resolver maps document-relative link targets back onto loaded pages
// and assets, so Markdown links keep working after files move into
// their routed locations.
type Resolver struct {
	pagesByRel  map[string]*Page
	assetsByRel map[string]Asset
}

// Resolver builds a resolver over the set.
func (s *Set) Resolver() *Resolver {
	r := &Resolver{
		pagesByRel:  make(map[string]*Page, len(s.Pages)),
		assetsByRel: make(map[string]Asset, len(s.Assets)),
	}
	for _, p := range s.Pages {
		r.pagesByRel[p.RelPath] = p
	}
	for _, a := range s.Assets {
		r.assetsByRel[a.RelPath] = a
	}
	return r
}

// Page resolves a Markdown link target ("../guides/setup.md#config")
// relative to the linking document. The fragment is returned separately
// so callers can reattach it to the permalink.
func (r *Resolver) Page(fromRel, target string) (page *Page, fragment string, ok bool) {
	clean, fragment := r.normalize(fromRel, target)
	if clean == "" {
		return nil, "", false
	}
	page, ok = r.pagesByRel[clean]
	return page, fragment, ok
}

// Asset resolves a relative image or file reference.
func (r *Resolver) Asset(fromRel, target string) (Asset, bool) {
	clean, _ := r.normalize(fromRel, target)
	if clean == "" {
		return Asset{}, false
	}
	a, ok := r.assetsByRel[clean]
	return a, ok
}

// normalize joins target onto the linking file's directory and cleans
// the result into a docs-relative path. Targets starting with "/" are
// taken as docs-root relative. Escapes like %20 are decoded first.
func (r *Resolver) normalize(fromRel, target string) (clean, fragment string) {
	target, fragment = splitFragment(target)
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	if target == "" {
		return "", fragment
	}

	if strings.HasPrefix(target, "/") {
		clean = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		clean = path.Clean(path.Join(path.Dir(fromRel), target))
	}
	if clean == "." || strings.HasPrefix(clean, "../") {
		return "", fragment
	}
	return clean, fragment
}

func splitFragment(target string) (string, string) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		return target[:i], target[i:]
	}
	return target, ""
}
