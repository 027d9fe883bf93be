package serve

import (
	"net/http"
	"os"
	"path/filepath"
)

// SiteHandler serves a built site directory. Clean URLs come from the
// file server itself (directory requests fall through to index.html);
// the handler's own job is substituting the site's 404 page for the
// file server's plain-text one.
func SiteHandler(root string) http.Handler {
	return &siteHandler{
		root: root,
		fs:   http.FileServer(http.Dir(root)),
	}
}

type siteHandler struct {
	root string
	fs   http.Handler
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &notFoundInterceptor{ResponseWriter: w}
	h.fs.ServeHTTP(rec, r)
	if rec.suppressed {
		h.serveNotFound(w, r)
	}
}

func (h *siteHandler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	page := filepath.Join(h.root, "404.html")
	data, err := os.ReadFile(page)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

// notFoundInterceptor passes responses through untouched unless the
// wrapped handler answers 404, in which case the whole response is
// swallowed so the caller can render its own page.
type notFoundInterceptor struct {
	http.ResponseWriter
	suppressed bool
	header     bool
}

func (n *notFoundInterceptor) WriteHeader(code int) {
	if n.header {
		return
	}
	n.header = true
	if code == http.StatusNotFound {
		n.suppressed = true
		return
	}
	n.ResponseWriter.WriteHeader(code)
}

func (n *notFoundInterceptor) Write(b []byte) (int, error) {
	if !n.header {
		n.WriteHeader(http.StatusOK)
	}
	if n.suppressed {
		return len(b), nil
	}
	return n.ResponseWriter.Write(b)
}
