package serve

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSiteFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestSiteHandler_ServesBuiltSite(t *testing.T) {
	root := t.TempDir()
	writeSiteFile(t, root, "index.html", "<html>home</html>")
	writeSiteFile(t, root, "docs/intro/index.html", "<html>intro</html>")
	writeSiteFile(t, root, "assets/css/main.css", "body{}")

	srv := httptest.NewServer(SiteHandler(root))
	defer srv.Close()

	status, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "home")

	status, body = get(t, srv.URL+"/docs/intro/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "intro")

	// Directory requests without the slash redirect to the clean URL.
	status, body = get(t, srv.URL+"/docs/intro")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "intro")

	status, _ = get(t, srv.URL+"/assets/css/main.css")
	assert.Equal(t, http.StatusOK, status)
}

func TestSiteHandler_CustomNotFoundPage(t *testing.T) {
	root := t.TempDir()
	writeSiteFile(t, root, "index.html", "<html>home</html>")
	writeSiteFile(t, root, "404.html", "<html>not here</html>")

	srv := httptest.NewServer(SiteHandler(root))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/missing/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not here")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestSiteHandler_DefaultNotFound(t *testing.T) {
	root := t.TempDir()
	writeSiteFile(t, root, "index.html", "<html>home</html>")

	srv := httptest.NewServer(SiteHandler(root))
	defer srv.Close()

	status, body := get(t, srv.URL+"/missing/")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "404")
}
