package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
	"git.home.luguber.info/inful/notesite/internal/metrics"
)

func adminTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	s := New(opts)
	s.started = time.Now()
	srv := httptest.NewServer(s.adminHandler())
	t.Cleanup(srv.Close)
	return srv
}

func seedStore(t *testing.T) *buildstore.Store {
	t.Helper()
	store, err := buildstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []buildstore.Record{
		{
			ID: "aaaa1111-0000-0000-0000-000000000000", Outcome: "success",
			StartedAt: base, FinishedAt: base.Add(2 * time.Second),
			Pages: 10, Assets: 3, Report: []byte(`{"build_id":"aaaa1111"}`),
		},
		{
			ID: "bbbb2222-0000-0000-0000-000000000000", Outcome: "failed",
			StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second),
			Warnings: 1, BrokenLinks: 4,
		},
	}
	for i := range records {
		require.NoError(t, store.Save(context.Background(), &records[i]))
	}
	return store
}

func TestAdmin_Health(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir()})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.NotEmpty(t, health.Version)
}

func TestAdmin_Readiness(t *testing.T) {
	root := t.TempDir()
	srv := adminTestServer(t, Options{Dir: root})

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0o644))

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdmin_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.SetPagesRendered(7)

	srv := adminTestServer(t, Options{
		Dir:            t.TempDir(),
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
		Registry:       reg,
	})

	status, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "notesite_pages_rendered")
}

func TestAdmin_MetricsDisabled(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir()})

	status, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdmin_ListBuilds(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir(), Store: seedStore(t)})

	resp, err := http.Get(srv.URL + "/api/builds")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var builds []buildResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&builds))
	require.Len(t, builds, 2)
	// Most recent first, list entries never carry the report payload.
	assert.Equal(t, "failed", builds[0].Outcome)
	assert.Equal(t, 4, builds[0].BrokenLinks)
	assert.Equal(t, "success", builds[1].Outcome)
	assert.Empty(t, builds[1].Report)
	assert.Equal(t, int64(2000), builds[1].DurationMS)
}

func TestAdmin_ListBuildsLimit(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir(), Store: seedStore(t)})

	resp, err := http.Get(srv.URL + "/api/builds?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var builds []buildResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&builds))
	assert.Len(t, builds, 1)

	status, _ := get(t, srv.URL+"/api/builds?limit=zero")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdmin_GetBuildByPrefix(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir(), Store: seedStore(t)})

	resp, err := http.Get(srv.URL + "/api/builds/aaaa1111")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var build buildResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&build))
	assert.Equal(t, "aaaa1111-0000-0000-0000-000000000000", build.ID)
	assert.NotEmpty(t, build.Report)

	status, _ := get(t, srv.URL+"/api/builds/ffff")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdmin_BuildsUnavailableWithoutStore(t *testing.T) {
	srv := adminTestServer(t, Options{Dir: t.TempDir()})

	status, _ := get(t, srv.URL+"/api/builds")
	assert.Equal(t, http.StatusNotFound, status)
}
