package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/retry"
)

// fastRetry keeps transient-failure tests quick.
func fastRetry(maxRetries int) retry.Policy {
	return retry.Policy{Backoff: retry.BackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: maxRetries}
}

func TestChecker_FallsBackToGETWhenHeadRejected(t *testing.T) {
	var headCalls, getCalls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			headCalls.Add(1)
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			getCalls.Add(1)
			_, _ = w.Write([]byte("ok"))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("5s", 2, nil)
	results, err := c.Check(context.Background(), []External{{URL: srv.URL + "/page"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].OK)
	assert.Equal(t, http.StatusOK, results[0].Status)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, int64(1), headCalls.Load())
	assert.Equal(t, int64(1), getCalls.Load())
}

func TestChecker_ReportsBrokenLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("5s", 2, nil)
	results, err := c.Check(context.Background(), []External{{URL: srv.URL + "/gone"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].OK)
	assert.Equal(t, http.StatusNotFound, results[0].Status)
	assert.Equal(t, "HTTP 404", results[0].Error)
	assert.False(t, results[0].CheckedAt.IsZero())
}

func TestChecker_AuthWallsAndRateLimitsAreReachable(t *testing.T) {
	for _, status := range []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusTooManyRequests,
	} {
		var getCalls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				getCalls.Add(1)
			}
			w.WriteHeader(status)
		}))

		c := NewChecker("5s", 2, nil)
		results, err := c.Check(context.Background(), []External{{URL: srv.URL}})
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.True(t, results[0].OK, "status %d should count as reachable", status)
		assert.Equal(t, status, results[0].Status)
		assert.Equal(t, int64(0), getCalls.Load(), "status %d should not trigger the GET fallback", status)
		srv.Close()
	}
}

func TestChecker_UsesCachedResults(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	url := srv.URL + "/cached"
	cache := NewMemoryCache(time.Hour, time.Minute)
	cache.Put(context.Background(), CheckResult{URL: url, OK: true, Status: 200, CheckedAt: time.Now()})

	c := NewChecker("5s", 2, cache)
	results, err := c.Check(context.Background(), []External{{URL: url}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].OK)
	assert.Equal(t, int64(0), hits.Load())
}

func TestChecker_ConnectionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewChecker("1s", 2, nil).SetRetryPolicy(fastRetry(0))
	results, err := c.Check(context.Background(), []External{{URL: url}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].OK)
	assert.Zero(t, results[0].Status)
	assert.NotEmpty(t, results[0].Error)
}

func TestChecker_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("5s", 1, nil).SetRetryPolicy(fastRetry(2))
	results, err := c.Check(context.Background(), []External{{URL: srv.URL}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].OK, "the link recovered within the retry budget")
	assert.Equal(t, http.StatusOK, results[0].Status)
}

func TestChecker_DoesNotRetryHardFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("5s", 1, nil).SetRetryPolicy(fastRetry(3))
	results, err := c.Check(context.Background(), []External{{URL: srv.URL}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].OK)
	assert.Equal(t, int64(2), calls.Load(), "one HEAD and one GET, no retries for a definitive 404")
}

func TestChecker_SendsUserAgent(t *testing.T) {
	got := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("5s", 1, nil)
	_, err := c.Check(context.Background(), []External{{URL: srv.URL}})
	require.NoError(t, err)

	assert.Equal(t, userAgent, <-got)
}

func TestMemoryCache_TTLEnforcedOnRead(t *testing.T) {
	cache := NewMemoryCache(time.Hour, time.Minute)
	ctx := context.Background()
	now := time.Now()

	cache.Put(ctx, CheckResult{URL: "https://fresh.test", OK: true, CheckedAt: now.Add(-30 * time.Minute)})
	cache.Put(ctx, CheckResult{URL: "https://stale.test", OK: true, CheckedAt: now.Add(-2 * time.Hour)})
	cache.Put(ctx, CheckResult{URL: "https://fail-fresh.test", OK: false, CheckedAt: now.Add(-30 * time.Second)})
	cache.Put(ctx, CheckResult{URL: "https://fail-stale.test", OK: false, CheckedAt: now.Add(-30 * time.Minute)})

	_, ok := cache.Get(ctx, "https://fresh.test")
	assert.True(t, ok, "success within TTL should hit")
	_, ok = cache.Get(ctx, "https://stale.test")
	assert.False(t, ok, "success past TTL should miss")
	_, ok = cache.Get(ctx, "https://fail-fresh.test")
	assert.True(t, ok, "failure within failure TTL should hit")
	_, ok = cache.Get(ctx, "https://fail-stale.test")
	assert.False(t, ok, "failure past failure TTL should miss")
	_, ok = cache.Get(ctx, "https://never-seen.test")
	assert.False(t, ok)
}

func TestCollectExternal_GroupsURLsBySource(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "a.html", `<html><body>
<a href="https://example.test/shared">one</a>
<a href="https://example.test/shared">again</a>
<a href="http://plain.test/">plain</a>
<a href="/internal/">internal</a>
<a href="mailto:team@example.test">mail</a>
<a href="//cdn.example.test/lib.js">scheme relative</a>
</body></html>`)
	writeOut(t, root, "b/index.html", `<html><body>
<a href="https://example.test/shared">shared too</a>
</body></html>`)

	refs, err := CollectExternal(root)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "http://plain.test/", refs[0].URL)
	assert.Equal(t, []string{"a.html"}, refs[0].Sources)
	assert.Equal(t, "https://example.test/shared", refs[1].URL)
	assert.Equal(t, []string{"a.html", "b/index.html"}, refs[1].Sources)
}

func TestCollectExternal_EmptySite(t *testing.T) {
	root := t.TempDir()
	writeOut(t, root, "index.html", `<html><body><a href="docs/">local only</a></body></html>`)

	refs, err := CollectExternal(root)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestCollectExternal_MissingRoot(t *testing.T) {
	_, err := CollectExternal(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestCacheKeyIsLegalAndStable(t *testing.T) {
	a := cacheKey("https://example.test/page?q=1")
	b := cacheKey("https://example.test/page?q=1")
	c := cacheKey("https://example.test/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	assert.NotContains(t, a, ":")
	assert.NotContains(t, a, "/")
}

func TestChecker_DefaultsApplied(t *testing.T) {
	c := NewChecker("", 0, nil)
	require.NotNil(t, c.cache)
	assert.Equal(t, defaultParallelism, c.limit)
	assert.Equal(t, defaultTimeout, c.client.Timeout)

	c = NewChecker("bogus", -1, nil)
	assert.Equal(t, defaultTimeout, c.client.Timeout)
	assert.Equal(t, defaultParallelism, c.limit)
}

func TestChecker_CachesProbeResults(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	cache := NewMemoryCache(time.Hour, time.Minute)
	c := NewChecker("5s", 2, cache)
	refs := []External{{URL: srv.URL}}

	_, err := c.Check(context.Background(), refs)
	require.NoError(t, err)
	first := hits.Load()
	require.Positive(t, first)

	_, err = c.Check(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, first, hits.Load(), "second run should be served from cache")
}

func TestProbeable(t *testing.T) {
	assert.True(t, probeable("https://example.test"))
	assert.True(t, probeable("http://example.test"))
	assert.False(t, probeable("//example.test/lib.js"))
	assert.False(t, probeable("mailto:x@example.test"))
	assert.False(t, probeable("docs/intro/"))
	assert.False(t, probeable("/docs/"))
}
