package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/notesite/internal/retry"
	"git.home.luguber.info/inful/notesite/internal/util/sets"
)

const (
	userAgent = "notesite-linkcheck/1.0"

	defaultTimeout     = 10 * time.Second
	defaultParallelism = 8

	// Fallback TTLs when the caller does not configure a cache.
	defaultCacheTTL   = 24 * time.Hour
	defaultFailureTTL = time.Hour
)

// External is one outbound URL and the pages that reference it.
type External struct {
	URL     string
	Sources []string // site-relative HTML files, sorted
}

// CheckResult is the outcome of probing a single URL. It doubles as the
// cache entry format, so CheckedAt drives TTL decisions on read.
type CheckResult struct {
	URL       string    `json:"url"`
	OK        bool      `json:"ok"`
	Status    int       `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Cache stores probe results between runs. Implementations enforce
// their TTL on Get and swallow their own storage errors; a failed
// lookup is just a miss.
type Cache interface {
	Get(ctx context.Context, url string) (CheckResult, bool)
	Put(ctx context.Context, res CheckResult)
}

// MemoryCache is the default in-process Cache. Entries expire on read,
// failures sooner than successes so broken links get re-verified.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]CheckResult
	ttl        time.Duration
	failureTTL time.Duration
}

// NewMemoryCache returns an empty cache with the given TTLs. Zero or
// negative values fall back to the defaults.
func NewMemoryCache(ttl, failureTTL time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if failureTTL <= 0 {
		failureTTL = defaultFailureTTL
	}
	return &MemoryCache{
		entries:    make(map[string]CheckResult),
		ttl:        ttl,
		failureTTL: failureTTL,
	}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, url string) (CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res, ok := m.entries[url]
	if !ok {
		return CheckResult{}, false
	}
	ttl := m.ttl
	if !res.OK {
		ttl = m.failureTTL
	}
	if time.Since(res.CheckedAt) >= ttl {
		return CheckResult{}, false
	}
	return res, true
}

// Put implements Cache.
func (m *MemoryCache) Put(_ context.Context, res CheckResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[res.URL] = res
}

var _ Cache = (*MemoryCache)(nil)

// Checker probes external URLs over HTTP with bounded parallelism.
type Checker struct {
	client *http.Client
	cache  Cache
	limit  int
	retry  retry.Policy
}

// NewChecker builds a Checker from the check settings. A nil cache
// gets an in-memory one with default TTLs. The transport is cloned
// from the default so HTTP_PROXY and friends are respected.
func NewChecker(timeout string, parallelism int, cache Cache) *Checker {
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		d = defaultTimeout
	}
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	if cache == nil {
		cache = NewMemoryCache(defaultCacheTTL, defaultFailureTTL)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Checker{
		client: &http.Client{Timeout: d, Transport: transport},
		cache:  cache,
		limit:  parallelism,
		retry:  retry.Default(),
	}
}

// SetRetryPolicy replaces the transient-failure retry policy.
func (c *Checker) SetRetryPolicy(p retry.Policy) *Checker {
	c.retry = p
	return c
}

// Check probes every referenced URL, consulting the cache first. The
// returned slice is index-aligned with refs. A non-nil error means the
// context was canceled and the results are partial.
func (c *Checker) Check(ctx context.Context, refs []External) ([]CheckResult, error) {
	results := make([]CheckResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, ref := range refs {
		g.Go(func() error {
			if cached, ok := c.cache.Get(gctx, ref.URL); ok {
				results[i] = cached
				return nil
			}
			res := c.probe(gctx, ref.URL)
			c.cache.Put(gctx, res)
			results[i] = res
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// probe runs the HEAD/GET sequence, retrying transient outcomes per
// the policy. Transport errors and gateway failures often clear on
// their own; a 404 never does.
func (c *Checker) probe(ctx context.Context, rawURL string) CheckResult {
	var res CheckResult
	for attempt := 0; ; attempt++ {
		res = c.probeOnce(ctx, rawURL)
		if !transient(res) || attempt >= c.retry.MaxRetries {
			return res
		}
		if err := c.retry.Sleep(ctx, attempt+1); err != nil {
			return res
		}
	}
}

// probeOnce issues a HEAD request and falls back to GET when HEAD
// errors or returns 4xx/5xx. Some hosts refuse HEAD outright, so HEAD
// alone never condemns a link.
func (c *Checker) probeOnce(ctx context.Context, rawURL string) CheckResult {
	res := CheckResult{URL: rawURL, CheckedAt: time.Now()}

	status, err := c.request(ctx, http.MethodHead, rawURL)
	if err != nil || (status >= http.StatusBadRequest && !reachable(status)) {
		status, err = c.request(ctx, http.MethodGet, rawURL)
	}
	res.Status = status
	switch {
	case err != nil:
		res.Error = err.Error()
	case status >= http.StatusBadRequest && !reachable(status):
		res.Error = fmt.Sprintf("HTTP %d", status)
	default:
		res.OK = true
	}
	return res
}

// transient reports whether a failed probe is worth retrying.
func transient(res CheckResult) bool {
	if res.OK {
		return false
	}
	switch res.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return res.Status == 0 && res.Error != ""
}

// reachable reports whether a 4xx status still proves the URL exists.
// Auth walls and rate limits are not broken links.
func reachable(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}

func (c *Checker) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// CollectExternal walks a built site and gathers every http(s)
// reference, grouped by URL with the referencing files recorded.
// Scheme-relative and non-HTTP schemes are skipped since they cannot
// be probed.
func CollectExternal(root string) ([]External, error) {
	_, htmlFiles, err := collectFiles(root)
	if err != nil {
		return nil, err
	}

	byURL := make(map[string]sets.Set[string])
	for _, rel := range htmlFiles {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		for _, ref := range ExtractRefs(data) {
			if !probeable(ref.URL) {
				continue
			}
			if byURL[ref.URL] == nil {
				byURL[ref.URL] = sets.New[string]()
			}
			byURL[ref.URL].Add(rel)
		}
	}

	out := make([]External, 0, len(byURL))
	for url, sources := range byURL {
		ext := External{URL: url, Sources: sources.Values()}
		sort.Strings(ext.Sources)
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func probeable(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
