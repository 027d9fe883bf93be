package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// BrokenLinkEvent is published for each page that references a broken
// external URL so downstream consumers (issue filers, dashboards) can
// act on it.
type BrokenLinkEvent struct {
	URL        string    `json:"url"`
	SourceFile string    `json:"source_file"`
	Status     int       `json:"status,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	Site       string    `json:"site,omitempty"`
}

// Notifier wires link checking into NATS. Broken links publish to the
// configured subject, and a JetStream KV bucket serves as the result
// cache so repeated runs, and other sites pointed at the same bucket,
// skip recently verified URLs.
type Notifier struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	kv         jetstream.KeyValue
	subject    string
	site       string
	ttl        time.Duration
	failureTTL time.Duration
}

var _ Cache = (*Notifier)(nil)

// NewNotifier connects to NATS and ensures the cache bucket exists.
func NewNotifier(cfg *config.NotifyConfig, site string) (*Notifier, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("notify is not enabled")
	}
	ttl, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("parse notify cache_ttl: %w", err)
	}
	failureTTL, err := time.ParseDuration(cfg.FailureTTL)
	if err != nil {
		return nil, fmt.Errorf("parse notify failure_ttl: %w", err)
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("notesite-linkcheck"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	n := &Notifier{
		conn:       conn,
		js:         js,
		subject:    cfg.Subject,
		site:       site,
		ttl:        ttl,
		failureTTL: failureTTL,
	}
	if err := n.initBucket(cfg.KVBucket); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("link notifier connected",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))
	return n, nil
}

func (n *Notifier) initBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := n.js.KeyValue(ctx, bucket)
	if err == nil {
		n.kv = kv
		return nil
	}
	kv, err = n.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Shared external link check cache",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create KV bucket %s: %w", bucket, err)
	}
	n.kv = kv
	return nil
}

// cacheKey hashes the URL into a legal KV key. Raw URLs carry
// characters NATS rejects in subject tokens.
func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Get implements Cache. The TTL is enforced on read because JetStream
// KV has no per-key expiry; failures use the shorter TTL so broken
// links re-verify sooner.
func (n *Notifier) Get(ctx context.Context, rawURL string) (CheckResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := n.kv.Get(ctx, cacheKey(rawURL))
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.Debug("link cache lookup failed", logfields.URL(rawURL), logfields.Error(err))
		}
		return CheckResult{}, false
	}
	var res CheckResult
	if err := json.Unmarshal(entry.Value(), &res); err != nil {
		slog.Debug("link cache entry unreadable", logfields.URL(rawURL), logfields.Error(err))
		return CheckResult{}, false
	}
	ttl := n.ttl
	if !res.OK {
		ttl = n.failureTTL
	}
	if time.Since(res.CheckedAt) >= ttl {
		return CheckResult{}, false
	}
	return res, true
}

// Put implements Cache. Storage errors are logged, not surfaced; the
// next run simply probes again.
func (n *Notifier) Put(ctx context.Context, res CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(res)
	if err != nil {
		slog.Debug("link cache entry marshal failed", logfields.URL(res.URL), logfields.Error(err))
		return
	}
	if _, err := n.kv.Put(ctx, cacheKey(res.URL), data); err != nil {
		slog.Debug("link cache store failed", logfields.URL(res.URL), logfields.Error(err))
	}
}

// PublishBroken emits one BrokenLinkEvent for a source file that
// references the failed URL.
func (n *Notifier) PublishBroken(ctx context.Context, res CheckResult, source string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ev := BrokenLinkEvent{
		URL:        res.URL,
		SourceFile: source,
		Status:     res.Status,
		Error:      res.Error,
		CheckedAt:  res.CheckedAt,
		Site:       n.site,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal broken link event: %w", err)
	}
	if _, err := n.js.Publish(ctx, n.subject, data); err != nil {
		return fmt.Errorf("publish broken link event: %w", err)
	}
	slog.Debug("published broken link event",
		logfields.URL(res.URL),
		slog.String("source", source))
	return nil
}

// Close drops the NATS connection.
func (n *Notifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
