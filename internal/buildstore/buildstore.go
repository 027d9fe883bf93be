// Package buildstore persists build history in a SQLite database under
// the site's .notesite directory. The builds command reads it; every
// completed build appends to it.
package buildstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the database location relative to the site root.
var DefaultPath = filepath.Join(".notesite", "builds.db")

// ErrNotFound indicates no build with the requested ID.
var ErrNotFound = errors.New("build not found")

// Record is one completed build.
type Record struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string // success|warning|failed|canceled
	Pages       int
	Assets      int
	Warnings    int
	BrokenLinks int
	// Report is the full build report JSON. Only loaded by Get.
	Report json.RawMessage
}

// Duration is the wall time the build took.
func (r *Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store wraps the SQLite handle. The mutex serializes writers; the
// modernc driver multiplexes fine for our single-process use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the database at path, creating parent
// directories as needed. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open build database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize build schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		assets INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		broken_links INTEGER NOT NULL DEFAULT 0,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends a build record.
func (s *Store) Save(ctx context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, outcome, pages, assets, warnings, broken_links, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(), r.Outcome,
		r.Pages, r.Assets, r.Warnings, r.BrokenLinks, []byte(r.Report),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns the newest builds, most recent first, without their
// report payloads.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, pages, assets, warnings, broken_links
		 FROM builds ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &r.Pages, &r.Assets, &r.Warnings, &r.BrokenLinks); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get loads one build including its report JSON. ID prefixes are
// accepted when unambiguous.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, pages, assets, warnings, broken_links, report
		 FROM builds WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	defer rows.Close()

	var matches []*Record
	for rows.Next() {
		var r Record
		var started, finished int64
		var report []byte
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &r.Pages, &r.Assets, &r.Warnings, &r.BrokenLinks, &report); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		r.Report = report
		matches = append(matches, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		// An exact hit wins over prefix matches.
		for _, m := range matches {
			if m.ID == id {
				return m, nil
			}
		}
		return nil, fmt.Errorf("ambiguous build id prefix %q", id)
	}
}

// Prune removes all but the newest keep builds, returning how many
// rows were deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM builds WHERE id NOT IN (
			SELECT id FROM builds ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
