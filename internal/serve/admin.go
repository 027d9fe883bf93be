package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/metrics"
	"git.home.luguber.info/inful/notesite/internal/version"
)

const defaultBuildsLimit = 20

// healthResponse is the /healthz payload.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// buildResponse is one record in the /api/builds payload. The full
// report JSON is only included on single-record lookups.
type buildResponse struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	DurationMS  int64           `json:"duration_ms"`
	Outcome     string          `json:"outcome"`
	Pages       int             `json:"pages"`
	Assets      int             `json:"assets"`
	Warnings    int             `json:"warnings"`
	BrokenLinks int             `json:"broken_links"`
	Report      json.RawMessage `json:"report,omitempty"`
}

func (s *Server) adminHandler() http.Handler {
	mux := http.NewServeMux()
	s.registerProbes(mux)

	if s.opts.MetricsEnabled && s.opts.Registry != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, metrics.HTTPHandler(s.opts.Registry))
	}
	if s.opts.Store != nil {
		mux.HandleFunc("/api/builds", s.handleBuilds)
		mux.HandleFunc("/api/builds/", s.handleBuild)
	}
	return mux
}

// registerProbes mounts health and readiness endpoints, with the
// Kubernetes-style names as aliases.
func (s *Server) registerProbes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/readyz", s.handleReadiness)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.started).Seconds(),
	})
}

// handleReadiness reports ready only once a rendered site exists.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	index := filepath.Join(s.opts.Dir, "index.html")
	if st, err := os.Stat(index); err == nil && !st.IsDir() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready: site not built"))
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := defaultBuildsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.opts.Store.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("could not list build history", logfields.Error(err))
		http.Error(w, "build history unavailable", http.StatusInternalServerError)
		return
	}
	out := make([]buildResponse, 0, len(records))
	for i := range records {
		out = append(out, toBuildResponse(&records[i], false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/builds/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	rec, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, buildstore.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("could not load build record", logfields.Error(err))
		http.Error(w, "build history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBuildResponse(rec, true))
}

func toBuildResponse(rec *buildstore.Record, includeReport bool) buildResponse {
	out := buildResponse{
		ID:          rec.ID,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
		DurationMS:  rec.Duration().Milliseconds(),
		Outcome:     rec.Outcome,
		Pages:       rec.Pages,
		Assets:      rec.Assets,
		Warnings:    rec.Warnings,
		BrokenLinks: rec.BrokenLinks,
	}
	if includeReport && len(rec.Report) > 0 {
		out.Report = json.RawMessage(rec.Report)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Debug("could not write json response", logfields.Error(err))
	}
}
