// Package serve exposes a built site over HTTP: the static site on the
// main port and operational endpoints (health, metrics, build history)
// on a separate admin port.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

const shutdownTimeout = 5 * time.Second

// Options configures the server.
type Options struct {
	// Dir is the built site root to serve.
	Dir string
	// Port is the site listener port. Zero binds an ephemeral port.
	Port int
	// AdminPort is the admin listener port. Zero disables the admin
	// listener entirely.
	AdminPort int

	MetricsEnabled bool
	MetricsPath    string
	Registry       *prometheus.Registry

	// Store backs /api/builds on the admin listener when set.
	Store *buildstore.Store

	// LiveReload, when set, is mounted at /__livereload on the site
	// listener. Long-lived SSE connections mean the site server runs
	// without a write timeout in that case.
	LiveReload http.Handler
}

// Server runs the site and admin HTTP listeners.
type Server struct {
	opts    Options
	started time.Time

	site  *http.Server
	admin *http.Server

	siteAddr  string
	adminAddr string
}

// New creates a server for the given options.
func New(opts Options) *Server {
	return &Server{opts: opts}
}

// Addr is the site listener address, available after Start.
func (s *Server) Addr() string { return s.siteAddr }

// AdminAddr is the admin listener address, empty when disabled.
func (s *Server) AdminAddr() string { return s.adminAddr }

// Start binds all ports and begins serving. Binding happens up front
// so a taken port fails fast instead of surfacing from a goroutine
// after startup looked clean.
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()

	type bind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []bind{{name: "site", port: s.opts.Port}}
	if s.opts.AdminPort > 0 {
		binds = append(binds, bind{name: "admin", port: s.opts.AdminPort})
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", binds[i].port))
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.site = s.siteServer()
	s.siteAddr = binds[0].ln.Addr().String()
	s.startOn("site", s.site, binds[0].ln)

	if len(binds) > 1 {
		s.admin = &http.Server{
			Handler:      chain(slog.Default(), s.adminHandler()),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		s.adminAddr = binds[1].ln.Addr().String()
		s.startOn("admin", s.admin, binds[1].ln)
	}

	attrs := []any{slog.String("dir", s.opts.Dir), slog.String("addr", s.siteAddr)}
	if s.adminAddr != "" {
		attrs = append(attrs, slog.String("admin_addr", s.adminAddr))
	}
	slog.Info("serving site", attrs...)
	return nil
}

func (s *Server) siteServer() *http.Server {
	mux := http.NewServeMux()
	s.registerProbes(mux)
	if s.opts.LiveReload != nil {
		mux.Handle("/__livereload", s.opts.LiveReload)
	}
	mux.Handle("/", SiteHandler(s.opts.Dir))

	srv := &http.Server{
		Handler:     chain(slog.Default(), mux),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	// SSE connections outlive any sane write timeout.
	if s.opts.LiveReload == nil {
		srv.WriteTimeout = 30 * time.Second
	}
	return srv
}

func (s *Server) startOn(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(kind+" server error", logfields.Error(err))
		}
	}()
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.admin != nil {
		if err := s.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.site != nil {
		if err := s.site.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("site server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	slog.Info("http servers stopped")
	return nil
}

// Run starts the server and blocks until ctx is canceled, then shuts
// down with a bounded grace period.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}
