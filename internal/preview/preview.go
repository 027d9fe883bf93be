// Package preview implements watch mode: build the site into a
// scratch directory, serve it, rebuild on source changes and tell
// connected browsers to refresh over SSE.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/serve"
	"git.home.luguber.info/inful/notesite/internal/site"
	"git.home.luguber.info/inful/notesite/internal/theme"
)

const (
	debounceDelay   = 300 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Options configures a preview session.
type Options struct {
	// Port for the preview server. Zero binds an ephemeral port.
	Port int
	// OutputDir overrides the scratch directory. When empty the
	// preview owns a temp directory and removes it on shutdown.
	OutputDir string
	// RebuildInterval schedules periodic full rebuilds so
	// future-dated pages go live when due. Zero disables it.
	RebuildInterval time.Duration
	// LiveReload injects the reload client and serves the SSE
	// endpoint.
	LiveReload bool
}

// Preview holds the moving parts of one watch-mode session.
type Preview struct {
	configPath string
	opts       Options
	outputDir  string
	ownedRoot  string // temp dir to remove on shutdown, empty when the caller owns the output

	hub    *LiveReloadHub
	server *serve.Server
	fw     *watcher
	sched  gocron.Scheduler

	rebuildReq chan struct{}
	trigger    func()

	mu  sync.Mutex
	cfg *config.Config
}

// Run builds, serves and watches until ctx is canceled. configPath is
// re-read before every rebuild so configuration edits take effect
// without a restart; pass an empty path to pin the given cfg.
func Run(ctx context.Context, cfg *config.Config, configPath string, opts Options) error {
	outputDir := opts.OutputDir
	ownedRoot := ""
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "notesite-preview-*")
		if err != nil {
			return fmt.Errorf("create preview output dir: %w", err)
		}
		// Build staging and backup dirs are siblings of the output,
		// so the output nests one level down and cleanup stays a
		// single RemoveAll.
		outputDir = filepath.Join(dir, "site")
		ownedRoot = dir
	}

	p := &Preview{
		configPath: configPath,
		opts:       opts,
		outputDir:  outputDir,
		ownedRoot:  ownedRoot,
		cfg:        cfg,
		rebuildReq: make(chan struct{}, 1),
	}
	if opts.LiveReload {
		p.hub = NewLiveReloadHub()
	}

	if report, err := p.build(ctx); err != nil {
		slog.Error("initial build failed, waiting for changes", logfields.Error(err))
	} else {
		slog.Info("initial build complete",
			slog.Int("pages", report.RenderedPages),
			slog.Duration("duration", report.End.Sub(report.Start)))
	}

	var lr http.Handler
	if p.hub != nil {
		lr = p.hub
	}
	p.server = serve.New(serve.Options{Dir: outputDir, Port: opts.Port, LiveReload: lr})
	if err := p.server.Start(ctx); err != nil {
		p.removeOwnedOutput()
		return err
	}

	if err := p.setupWatches(cfg); err != nil {
		p.removeOwnedOutput()
		return err
	}
	defer func() { _ = p.fw.Close() }()

	p.trigger = newDebouncer(debounceDelay, p.enqueueRebuild)
	go p.rebuildWorker(ctx)

	if opts.RebuildInterval > 0 {
		if err := p.startScheduler(opts.RebuildInterval); err != nil {
			slog.Warn("periodic rebuild disabled", logfields.Error(err))
		}
	}

	slog.Info("preview ready",
		logfields.URL(previewURL(p.server.Addr())),
		logfields.Output(outputDir))
	return p.loop(ctx)
}

// setupWatches registers everything a rebuild depends on: the docs
// tree, static passthrough files, template overrides, the sidebar and
// the configuration file.
func (p *Preview) setupWatches(cfg *config.Config) error {
	fw, err := newWatcher()
	if err != nil {
		return err
	}
	if err := fw.watchTree(cfg.Docs.Dir); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.watchTree(site.StaticDir); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.watchTree(theme.OverrideDir); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.watchFile(cfg.Docs.SidebarFile); err != nil {
		slog.Warn("cannot watch sidebar file", logfields.Error(err))
	}
	if p.configPath != "" {
		if err := fw.watchFile(p.configPath); err != nil {
			slog.Warn("cannot watch config file", logfields.Error(err))
		}
	}
	p.fw = fw
	return nil
}

func (p *Preview) startScheduler(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("scheduled rebuild")
			p.enqueueRebuild()
		}),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	sched.Start()
	p.sched = sched
	slog.Info("periodic rebuild scheduled", slog.Duration("interval", interval))
	return nil
}

// loop dispatches filesystem events until shutdown.
func (p *Preview) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return p.shutdown()
		case ev, ok := <-p.fw.fs.Events:
			if !ok {
				return nil
			}
			if p.fw.handleEvent(ev) {
				p.trigger()
			}
		case err, ok := <-p.fw.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// enqueueRebuild requests one rebuild, coalescing with any request
// already queued.
func (p *Preview) enqueueRebuild() {
	select {
	case p.rebuildReq <- struct{}{}:
	default:
	}
}

// rebuildWorker serializes rebuilds. Requests arriving while a build
// runs coalesce in the buffered channel into a single follow-up build.
func (p *Preview) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.rebuildReq:
			p.rebuild(ctx)
		}
	}
}

// rebuild runs one build and notifies browsers of the outcome.
func (p *Preview) rebuild(ctx context.Context) {
	slog.Info("change detected, rebuilding site")
	report, err := p.build(ctx)
	if err != nil {
		slog.Warn("rebuild failed", logfields.Error(err))
		if p.hub != nil {
			p.hub.BroadcastError(err.Error())
		}
		return
	}
	slog.Info("site rebuilt",
		slog.Int("pages", report.RenderedPages),
		slog.Duration("duration", report.End.Sub(report.Start)))
	if p.hub != nil {
		p.hub.BroadcastReload(report.BuildID)
	}
}

// build reloads the configuration when a path is known, then runs the
// full pipeline into the scratch directory.
func (p *Preview) build(ctx context.Context) (*site.BuildReport, error) {
	cfg := p.currentConfig()
	if p.configPath != "" {
		fresh, err := reloadConfig(p.configPath)
		if err != nil {
			return nil, fmt.Errorf("reload config: %w", err)
		}
		cfg = fresh
		p.setConfig(fresh)
	}
	return site.NewBuilder(cfg, p.outputDir).
		SetLiveReload(p.opts.LiveReload).
		Build(ctx)
}

func reloadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.Parse(data)
}

func (p *Preview) currentConfig() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

func (p *Preview) setConfig(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

func (p *Preview) shutdown() error {
	slog.Info("shutting down preview")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if p.sched != nil {
		if err := p.sched.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown error", logfields.Error(err))
		}
	}
	if err := p.server.Stop(shutdownCtx); err != nil {
		slog.Warn("server shutdown error", logfields.Error(err))
	}
	if p.hub != nil {
		p.hub.Shutdown()
	}
	p.removeOwnedOutput()
	return nil
}

func (p *Preview) removeOwnedOutput() {
	if p.ownedRoot == "" {
		return
	}
	if err := os.RemoveAll(p.ownedRoot); err != nil {
		slog.Warn("failed to remove preview output", logfields.Output(p.ownedRoot), logfields.Error(err))
		return
	}
	slog.Debug("removed preview output", logfields.Output(p.ownedRoot))
}

// previewURL renders a browsable URL from a bound listener address.
func previewURL(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	return "http://localhost:" + port
}

// newDebouncer returns a trigger that calls fire once the trigger has
// been quiet for d. Bursts of filesystem events collapse into one
// rebuild request.
func newDebouncer(d time.Duration, fire func()) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fire)
	}
}
