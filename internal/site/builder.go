// Package site orchestrates the build pipeline: content in, static
// site out. Stages run in a fixed order against a staging directory
// that is atomically promoted to the output path on success, so the
// served site is never half-written.
package site

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/metrics"
	"git.home.luguber.info/inful/notesite/internal/sidebar"
	"git.home.luguber.info/inful/notesite/internal/theme"
)

// Builder runs the build pipeline for one site.
type Builder struct {
	config    *config.Config
	outputDir string // final output dir
	stageDir  string // ephemeral staging dir for the current build

	liveReload bool
	skipVerify bool
	now        func() time.Time

	recorder metrics.Recorder
	store    *buildstore.Store

	// instrumentation callback, set per build
	onPageRendered func()
}

// NewBuilder creates a builder writing to outputDir. Pass an empty
// outputDir to use the configured build.output.
func NewBuilder(cfg *config.Config, outputDir string) *Builder {
	if outputDir == "" {
		outputDir = cfg.Build.Output
	}
	return &Builder{
		config:    cfg,
		outputDir: outputDir,
		now:       time.Now,
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder. Returns the builder for
// chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// SetStore injects the build history store. Saving is best effort; a
// nil store disables history.
func (b *Builder) SetStore(s *buildstore.Store) *Builder {
	b.store = s
	return b
}

// SetLiveReload injects the reload client into rendered pages.
// Preview builds only.
func (b *Builder) SetLiveReload(v bool) *Builder {
	b.liveReload = v
	return b
}

// SetSkipVerify drops the output verification stage.
func (b *Builder) SetSkipVerify(v bool) *Builder {
	b.skipVerify = v
	return b
}

// OutputDir is the final output location.
func (b *Builder) OutputDir() string { return b.outputDir }

// workerCount is the render parallelism: build.concurrency, or
// GOMAXPROCS when unset.
func (b *Builder) workerCount() int {
	if n := b.config.Build.Concurrency; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Builder *Builder
	Config  *config.Config
	Report  *BuildReport

	// Set holds the included pages after draft/scheduled filtering.
	Set *content.Set
	// Excluded maps a filtered page ID to its exclusion reason.
	Excluded map[string]string
	Sidebar  *sidebar.Resolved
	Engine   *theme.Engine
	Site     theme.Site
}

func newBuildState(b *Builder, report *BuildReport) *BuildState {
	return &BuildState{
		Builder:  b,
		Config:   b.config,
		Report:   report,
		Excluded: make(map[string]string),
	}
}

func (bs *BuildState) recorder() metrics.Recorder { return bs.Builder.recorder }

// Build runs the full pipeline. The returned report is non-nil
// whenever staging began, also on failure, so callers can surface
// stage timings and errors.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	slog.Info("starting site build",
		logfields.BuildID(buildID),
		logfields.Output(b.outputDir))

	if err := b.beginStaging(); err != nil {
		return nil, err
	}

	report := newBuildReport(buildID)
	// Render workers fire this concurrently.
	var renderedMu sync.Mutex
	b.onPageRendered = func() {
		renderedMu.Lock()
		report.RenderedPages++
		renderedMu.Unlock()
	}
	bs := newBuildState(b, report)

	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageLoadContent, stageLoadContent).
		AddIf(b.config.Git.LastUpdated || b.config.Git.EditLinks, StageGitMetadata, stageGitMetadata).
		Add(StageSidebar, stageSidebar).
		Add(StageRenderMarkdown, stageRenderMarkdown).
		Add(StageRenderPages, stageRenderPages).
		Add(StageCopyStatic, stageCopyStatic).
		AddIf(!b.config.Build.DisableSearch, StageSearchIndex, stageSearchIndex).
		AddIf(!b.skipVerify, StageVerifyOutput, stageVerifyOutput).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		b.abortStaging()
		report.deriveOutcome()
		report.finish()
		b.recordBuild(ctx, report)
		return report, err
	}

	report.deriveOutcome()
	report.finish()
	if err := b.finalizeStaging(); err != nil {
		b.abortStaging()
		return report, err
	}

	// Persist the report inside the final output directory, best
	// effort.
	if err := report.Persist(b.outputDir); err != nil {
		slog.Warn("could not persist build report", logfields.Error(err))
	}
	b.recordBuild(ctx, report)

	slog.Info("site build completed",
		logfields.BuildID(buildID),
		logfields.Output(b.outputDir),
		slog.Int("pages", report.Pages),
		slog.Int("rendered", report.RenderedPages),
		slog.Int("warnings", len(report.Warnings)),
		slog.String("outcome", report.Outcome))
	return report, nil
}

// recordBuild pushes the finished report into metrics and the build
// history store. Neither can fail the build.
func (b *Builder) recordBuild(ctx context.Context, report *BuildReport) {
	b.recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	b.recorder.IncBuildOutcome(report.Outcome)
	b.recorder.SetPagesRendered(report.RenderedPages)
	b.recorder.SetBrokenLinks("internal", report.BrokenLinks)

	if b.store == nil {
		return
	}
	raw, err := report.JSON()
	if err != nil {
		slog.Warn("could not serialize build report for history", logfields.Error(err))
		raw = nil
	}
	rec := &buildstore.Record{
		ID:          report.BuildID,
		StartedAt:   report.Start,
		FinishedAt:  report.End,
		Outcome:     report.Outcome,
		Pages:       report.Pages,
		Assets:      report.Assets,
		Warnings:    len(report.Warnings),
		BrokenLinks: report.BrokenLinks,
		Report:      raw,
	}
	// History survives build cancellation.
	if err := b.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		slog.Warn("could not record build history", logfields.Error(err))
	}
}
