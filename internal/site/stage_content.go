package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/gitmeta"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/sidebar"
)

// stagePrepareOutput creates the output skeleton inside the staging
// directory.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	dirs := []string{
		bs.Config.Docs.RouteBase,
		"assets/css",
		"assets/js",
	}
	for _, dir := range dirs {
		path := filepath.Join(bs.Builder.stageDir, filepath.FromSlash(dir))
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

// stageLoadContent walks the docs tree and filters drafts and
// future-dated pages out of the build.
func stageLoadContent(_ context.Context, bs *BuildState) error {
	set, err := content.NewLoader(bs.Config).Load()
	if err != nil {
		return newFatalStageError(StageLoadContent, err)
	}

	now := bs.Builder.now()
	included := make([]*content.Page, 0, len(set.Pages))
	for _, p := range set.Pages {
		switch {
		case p.Draft && !bs.Config.Build.Drafts:
			bs.Excluded[p.ID] = "draft"
			bs.Report.SkippedDrafts++
			slog.Debug("skipping draft", logfields.Page(p.ID))
		case p.Scheduled(now) && !bs.Config.Build.IncludeFuture:
			bs.Excluded[p.ID] = "scheduled"
			bs.Report.SkippedScheduled++
			slog.Debug("skipping future-dated page", logfields.Page(p.ID), slog.Time("date", p.Date))
		default:
			included = append(included, p)
		}
	}
	bs.Set = content.NewSet(included, set.Assets)

	bs.Report.Pages = len(bs.Set.Pages)
	bs.Report.Assets = len(bs.Set.Assets)
	bs.Report.Sections = len(bs.Set.Sections())

	if len(bs.Set.Pages) == 0 {
		return newWarnStageError(StageLoadContent, fmt.Errorf("no documents found under %s", bs.Config.Docs.Dir))
	}
	return nil
}

// stageGitMetadata annotates pages with last-updated timestamps and
// edit links. Running outside a repository degrades to a warning, the
// site still builds.
func stageGitMetadata(_ context.Context, bs *BuildState) error {
	collector, err := gitmeta.Open(bs.Config)
	if err != nil {
		if errors.Is(err, gitmeta.ErrNoRepository) {
			return newWarnStageError(StageGitMetadata, fmt.Errorf("git metadata requested but %s is not inside a repository", bs.Config.Docs.Dir))
		}
		return newWarnStageError(StageGitMetadata, fmt.Errorf("open repository: %w", err))
	}
	collector.Annotate(bs.Set.Pages)
	return nil
}

// stageSidebar loads the declared sidebar, or autogenerates one from
// the section layout, and resolves every reference against the loaded
// pages.
func stageSidebar(_ context.Context, bs *BuildState) error {
	var nodes []sidebar.Node
	path := bs.Config.Docs.SidebarFile
	if _, err := os.Stat(path); err == nil {
		nodes, err = sidebar.Load(path)
		if err != nil {
			return newFatalStageError(StageSidebar, err)
		}
	} else {
		nodes = sidebar.Generate(bs.Set)
		slog.Debug("sidebar autogenerated", logfields.Count(len(nodes)))
	}

	resolved, err := sidebar.Resolve(nodes, bs.Set, bs.Excluded)
	if err != nil {
		return newFatalStageError(StageSidebar, err)
	}
	resolved.LogWarnings()
	for _, w := range resolved.Warnings {
		bs.Report.Warnings = append(bs.Report.Warnings, fmt.Errorf("sidebar: %s", w))
	}
	bs.Sidebar = resolved
	return nil
}
