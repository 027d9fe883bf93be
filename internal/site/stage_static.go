package site

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/linkcheck"
	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/theme"
)

// StaticDir is the site-root directory copied through verbatim.
const StaticDir = "static"

// stageCopyStatic places everything that is not a rendered page:
// static/ passthrough files, content-adjacent assets, and the theme's
// css/js bundle.
func stageCopyStatic(_ context.Context, bs *BuildState) error {
	if err := copyStaticDir(StaticDir, bs.Builder.stageDir); err != nil {
		return newFatalStageError(StageCopyStatic, err)
	}

	for _, asset := range bs.Set.Assets {
		rel := strings.TrimPrefix(asset.Route, bs.Site.BaseURL)
		if err := copyFile(asset.SourcePath, filepath.Join(bs.Builder.stageDir, filepath.FromSlash(rel))); err != nil {
			return newFatalStageError(StageCopyStatic, fmt.Errorf("copy asset %s: %w", asset.RelPath, err))
		}
	}

	if err := theme.WriteAssets(bs.Builder.stageDir, bs.Builder.liveReload); err != nil {
		return newFatalStageError(StageCopyStatic, err)
	}
	return nil
}

// copyStaticDir mirrors the static directory into the output root. A
// missing directory is fine; most sites start without one.
func copyStaticDir(src, dst string) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat static dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("static path %s is not a directory", src)
	}

	count := 0
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		count++
		return copyFile(p, filepath.Join(dst, rel))
	})
	if err != nil {
		return fmt.Errorf("copy static files: %w", err)
	}
	if count > 0 {
		slog.Debug("static files copied", logfields.Count(count))
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// stageSearchIndex emits search-index.json at the site root for the
// client-side search box.
func stageSearchIndex(_ context.Context, bs *BuildState) error {
	data, err := buildSearchIndex(bs.Set)
	if err != nil {
		return newFatalStageError(StageSearchIndex, err)
	}
	if err := writeSiteFile(bs.Builder.stageDir, "search-index.json", data); err != nil {
		return newFatalStageError(StageSearchIndex, err)
	}
	return nil
}

// stageVerifyOutput parses every emitted HTML file and checks that
// internal links and asset references resolve to files the build
// wrote. Severity follows build.broken_links.
func stageVerifyOutput(_ context.Context, bs *BuildState) error {
	findings, err := linkcheck.VerifyDir(bs.Builder.stageDir, bs.Site.BaseURL)
	if err != nil {
		return newFatalStageError(StageVerifyOutput, err)
	}
	for _, f := range findings {
		bs.Report.AddFinding(LinkFinding{
			Layer:  "html",
			Source: f.File,
			URL:    f.URL,
			Tag:    f.Tag,
			Line:   f.Line,
		})
	}
	if len(findings) == 0 {
		return nil
	}
	first := fmt.Sprintf("%s -> %s", findings[0].File, findings[0].URL)
	return brokenLinkSeverity(StageVerifyOutput, bs, len(findings), first)
}
