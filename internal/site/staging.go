package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// beginStaging creates an isolated staging directory so the final
// output is only ever replaced by a complete site.
func (b *Builder) beginStaging() error {
	// Sibling dir, not inside the output: <output>_stage.
	stage := b.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	b.stageDir = stage
	slog.Debug("initialized staging directory", slog.String("staging", stage), slog.String("final", b.outputDir))
	return nil
}

// finalizeStaging atomically promotes the staging directory to the
// final output location.
// Strategy:
//  1. Remove any stale outputDir.prev backup.
//  2. Move the existing outputDir (if any) to outputDir.prev.
//  3. Rename staging -> outputDir.
//  4. Drop the backup asynchronously when build.clean is set.
func (b *Builder) finalizeStaging() error {
	if b.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(b.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := b.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		// The previous backup may be held open by a file server; retry
		// briefly before escalating.
		for i := 0; i < 3; i++ {
			if err := os.RemoveAll(prev); err == nil {
				break
			}
			if i < 2 {
				time.Sleep(100 * time.Millisecond)
			}
		}
		if _, err := os.Stat(prev); err == nil {
			_ = filepath.Walk(prev, func(path string, _ os.FileInfo, err error) error {
				if err == nil {
					_ = os.Chmod(path, 0o755)
				}
				return nil
			})
			if err := os.RemoveAll(prev); err != nil {
				slog.Warn("could not remove previous backup", logfields.Path(prev), logfields.Error(err))
			}
		}
	}

	if _, err := os.Stat(b.outputDir); err == nil {
		if err := os.Rename(b.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	b.stageDir = ""

	if b.config.Build.Clean {
		go func(p string) {
			if err := os.RemoveAll(p); err != nil {
				slog.Warn("could not remove previous backup", logfields.Path(p), logfields.Error(err))
			}
		}(prev)
	}
	slog.Info("promoted staging directory", slog.String("output", b.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so
// no orphaned temp dirs accumulate.
func (b *Builder) abortStaging() {
	if b.stageDir == "" {
		return
	}
	dir := b.stageDir
	b.stageDir = "" // prevent double cleanup
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("could not remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	} else {
		slog.Debug("removed staging directory after abort", slog.String("staging", dir))
	}
}
