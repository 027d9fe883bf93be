package preview

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/notesite/internal/logfields"
	"git.home.luguber.info/inful/notesite/internal/util/sets"
)

// watcher wraps fsnotify with recursive tree registration and a
// relevance filter. Single files (the config, the sidebar) are watched
// through their parent directory, so sibling churn in those
// directories must be filtered out before it reaches the rebuild loop.
type watcher struct {
	fs    *fsnotify.Watcher
	roots []string
	files sets.Set[string]
}

func newWatcher() (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	return &watcher{fs: fs, files: sets.New[string]()}, nil
}

// watchTree registers root and all its subdirectories. Missing roots
// are skipped silently so optional directories (static, template
// overrides) need no existence dance at the call site.
func (w *watcher) watchTree(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch dir: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil || !st.IsDir() {
		return nil
	}
	if err := addDirsRecursive(w.fs, abs); err != nil {
		return err
	}
	w.roots = append(w.roots, abs)
	return nil
}

// watchFile registers path via its parent directory.
func (w *watcher) watchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve watch file: %w", err)
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.files.Add(abs)
	return nil
}

// relevant reports whether an event path belongs to a watched tree or
// matches a watched file.
func (w *watcher) relevant(name string) bool {
	if w.files.Has(name) {
		return true
	}
	for _, root := range w.roots {
		if underDir(name, root) {
			return true
		}
	}
	return false
}

// handleEvent filters one filesystem event and reports whether it
// should trigger a rebuild. Newly created directories inside a watched
// tree are registered so edits in them are seen too.
func (w *watcher) handleEvent(ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) {
		return false
	}
	if !w.relevant(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
		}
	}
	slog.Debug("file change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *watcher) Close() error {
	return w.fs.Close()
}

func addDirsRecursive(fs *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := fs.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

func underDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// shouldIgnoreEvent reports whether a path is editor or filesystem
// noise that must not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp and swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
