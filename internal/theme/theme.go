// Package theme renders site pages from embedded HTML templates and
// ships the static assets they depend on. A templates/ directory in
// the site root overrides individual built-in templates by file name.
package theme

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

//go:embed assets
var builtinAssets embed.FS

// OverrideDir is the site-root directory scanned for template
// overrides.
const OverrideDir = "templates"

// Engine holds the parsed template set. Parsing happens once; the set
// is safe for concurrent execution afterwards.
type Engine struct {
	templates *template.Template
	overrides []string
}

// New parses the built-in templates and layers overrideDir on top.
// Override files replace same-named built-ins, so a site can restyle
// one layout without forking the rest.
func New(cfg *config.Config, overrideDir string) (*Engine, error) {
	base := cfg.Site.BaseURL
	funcs := template.FuncMap{
		"isActive": func(permalink, href string) bool {
			if permalink == "" || href == "" {
				return false
			}
			if permalink == href {
				return true
			}
			return href != base && strings.HasPrefix(permalink, href)
		},
	}

	tmpl, err := template.New("theme").Funcs(funcs).ParseFS(builtinTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}

	e := &Engine{}
	if overrideDir != "" {
		overrides, err := filepath.Glob(filepath.Join(overrideDir, "*.tmpl"))
		if err != nil {
			return nil, fmt.Errorf("scan template overrides: %w", err)
		}
		if len(overrides) > 0 {
			tmpl, err = tmpl.ParseFiles(overrides...)
			if err != nil {
				return nil, fmt.Errorf("parse template overrides: %w", err)
			}
			for _, o := range overrides {
				e.overrides = append(e.overrides, filepath.Base(o))
			}
			slog.Info("template overrides loaded",
				logfields.Path(overrideDir),
				logfields.Count(len(overrides)))
		}
	}

	e.templates = tmpl
	return e, nil
}

// Overrides lists the template file names a site replaced, empty when
// every layout came from the embedded set.
func (e *Engine) Overrides() []string { return e.overrides }

// RenderDoc writes a documentation page.
func (e *Engine) RenderDoc(w io.Writer, data *DocData) error {
	return e.templates.ExecuteTemplate(w, "doc.tmpl", data)
}

// RenderHome writes the landing page.
func (e *Engine) RenderHome(w io.Writer, data *HomeData) error {
	return e.templates.ExecuteTemplate(w, "home.tmpl", data)
}

// RenderNotFound writes the 404 page.
func (e *Engine) RenderNotFound(w io.Writer, data *NotFoundData) error {
	return e.templates.ExecuteTemplate(w, "404.tmpl", data)
}

// StaticAsset is one file the theme ships with the site.
type StaticAsset struct {
	// Path is relative to the output root, e.g. "assets/css/main.css".
	Path    string
	Content []byte
}

// Assets returns the embedded static files. The live reload client is
// only included when preview builds ask for it.
func Assets(liveReload bool) ([]StaticAsset, error) {
	var out []StaticAsset
	err := walkAssets("assets", func(path string, content []byte) {
		if filepath.Base(path) == "livereload.js" && !liveReload {
			return
		}
		out = append(out, StaticAsset{Path: path, Content: content})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func walkAssets(dir string, fn func(path string, content []byte)) error {
	entries, err := builtinAssets.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read embedded assets: %w", err)
	}
	for _, entry := range entries {
		path := dir + "/" + entry.Name()
		if entry.IsDir() {
			if err := walkAssets(path, fn); err != nil {
				return err
			}
			continue
		}
		content, err := builtinAssets.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded asset %s: %w", path, err)
		}
		fn(path, content)
	}
	return nil
}

// WriteAssets places the theme's static files under outDir.
func WriteAssets(outDir string, liveReload bool) error {
	assets, err := Assets(liveReload)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		dest := filepath.Join(outDir, filepath.FromSlash(asset.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return err
		}
		// #nosec G306 -- theme assets are public site files
		if err := os.WriteFile(dest, asset.Content, 0o644); err != nil {
			return err
		}
	}
	slog.Debug("theme assets written", logfields.Count(len(assets)))
	return nil
}
