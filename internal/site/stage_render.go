package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/markdown"
	"git.home.luguber.info/inful/notesite/internal/sidebar"
	"git.home.luguber.info/inful/notesite/internal/slug"
	"git.home.luguber.info/inful/notesite/internal/theme"
)

// stageRenderMarkdown converts page bodies to HTML across a bounded
// worker pool. Each worker owns its renderer; goldmark instances are
// not safe for concurrent use.
func stageRenderMarkdown(ctx context.Context, bs *BuildState) error {
	resolver := bs.Set.Resolver()

	var mu sync.Mutex
	var broken []markdown.BrokenLink

	jobs := make(chan *content.Page)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < bs.Builder.workerCount(); i++ {
		g.Go(func() error {
			r := markdown.NewRenderer()
			for page := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := r.Render(page, resolver)
				if err != nil {
					return fmt.Errorf("render %s: %w", page.RelPath, err)
				}
				page.HTML = template.HTML(res.HTML)
				page.TOC = res.TOC
				if len(res.Broken) > 0 {
					mu.Lock()
					broken = append(broken, res.Broken...)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for _, page := range bs.Set.Pages {
			select {
			case jobs <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return newCanceledStageError(StageRenderMarkdown, err)
		}
		return newFatalStageError(StageRenderMarkdown, err)
	}

	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].Destination < broken[j].Destination
	})
	for _, bl := range broken {
		bs.Report.AddFinding(LinkFinding{
			Layer:  "markdown",
			Source: bl.Page,
			URL:    bl.Destination,
			Tag:    string(bl.Kind),
		})
	}
	if len(broken) == 0 {
		return nil
	}
	first := fmt.Sprintf("%s -> %s", broken[0].Page, broken[0].Destination)
	return brokenLinkSeverity(StageRenderMarkdown, bs, len(broken), first)
}

// brokenLinkSeverity maps finding counts onto the configured
// broken-links mode.
func brokenLinkSeverity(stage StageName, bs *BuildState, count int, first string) error {
	err := fmt.Errorf("%d broken links, first: %s", count, first)
	switch bs.Config.Build.BrokenLinks {
	case config.BrokenLinksError:
		return newFatalStageError(stage, err)
	case config.BrokenLinksWarn:
		return newWarnStageError(stage, err)
	default:
		return nil
	}
}

// stageRenderPages executes the theme layouts: one HTML document per
// page, the landing page, and the 404 page. Template execution is
// concurrent; the parsed set is read-only by then.
func stageRenderPages(ctx context.Context, bs *BuildState) error {
	engine, err := theme.New(bs.Config, theme.OverrideDir)
	if err != nil {
		return newFatalStageError(StageRenderPages, err)
	}
	bs.Engine = engine
	bs.Report.TemplateOverrides = engine.Overrides()

	site := theme.SiteData(bs.Config)
	site.LiveReload = bs.Builder.liveReload
	bs.Site = site

	if err := renderHome(bs); err != nil {
		return newFatalStageError(StageRenderPages, err)
	}
	if err := renderNotFound(bs); err != nil {
		return newFatalStageError(StageRenderPages, err)
	}

	jobs := make(chan *content.Page)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < bs.Builder.workerCount(); i++ {
		g.Go(func() error {
			for page := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := renderDocPage(bs, page); err != nil {
					return err
				}
				bs.Builder.onPageRendered()
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for _, page := range bs.Set.Pages {
			select {
			case jobs <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return newCanceledStageError(StageRenderPages, err)
		}
		return newFatalStageError(StageRenderPages, err)
	}
	return nil
}

func renderHome(bs *BuildState) error {
	data := theme.HomePage(bs.Config, bs.Site)
	var buf bytes.Buffer
	if err := bs.Engine.RenderHome(&buf, data); err != nil {
		return fmt.Errorf("render homepage: %w", err)
	}
	return writeSiteFile(bs.Builder.stageDir, "index.html", buf.Bytes())
}

func renderNotFound(bs *BuildState) error {
	data := &theme.NotFoundData{
		Site:      bs.Site,
		Title:     "Page Not Found",
		Permalink: bs.Site.BaseURL + "404.html",
	}
	var buf bytes.Buffer
	if err := bs.Engine.RenderNotFound(&buf, data); err != nil {
		return fmt.Errorf("render 404 page: %w", err)
	}
	return writeSiteFile(bs.Builder.stageDir, "404.html", buf.Bytes())
}

func renderDocPage(bs *BuildState, page *content.Page) error {
	data := docData(bs, page)
	var buf bytes.Buffer
	if err := bs.Engine.RenderDoc(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", page.ID, err)
	}
	return writeSiteFile(bs.Builder.stageDir, page.OutputPath(bs.Site.BaseURL), buf.Bytes())
}

// docData assembles the template payload for one page.
func docData(bs *BuildState, page *content.Page) *theme.DocData {
	data := &theme.DocData{
		Site:        bs.Site,
		Title:       page.Title,
		Description: page.Description,
		Permalink:   page.Permalink,
		Content:     page.HTML,
		Breadcrumbs: breadcrumbs(bs.Set, page),
		Sidebar:     sidebarItems(bs.Sidebar.Items, page),
		EditURL:     page.EditURL,
		Tags:        page.Tags,
	}
	for _, h := range page.TOC {
		data.TOC = append(data.TOC, theme.TOCEntry{Title: h.Text, Anchor: h.Anchor, Level: h.Level})
	}
	if !page.LastUpdated.IsZero() {
		data.LastUpdated = page.LastUpdated.Format("January 2, 2006")
	}
	if prev := bs.Sidebar.Prev(page); prev != nil {
		data.Prev = &theme.PageRef{Label: prev.Label(), Href: prev.Permalink}
	}
	if next := bs.Sidebar.Next(page); next != nil {
		data.Next = &theme.PageRef{Label: next.Label(), Href: next.Permalink}
	}
	return data
}

// sidebarItems maps the resolved sidebar onto the theme model,
// marking the current page and forcing its ancestor categories open.
func sidebarItems(items []sidebar.Item, current *content.Page) []theme.SidebarItem {
	out, _ := sidebarLevel(items, current)
	return out
}

func sidebarLevel(items []sidebar.Item, current *content.Page) ([]theme.SidebarItem, bool) {
	out := make([]theme.SidebarItem, 0, len(items))
	anyCurrent := false
	for _, item := range items {
		si := theme.SidebarItem{Label: item.Label}
		switch item.Type {
		case sidebar.NodeLink:
			si.Kind = "link"
			si.Href = item.Href
			si.External = theme.IsExternalHref(item.Href)
		case sidebar.NodeDoc:
			si.Kind = "doc"
			si.Href = item.Page.Permalink
			si.Current = item.Page == current
		default:
			si.Kind = "category"
			if item.Page != nil {
				si.Href = item.Page.Permalink
				si.Current = item.Page == current
			}
			children, childCurrent := sidebarLevel(item.Items, current)
			si.Items = children
			si.Open = !item.Collapsed || childCurrent || si.Current
			anyCurrent = anyCurrent || childCurrent
		}
		anyCurrent = anyCurrent || si.Current
		out = append(out, si)
	}
	return out, anyCurrent
}

// breadcrumbs walks the section chain from the root to the page.
// Ancestor crumbs link to their section index when one exists. Index
// pages carry their parent section, so the chain never repeats the
// page itself.
func breadcrumbs(set *content.Set, page *content.Page) []theme.Crumb {
	var crumbs []theme.Crumb
	if page.Section != "" {
		prefix := ""
		for _, seg := range strings.Split(page.Section, "/") {
			if prefix == "" {
				prefix = seg
			} else {
				prefix = prefix + "/" + seg
			}
			crumb := theme.Crumb{Label: slug.Humanize(seg)}
			if index, ok := set.ByID(prefix); ok {
				crumb.Label = index.Label()
				crumb.Href = index.Permalink
			}
			crumbs = append(crumbs, crumb)
		}
	}
	return append(crumbs, theme.Crumb{Label: page.Label()})
}

// writeSiteFile writes one output file under root, creating parents.
func writeSiteFile(root, rel string, data []byte) error {
	dest := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
