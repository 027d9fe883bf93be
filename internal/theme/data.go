package theme

import (
	"html/template"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/config"
)

// Site is the configuration-derived data every template receives. It
// is built once per build and shared across render workers, so it
// carries no per-page state.
type Site struct {
	Title    string
	Tagline  string
	URL      string
	BaseURL  string
	Favicon  string
	Language string

	NavbarLeft  []NavLink
	NavbarRight []NavLink

	FooterStyle  string
	FooterGroups []FooterGroup
	Copyright    string

	ThemeDefault       string
	RespectColorScheme bool
	DisableThemeSwitch bool

	Search bool
	// LiveReload injects the reload client script. Preview builds only.
	LiveReload bool
}

// NavLink is a rendered navigation link.
type NavLink struct {
	Label    string
	Href     string
	External bool
}

// FooterGroup is one footer column.
type FooterGroup struct {
	Title string
	Links []NavLink
}

// TOCEntry is one "on this page" row.
type TOCEntry struct {
	Title  string
	Anchor string
	Level  int
}

// Crumb is one breadcrumb step. Href is empty for the current page.
type Crumb struct {
	Label string
	Href  string
}

// SidebarItem is a rendered sidebar entry.
type SidebarItem struct {
	Kind     string // "category", "doc" or "link"
	Label    string
	Href     string
	External bool
	// Current marks the entry for the page being rendered. Open keeps
	// a category expanded, either by configuration or because the
	// current page sits beneath it.
	Current bool
	Open    bool
	Items   []SidebarItem
}

// PageRef is a pagination target.
type PageRef struct {
	Label string
	Href  string
}

// DocData feeds the doc layout.
type DocData struct {
	Site        Site
	Title       string
	Description string
	Permalink   string
	Content     template.HTML
	TOC         []TOCEntry
	Breadcrumbs []Crumb
	Sidebar     []SidebarItem
	Prev        *PageRef
	Next        *PageRef
	EditURL     string
	LastUpdated string
	Tags        []string
}

// HomeData feeds the landing page layout.
type HomeData struct {
	Site        Site
	Title       string
	Description string
	Permalink   string
	Hero        Hero
	Features    []Feature
}

// Hero is the landing page banner.
type Hero struct {
	Title    string
	Subtitle string
	CTALabel string
	CTAHref  string
}

// Feature is one landing page card. Each configured feature renders
// exactly one card.
type Feature struct {
	Title       string
	Description string
	Href        string
	Icon        string
	External    bool
}

// NotFoundData feeds the 404 layout.
type NotFoundData struct {
	Site        Site
	Title       string
	Description string
	Permalink   string
}

// SiteData maps the configuration onto template data.
func SiteData(cfg *config.Config) Site {
	s := Site{
		Title:              cfg.Site.Title,
		Tagline:            cfg.Site.Tagline,
		URL:                cfg.Site.URL,
		BaseURL:            cfg.Site.BaseURL,
		Favicon:            cfg.Site.Favicon,
		Language:           cfg.Site.Language,
		FooterStyle:        string(cfg.Footer.Style),
		Copyright:          cfg.Footer.Copyright,
		ThemeDefault:       string(cfg.Theme.DefaultMode),
		RespectColorScheme: cfg.Theme.RespectPrefersColorScheme,
		DisableThemeSwitch: cfg.Theme.DisableSwitch,
		Search:             !cfg.Build.DisableSearch,
	}

	for _, item := range cfg.Navbar {
		link := navLink(cfg.Site.BaseURL, item.Label, item.To, item.Href)
		if item.Position == config.NavbarRight {
			s.NavbarRight = append(s.NavbarRight, link)
		} else {
			s.NavbarLeft = append(s.NavbarLeft, link)
		}
	}

	for _, group := range cfg.Footer.Links {
		g := FooterGroup{Title: group.Title}
		for _, item := range group.Items {
			g.Links = append(g.Links, navLink(cfg.Site.BaseURL, item.Label, item.To, item.Href))
		}
		s.FooterGroups = append(s.FooterGroups, g)
	}

	return s
}

// HomePage maps the hero and feature configuration. The feature list
// preserves declaration order.
func HomePage(cfg *config.Config, site Site) *HomeData {
	data := &HomeData{
		Site:        site,
		Description: cfg.Site.Tagline,
		Permalink:   cfg.Site.BaseURL,
		Hero: Hero{
			Title:    cfg.Hero.Title,
			Subtitle: cfg.Hero.Subtitle,
			CTALabel: cfg.Hero.CTALabel,
			CTAHref:  RouteHref(cfg.Site.BaseURL, cfg.Hero.CTATo),
		},
	}
	if data.Hero.Title == "" {
		data.Hero.Title = cfg.Site.Title
	}
	if data.Hero.Subtitle == "" {
		data.Hero.Subtitle = cfg.Site.Tagline
	}

	for _, f := range cfg.Features {
		card := Feature{
			Title:       f.Title,
			Description: f.Description,
			Icon:        f.Icon,
			Href:        f.Link,
			External:    IsExternalHref(f.Link),
		}
		if !card.External {
			card.Href = RouteHref(cfg.Site.BaseURL, f.Link)
		}
		data.Features = append(data.Features, card)
	}
	return data
}

// RouteHref turns a configured internal route into an absolute path
// under the base URL. An empty route points at the site root.
func RouteHref(baseURL, to string) string {
	to = strings.Trim(to, "/")
	if to == "" {
		return baseURL
	}
	return baseURL + to + "/"
}

// IsExternalHref reports whether a link target leaves the site.
func IsExternalHref(href string) bool {
	return strings.Contains(href, "://") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:")
}

func navLink(baseURL, label, to, href string) NavLink {
	if href != "" {
		return NavLink{Label: label, Href: href, External: true}
	}
	return NavLink{Label: label, Href: RouteHref(baseURL, to)}
}
