// Package config loads and validates the site configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// DefaultFile is the configuration file name looked up in the site root.
const DefaultFile = "notesite.yaml"

// Config is the root of the site configuration.
type Config struct {
	Site     SiteConfig    `yaml:"site"`
	Navbar   []NavbarItem  `yaml:"navbar,omitempty"`
	Footer   FooterConfig  `yaml:"footer,omitempty"`
	Theme    ThemeConfig   `yaml:"theme,omitempty"`
	Hero     HeroConfig    `yaml:"hero,omitempty"`
	Features []FeatureItem `yaml:"features,omitempty"`
	Docs     DocsConfig    `yaml:"docs,omitempty"`
	Build    BuildConfig   `yaml:"build,omitempty"`
	Serve    ServeConfig   `yaml:"serve,omitempty"`
	Check    CheckConfig   `yaml:"check,omitempty"`
	Git      GitConfig     `yaml:"git,omitempty"`
	Lint     LintConfig    `yaml:"lint,omitempty"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
}

// SiteConfig holds the site-wide identity settings.
type SiteConfig struct {
	Title    string `yaml:"title"`
	Tagline  string `yaml:"tagline,omitempty"`
	URL      string `yaml:"url,omitempty"`      // canonical origin, e.g. https://notes.example.com
	BaseURL  string `yaml:"base_url,omitempty"` // path prefix the site is served under
	Favicon  string `yaml:"favicon,omitempty"`
	Language string `yaml:"language,omitempty"`
}

// NavbarItem is a single top-bar entry. Exactly one of To (internal
// route) and Href (external URL) must be set.
type NavbarItem struct {
	Label    string         `yaml:"label"`
	To       string         `yaml:"to,omitempty"`
	Href     string         `yaml:"href,omitempty"`
	Position NavbarPosition `yaml:"position,omitempty"`
}

// FooterConfig describes the footer link groups.
type FooterConfig struct {
	Style     FooterStyle   `yaml:"style,omitempty"`
	Copyright string        `yaml:"copyright,omitempty"`
	Links     []FooterGroup `yaml:"links,omitempty"`
}

// FooterGroup is a titled column of footer links.
type FooterGroup struct {
	Title string       `yaml:"title"`
	Items []FooterLink `yaml:"items"`
}

// FooterLink mirrors NavbarItem without positioning.
type FooterLink struct {
	Label string `yaml:"label"`
	To    string `yaml:"to,omitempty"`
	Href  string `yaml:"href,omitempty"`
}

// ThemeConfig controls the color scheme behavior. Zero values match the
// shipped theme: system default mode, switch shown.
type ThemeConfig struct {
	DefaultMode               ThemeMode `yaml:"default_mode,omitempty"`
	DisableSwitch             bool      `yaml:"disable_switch,omitempty"`
	RespectPrefersColorScheme bool      `yaml:"respect_prefers_color_scheme,omitempty"`
}

// HeroConfig is the homepage banner.
type HeroConfig struct {
	Title    string `yaml:"title,omitempty"`
	Subtitle string `yaml:"subtitle,omitempty"`
	CTALabel string `yaml:"cta_label,omitempty"`
	CTATo    string `yaml:"cta_to,omitempty"`
}

// FeatureItem is one homepage feature card. Items render in declaration
// order, one card each; position in the list is their identity.
type FeatureItem struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Link        string `yaml:"link"`
	Icon        string `yaml:"icon,omitempty"`
}

// DocsConfig locates the documentation content.
type DocsConfig struct {
	Dir         string `yaml:"dir,omitempty"`
	SidebarFile string `yaml:"sidebar_file,omitempty"`
	RouteBase   string `yaml:"route_base,omitempty"` // route prefix for doc pages, under base_url
	EditURL     string `yaml:"edit_url,omitempty"`   // base for "edit this page" links
}

// BuildConfig controls the build command.
type BuildConfig struct {
	Output        string          `yaml:"output,omitempty"`
	Clean         bool            `yaml:"clean,omitempty"` // drop the previous-output backup after promote
	BrokenLinks   BrokenLinksMode `yaml:"broken_links,omitempty"`
	Drafts        bool            `yaml:"drafts,omitempty"`
	IncludeFuture bool            `yaml:"include_future,omitempty"`
	DisableSearch bool            `yaml:"disable_search,omitempty"`
	Concurrency   int             `yaml:"concurrency,omitempty"` // parallel page renders, 0 = GOMAXPROCS
}

// ServeConfig controls the serve and preview commands.
type ServeConfig struct {
	Port      int           `yaml:"port,omitempty"`
	AdminPort int           `yaml:"admin_port,omitempty"` // 0 disables the admin listener
	Metrics   MetricsConfig `yaml:"metrics,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// CheckConfig controls link checking.
type CheckConfig struct {
	External    bool          `yaml:"external,omitempty"`
	Timeout     string        `yaml:"timeout,omitempty"` // per-request, time.ParseDuration format
	Parallelism int           `yaml:"parallelism,omitempty"`
	Notify      *NotifyConfig `yaml:"notify,omitempty"`
}

// NotifyConfig wires broken-link results into NATS: findings publish to
// Subject and external check results cache in the KV bucket so repeated
// runs (and other sites sharing the bucket) skip known-good URLs.
type NotifyConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	URL        string `yaml:"url,omitempty"`
	Subject    string `yaml:"subject,omitempty"`
	KVBucket   string `yaml:"kv_bucket,omitempty"`
	CacheTTL   string `yaml:"cache_ttl,omitempty"`
	FailureTTL string `yaml:"failure_ttl,omitempty"` // shorter TTL so failures re-verify sooner
}

// GitConfig enables git-derived page metadata.
type GitConfig struct {
	LastUpdated bool   `yaml:"last_updated,omitempty"`
	EditLinks   bool   `yaml:"edit_links,omitempty"`
	Branch      string `yaml:"branch,omitempty"`
}

// LintConfig controls the lint command.
type LintConfig struct {
	RequireUID         bool `yaml:"require_uid,omitempty"`
	RequireFingerprint bool `yaml:"require_fingerprint,omitempty"`
	MaxDescription     int  `yaml:"max_description,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load reads, expands, normalizes, defaults and validates the
// configuration at path. Environment files (.env, .env.local) are
// loaded first so ${VAR} references in the YAML resolve against them.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from raw YAML. Split from Load so tests and the
// preview rebuild loop can feed bytes directly.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	warnings := normalize(&cfg)
	for _, w := range warnings {
		slog.Warn("config normalization", slog.String("detail", w))
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// loadEnvFiles loads the first environment file that exists. Existing
// process environment always wins; godotenv does not override.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("could not load environment file", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("loaded environment file", logfields.Path(p))
		return
	}
}
