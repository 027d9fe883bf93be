package config

import "fmt"

// defaultApplier applies defaults for one configuration domain.
type defaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// applyDefaults runs every domain applier in dependency order.
func applyDefaults(cfg *Config) error {
	appliers := []defaultApplier{
		&siteDefaults{},
		&navbarDefaults{},
		&footerDefaults{},
		&themeDefaults{},
		&docsDefaults{},
		&buildDefaults{},
		&serveDefaults{},
		&checkDefaults{},
		&gitDefaults{},
		&lintDefaults{},
		&loggingDefaults{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", a.Domain(), err)
		}
	}
	return nil
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = "/"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	return nil
}

type navbarDefaults struct{}

func (navbarDefaults) Domain() string { return "navbar" }

func (navbarDefaults) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Navbar {
		if cfg.Navbar[i].Position == "" {
			cfg.Navbar[i].Position = NavbarLeft
		}
	}
	return nil
}

type footerDefaults struct{}

func (footerDefaults) Domain() string { return "footer" }

func (footerDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Footer.Style == "" {
		cfg.Footer.Style = FooterDark
	}
	return nil
}

type themeDefaults struct{}

func (themeDefaults) Domain() string { return "theme" }

func (themeDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Theme.DefaultMode == "" {
		cfg.Theme.DefaultMode = ThemeSystem
	}
	return nil
}

type docsDefaults struct{}

func (docsDefaults) Domain() string { return "docs" }

func (docsDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Docs.Dir == "" {
		cfg.Docs.Dir = "docs"
	}
	if cfg.Docs.SidebarFile == "" {
		cfg.Docs.SidebarFile = "sidebars.yaml"
	}
	if cfg.Docs.RouteBase == "" {
		cfg.Docs.RouteBase = "docs"
	}
	return nil
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Output == "" {
		cfg.Build.Output = "build"
	}
	if cfg.Build.BrokenLinks == "" {
		cfg.Build.BrokenLinks = BrokenLinksError
	}
	if cfg.Build.Concurrency < 0 {
		cfg.Build.Concurrency = 0
	}
	return nil
}

type serveDefaults struct{}

func (serveDefaults) Domain() string { return "serve" }

func (serveDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = 3000
	}
	if cfg.Serve.Metrics.Path == "" {
		cfg.Serve.Metrics.Path = "/metrics"
	}
	return nil
}

type checkDefaults struct{}

func (checkDefaults) Domain() string { return "check" }

func (checkDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Check.Timeout == "" {
		cfg.Check.Timeout = "10s"
	}
	if cfg.Check.Parallelism == 0 {
		cfg.Check.Parallelism = 8
	}
	if n := cfg.Check.Notify; n != nil {
		if n.URL == "" {
			n.URL = "nats://localhost:4222"
		}
		if n.Subject == "" {
			n.Subject = "notesite.links.broken"
		}
		if n.KVBucket == "" {
			n.KVBucket = "notesite-link-cache"
		}
		if n.CacheTTL == "" {
			n.CacheTTL = "24h"
		}
		if n.FailureTTL == "" {
			n.FailureTTL = "1h"
		}
	}
	return nil
}

type gitDefaults struct{}

func (gitDefaults) Domain() string { return "git" }

func (gitDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Git.Branch == "" {
		cfg.Git.Branch = "main"
	}
	return nil
}

type lintDefaults struct{}

func (lintDefaults) Domain() string { return "lint" }

func (lintDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Lint.MaxDescription == 0 {
		cfg.Lint.MaxDescription = 160
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}
