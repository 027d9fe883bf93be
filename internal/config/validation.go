package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// validate checks the configuration after normalization and defaults.
func validate(cfg *Config) error {
	v := &configValidator{cfg: cfg}
	return v.validate()
}

// configValidator coordinates validation across configuration domains.
type configValidator struct {
	cfg *Config
}

func (v *configValidator) validate() error {
	checks := []func() error{
		v.validateSite,
		v.validateNavbar,
		v.validateFooter,
		v.validateTheme,
		v.validateHero,
		v.validateFeatures,
		v.validateBuild,
		v.validateCheck,
		v.validatePaths,
		v.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (v *configValidator) validateSite() error {
	if strings.TrimSpace(v.cfg.Site.Title) == "" {
		return errors.New("site.title is required")
	}
	b := v.cfg.Site.BaseURL
	if !strings.HasPrefix(b, "/") || !strings.HasSuffix(b, "/") {
		return fmt.Errorf("site.base_url must start and end with '/': %s", b)
	}
	if u := v.cfg.Site.URL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("site.url must be an absolute http(s) URL: %s", u)
	}
	return nil
}

func (v *configValidator) validateNavbar() error {
	for i, item := range v.cfg.Navbar {
		if strings.TrimSpace(item.Label) == "" {
			return fmt.Errorf("navbar[%d]: label is required", i)
		}
		if err := exactlyOneTarget(item.To, item.Href); err != nil {
			return fmt.Errorf("navbar[%d] (%s): %w", i, item.Label, err)
		}
		if err := navbarPositions.check(item.Position); err != nil {
			return fmt.Errorf("navbar[%d] (%s): position: %w", i, item.Label, err)
		}
	}
	return nil
}

func (v *configValidator) validateFooter() error {
	if err := footerStyles.check(v.cfg.Footer.Style); err != nil {
		return fmt.Errorf("footer.style: %w", err)
	}
	for gi, group := range v.cfg.Footer.Links {
		if strings.TrimSpace(group.Title) == "" {
			return fmt.Errorf("footer.links[%d]: title is required", gi)
		}
		for li, link := range group.Items {
			if strings.TrimSpace(link.Label) == "" {
				return fmt.Errorf("footer.links[%d].items[%d]: label is required", gi, li)
			}
			if err := exactlyOneTarget(link.To, link.Href); err != nil {
				return fmt.Errorf("footer.links[%d].items[%d] (%s): %w", gi, li, link.Label, err)
			}
		}
	}
	return nil
}

func (v *configValidator) validateTheme() error {
	if err := themeModes.check(v.cfg.Theme.DefaultMode); err != nil {
		return fmt.Errorf("theme.default_mode: %w", err)
	}
	return nil
}

func (v *configValidator) validateHero() error {
	h := v.cfg.Hero
	if (h.CTALabel == "") != (h.CTATo == "") {
		return errors.New("hero.cta_label and hero.cta_to must be set together")
	}
	return nil
}

func (v *configValidator) validateFeatures() error {
	for i, f := range v.cfg.Features {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("features[%d]: title is required", i)
		}
		if strings.TrimSpace(f.Link) == "" {
			return fmt.Errorf("features[%d] (%s): link is required", i, f.Title)
		}
	}
	return nil
}

func (v *configValidator) validateBuild() error {
	if err := brokenLinksModes.check(v.cfg.Build.BrokenLinks); err != nil {
		return fmt.Errorf("build.broken_links: %w", err)
	}
	return nil
}

func (v *configValidator) validateCheck() error {
	if _, err := time.ParseDuration(v.cfg.Check.Timeout); err != nil {
		return fmt.Errorf("invalid check.timeout: %s: %w", v.cfg.Check.Timeout, err)
	}
	if v.cfg.Check.Parallelism < 1 {
		return fmt.Errorf("check.parallelism must be at least 1: %d", v.cfg.Check.Parallelism)
	}
	n := v.cfg.Check.Notify
	if n == nil || !n.Enabled {
		return nil
	}
	if n.URL == "" {
		return errors.New("check.notify.url is required when notify is enabled")
	}
	for field, ttl := range map[string]string{
		"check.notify.cache_ttl":   n.CacheTTL,
		"check.notify.failure_ttl": n.FailureTTL,
	} {
		if _, err := time.ParseDuration(ttl); err != nil {
			return fmt.Errorf("invalid %s: %s: %w", field, ttl, err)
		}
	}
	return nil
}

// validatePaths rejects layouts where the build output would feed back
// into the content tree (the preview watcher would rebuild forever).
func (v *configValidator) validatePaths() error {
	out := filepath.Clean(v.cfg.Build.Output)
	docs := filepath.Clean(v.cfg.Docs.Dir)

	if out == docs {
		return fmt.Errorf("build.output (%s) must not equal docs.dir (%s)", out, docs)
	}
	if isWithin(docs, out) {
		return fmt.Errorf("build.output (%s) must not be inside docs.dir (%s)", out, docs)
	}
	if isWithin(out, docs) {
		return fmt.Errorf("docs.dir (%s) must not be inside build.output (%s)", docs, out)
	}
	return nil
}

// isWithin reports whether child is lexically inside parent.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

func (v *configValidator) validateLogging() error {
	if err := logLevels.check(v.cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if err := logFormats.check(v.cfg.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	return nil
}

func exactlyOneTarget(to, href string) error {
	hasTo := strings.TrimSpace(to) != ""
	hasHref := strings.TrimSpace(href) != ""
	switch {
	case hasTo && hasHref:
		return errors.New("'to' and 'href' are mutually exclusive")
	case !hasTo && !hasHref:
		return errors.New("one of 'to' or 'href' is required")
	}
	return nil
}
