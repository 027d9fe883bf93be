package config

import (
	"fmt"
	"strings"
)

// normalize canonicalizes enumerated fields before defaults run, so
// "Dark" and "dark " both land on the same constant. Unknown values are
// left in place for validation to reject; case/whitespace coercions are
// reported as warnings.
func normalize(cfg *Config) []string {
	var warnings []string

	normalizeField(&cfg.Theme.DefaultMode, themeModes, "theme.default_mode", &warnings)
	normalizeField(&cfg.Footer.Style, footerStyles, "footer.style", &warnings)
	normalizeField(&cfg.Build.BrokenLinks, brokenLinksModes, "build.broken_links", &warnings)
	normalizeField(&cfg.Logging.Level, logLevels, "logging.level", &warnings)
	normalizeField(&cfg.Logging.Format, logFormats, "logging.format", &warnings)

	for i := range cfg.Navbar {
		field := fmt.Sprintf("navbar[%d].position", i)
		normalizeField(&cfg.Navbar[i].Position, navbarPositions, field, &warnings)
	}

	cfg.Site.BaseURL = normalizeBaseURL(cfg.Site.BaseURL)
	cfg.Docs.RouteBase = strings.Trim(cfg.Docs.RouteBase, "/")

	return warnings
}

func normalizeField[T ~string](field *T, set enumSet[T], name string, warnings *[]string) {
	raw := string(*field)
	if strings.TrimSpace(raw) == "" {
		*field = ""
		return
	}
	v, ok := set.normalize(raw, "")
	if !ok {
		// Keep the bad value so validation names it in its error.
		return
	}
	if string(v) != raw {
		*warnings = append(*warnings, fmt.Sprintf("normalized %s from %q to %q", name, raw, string(v)))
	}
	*field = v
}

// normalizeBaseURL coerces the base URL into the /.../ shape permalinks
// are built on. Empty stays empty for the default applier.
func normalizeBaseURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	b := strings.Trim(raw, "/")
	if b == "" {
		return "/"
	}
	return "/" + b + "/"
}
