package config

import (
	"fmt"
	"sort"
	"strings"
)

// enumSet maps user-facing strings onto a typed enum, case-folding on
// lookup. Keeping one implementation here stops each enum from growing
// its own slightly different parsing.
type enumSet[T ~string] struct {
	values map[string]T
	keys   []string
}

func newEnumSet[T ~string](values ...T) enumSet[T] {
	m := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for _, v := range values {
		k := strings.ToLower(strings.TrimSpace(string(v)))
		m[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return enumSet[T]{values: m, keys: keys}
}

// normalize case-folds raw into the enum, falling back to def for
// unknown input. ok reports whether raw was recognized (empty input is
// not recognized but also not an error for callers applying defaults).
func (e enumSet[T]) normalize(raw string, def T) (value T, ok bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if v, exists := e.values[cleaned]; exists {
		return v, true
	}
	return def, false
}

func (e enumSet[T]) check(raw T) error {
	if _, ok := e.values[string(raw)]; ok {
		return nil
	}
	return fmt.Errorf("invalid value %q, valid options: %v", string(raw), e.keys)
}

// NavbarPosition places a navbar item on the left or right edge.
type NavbarPosition string

const (
	NavbarLeft  NavbarPosition = "left"
	NavbarRight NavbarPosition = "right"
)

var navbarPositions = newEnumSet(NavbarLeft, NavbarRight)

// FooterStyle selects the footer palette.
type FooterStyle string

const (
	FooterLight FooterStyle = "light"
	FooterDark  FooterStyle = "dark"
)

var footerStyles = newEnumSet(FooterLight, FooterDark)

// ThemeMode is the color scheme a visitor lands on.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

var themeModes = newEnumSet(ThemeLight, ThemeDark, ThemeSystem)

// BrokenLinksMode decides what a broken internal link does to a build.
type BrokenLinksMode string

const (
	BrokenLinksError  BrokenLinksMode = "error"
	BrokenLinksWarn   BrokenLinksMode = "warn"
	BrokenLinksIgnore BrokenLinksMode = "ignore"
)

var brokenLinksModes = newEnumSet(BrokenLinksError, BrokenLinksWarn, BrokenLinksIgnore)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = newEnumSet(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormats = newEnumSet(LogFormatText, LogFormatJSON)
