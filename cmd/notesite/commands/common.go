// Package commands defines the CLI surface. Each command maps onto
// one internal package; flag handling and human-facing output live
// here, behavior lives there.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// logLevelEnv overrides the configured log level without touching the
// configuration file.
const logLevelEnv = "NOTESITE_LOG_LEVEL"

// Global carries state shared across subcommands if we need it later.
type Global struct{}

// CLI is the root command grammar and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"notesite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Initialize a new site in the current directory"`
	New     NewCmd     `cmd:"" help:"Create a new documentation page"`
	Build   BuildCmd   `cmd:"" help:"Build the static site"`
	Serve   ServeCmd   `cmd:"" help:"Serve a built site"`
	Preview PreviewCmd `cmd:"" help:"Build, serve and rebuild on change"`
	Check   CheckCmd   `cmd:"" help:"Verify links in the built site"`
	Lint    LintCmd    `cmd:"" help:"Lint documentation sources"`
	Builds  BuildsCmd  `cmd:"" help:"Show build history"`
}

// AfterApply installs a provisional logger so configuration loading
// already logs properly; commands re-apply the configured settings
// after loading.
func (c *CLI) AfterApply() error {
	setupLogging(config.LoggingConfig{}, c.Verbose)
	return nil
}

// setupLogging installs the process logger. Precedence: --verbose,
// then NOTESITE_LOG_LEVEL, then the configured level.
func setupLogging(lc config.LoggingConfig, verbose bool) {
	level := slog.LevelInfo
	switch lc.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if env := os.Getenv(logLevelEnv); env != "" {
		switch config.LogLevel(env) {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelInfo:
			level = slog.LevelInfo
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configured file and applies its logging
// settings.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Logging, root.Verbose)
	return cfg, nil
}

// openStore opens the build history store. History is optional: on
// failure commands proceed without it.
func openStore() *buildstore.Store {
	store, err := buildstore.Open(buildstore.DefaultPath)
	if err != nil {
		slog.Warn("build history unavailable", logfields.Error(err))
		return nil
	}
	return store
}
