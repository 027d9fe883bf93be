package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/linkcheck"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// CheckCmd implements the 'check' command. It verifies the built site,
// so run it after a build.
type CheckCmd struct {
	External bool   `help:"Probe external links over HTTP"`
	Timeout  string `help:"Per-request timeout for external probes (overrides check.timeout)"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dir := cfg.Build.Output
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no built site at %s, run notesite build first", dir)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	findings, err := linkcheck.VerifyDir(dir, cfg.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("verify site: %w", err)
	}
	for _, f := range findings {
		fmt.Printf("✗ %s: broken link %s (<%s> line %d)\n", f.File, f.URL, f.Tag, f.Line)
	}
	broken := len(findings)

	if c.External || cfg.Check.External {
		n, err := c.checkExternal(ctx, cfg, dir)
		if err != nil {
			return err
		}
		broken += n
	}

	if broken > 0 {
		fmt.Printf("%d broken links found\n", broken)
		os.Exit(1)
	}
	fmt.Println("✓ All links resolve.")
	return nil
}

// checkExternal probes every outbound URL in the built site and
// reports the number of broken ones. With notifications configured the
// NATS KV bucket acts as the probe cache and failures publish events.
func (c *CheckCmd) checkExternal(ctx context.Context, cfg *config.Config, dir string) (int, error) {
	externals, err := linkcheck.CollectExternal(dir)
	if err != nil {
		return 0, fmt.Errorf("collect external links: %w", err)
	}
	if len(externals) == 0 {
		fmt.Println("No external links to check.")
		return 0, nil
	}

	timeout := cfg.Check.Timeout
	if c.Timeout != "" {
		timeout = c.Timeout
	}

	var cache linkcheck.Cache
	var notifier *linkcheck.Notifier
	if n := cfg.Check.Notify; n != nil && n.Enabled {
		notifier, err = linkcheck.NewNotifier(n, siteIdentity(cfg))
		if err != nil {
			slog.Warn("link notifications unavailable, falling back to in-memory cache", logfields.Error(err))
			notifier = nil
		} else {
			defer func() { _ = notifier.Close() }()
			cache = notifier
		}
	}
	if cache == nil {
		cache = linkcheck.NewMemoryCache(0, 0)
	}

	checker := linkcheck.NewChecker(timeout, cfg.Check.Parallelism, cache)
	results, err := checker.Check(ctx, externals)
	if err != nil {
		return 0, fmt.Errorf("check external links: %w", err)
	}

	sources := make(map[string][]string, len(externals))
	for _, ext := range externals {
		sources[ext.URL] = ext.Sources
	}

	broken := 0
	for _, res := range results {
		if res.OK {
			continue
		}
		broken++
		if res.Error != "" {
			fmt.Printf("✗ external %s: %s\n", res.URL, res.Error)
		} else {
			fmt.Printf("✗ external %s: HTTP %d\n", res.URL, res.Status)
		}
		if notifier == nil {
			continue
		}
		for _, src := range sources[res.URL] {
			if err := notifier.PublishBroken(ctx, res, src); err != nil {
				slog.Warn("broken link event not published",
					logfields.URL(res.URL), logfields.Error(err))
			}
		}
	}
	fmt.Printf("Checked %d external links\n", len(results))
	return broken, nil
}

// siteIdentity names this site in published events.
func siteIdentity(cfg *config.Config) string {
	if cfg.Site.URL != "" {
		return cfg.Site.URL
	}
	return cfg.Site.Title
}
