package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/notesite/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Port            int           `short:"p" help:"Preview server port (overrides serve.port)"`
	Output          string        `short:"o" help:"Output directory (defaults to a temp dir removed on exit)"`
	RebuildInterval time.Duration `name:"rebuild-interval" help:"Periodic full rebuild interval so scheduled pages publish, e.g. 10m (0 disables)"`
	NoLiveReload    bool          `name:"no-live-reload" help:"Disable the reload client and SSE endpoint"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	port := p.Port
	if port == 0 {
		port = cfg.Serve.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return preview.Run(ctx, cfg, root.Config, preview.Options{
		Port:            port,
		OutputDir:       p.Output,
		RebuildInterval: p.RebuildInterval,
		LiveReload:      !p.NoLiveReload,
	})
}
