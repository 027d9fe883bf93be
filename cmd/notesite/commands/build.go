package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/notesite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Output directory (overrides build.output)"`
	Drafts        bool   `help:"Include draft pages"`
	IncludeFuture bool   `name:"include-future" help:"Include future-dated pages"`
	SkipVerify    bool   `name:"skip-verify" help:"Skip output link verification"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Drafts {
		cfg.Build.Drafts = true
	}
	if b.IncludeFuture {
		cfg.Build.IncludeFuture = true
	}

	builder := site.NewBuilder(cfg, b.Output).SetSkipVerify(b.SkipVerify)
	if store := openStore(); store != nil {
		defer func() { _ = store.Close() }()
		builder.SetStore(store)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Site built: %d pages, %d assets in %s\n",
		report.RenderedPages, report.Assets,
		report.End.Sub(report.Start).Round(time.Millisecond))
	if n := len(report.Warnings); n > 0 {
		fmt.Printf("Warnings: %d (see log)\n", n)
	}
	fmt.Println("Output:", builder.OutputDir())
	return nil
}
