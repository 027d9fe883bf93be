package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/notesite/cmd/notesite/commands"
	"git.home.luguber.info/inful/notesite/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("notesite"),
		kong.Description("Static documentation site generator for Markdown notes."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}))
}
