package commands

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/notesite/internal/content"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	ID    string `arg:"" help:"Document id relative to the docs directory, e.g. guides/setup"`
	Title string `help:"Page title (defaults to one derived from the id)"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	path, err := content.CreateDoc(cfg.Docs.Dir, n.ID, n.Title)
	if errors.Is(err, content.ErrDocExists) {
		return err
	}
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
