package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/notesite/internal/buildstore"
)

// BuildsCmd implements the 'builds' command. It reads the build
// history recorded by 'build' runs in the current directory.
type BuildsCmd struct {
	Limit int `short:"n" default:"20" help:"Number of builds to list"`
	Prune int `help:"Keep only the N most recent builds, deleting the rest"`
}

func (b *BuildsCmd) Run(_ *Global, _ *CLI) error {
	store, err := buildstore.Open(buildstore.DefaultPath)
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if b.Prune > 0 {
		deleted, err := store.Prune(ctx, b.Prune)
		if err != nil {
			return fmt.Errorf("prune build history: %w", err)
		}
		fmt.Printf("Pruned %d build%s\n", deleted, pluralSuffix(deleted))
	}

	records, err := store.Recent(ctx, b.Limit)
	if err != nil {
		return fmt.Errorf("read build history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUILD\tSTARTED\tDURATION\tOUTCOME\tPAGES\tWARNINGS\tBROKEN")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Millisecond),
			r.Outcome,
			r.Pages,
			r.Warnings,
			r.BrokenLinks,
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
