package commands

import (
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Paths []string `arg:"" optional:"" help:"Files or directories to lint (defaults to the docs directory)"`

	Fix    bool   `help:"Apply automatic fixes for fixable issues"`
	DryRun bool   `name:"dry-run" help:"With --fix, show planned fixes without writing"`
	Yes    bool   `short:"y" help:"With --fix, skip the confirmation prompt"`
	Quiet  bool   `short:"q" help:"Only report errors"`
	Format string `default:"text" enum:"text,json" help:"Output format (text, json)"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	if l.DryRun && !l.Fix {
		return fmt.Errorf("--dry-run only makes sense with --fix")
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	paths := l.Paths
	if len(paths) == 0 {
		paths = []string{cfg.Docs.Dir}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("lint target %s: %w", p, err)
		}
	}

	opts := lint.Options{
		Quiet:  l.Quiet,
		Format: l.Format,
		DryRun: l.DryRun,
		Yes:    l.Yes,
	}
	linter := lint.NewLinter(cfg, opts)

	if l.Fix {
		return l.runFix(linter, opts, paths)
	}

	result, err := linter.LintPaths(paths)
	if err != nil {
		return fmt.Errorf("lint: %w", err)
	}

	formatter := lint.NewFormatter(l.Format)
	if err := formatter.Format(os.Stdout, result, strings.Join(paths, ", ")); err != nil {
		return fmt.Errorf("format lint result: %w", err)
	}

	// Errors exit 2 so CI can distinguish them from warnings, which
	// exit 1 unless quiet mode asked to ignore them.
	switch {
	case result.HasErrors():
		os.Exit(2)
	case result.HasWarnings() && !l.Quiet:
		os.Exit(1)
	}
	return nil
}

func (l *LintCmd) runFix(linter *lint.Linter, opts lint.Options, paths []string) error {
	fixer := lint.NewFixer(linter, opts)
	res, err := fixer.Fix(paths)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	if res.Canceled {
		fmt.Println("No changes applied.")
		return nil
	}
	if len(res.Fixes) == 0 {
		fmt.Println("Nothing to fix.")
		return nil
	}

	verb := "Fixed"
	if res.DryRun {
		verb = "Would fix"
	}
	for _, fix := range res.Fixes {
		fmt.Printf("%s %s: %s\n", verb, fix.Path, strings.Join(fix.Actions, ", "))
	}
	fmt.Printf("%s %d issue%s in %d file%s\n",
		verb, res.IssuesFixed, pluralSuffix(res.IssuesFixed), len(res.Fixes), pluralSuffix(len(res.Fixes)))

	for _, ferr := range res.Errors {
		fmt.Fprintf(os.Stderr, "✗ %v\n", ferr)
	}
	if len(res.Errors) > 0 {
		os.Exit(2)
	}
	if res.DryRun {
		return nil
	}

	// Unfixable errors (bad filenames, invalid values) survive a fix
	// run, so lint again and keep the failing exit code for them.
	after, err := linter.LintPaths(paths)
	if err != nil {
		return fmt.Errorf("lint after fix: %w", err)
	}
	if after.HasErrors() {
		fmt.Printf("%d error%s remain%s, run notesite lint for details\n",
			after.ErrorCount(), pluralSuffix(after.ErrorCount()), singularSuffix(after.ErrorCount()))
		os.Exit(2)
	}
	return nil
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func singularSuffix(n int) string {
	if n == 1 {
		return "s"
	}
	return ""
}
