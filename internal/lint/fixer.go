package lint

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
	"git.home.luguber.info/inful/notesite/internal/frontmatterops"
	"git.home.luguber.info/inful/notesite/internal/slug"
)

// Fixer applies the automatic fixes the rules advertise: filling in
// missing titles and uids and refreshing stale fingerprints. Filename
// problems and invalid existing values stay manual.
type Fixer struct {
	linter *Linter
	opts   Options
	now    func() time.Time
	in     io.Reader
	out    io.Writer
}

// NewFixer wraps a linter with fix application.
func NewFixer(linter *Linter, opts Options) *Fixer {
	return &Fixer{
		linter: linter,
		opts:   opts,
		now:    time.Now,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// FileFix records what changed, or would change in dry-run, in one file.
type FileFix struct {
	Path    string
	Actions []string
}

// FixResult summarizes a fix run.
type FixResult struct {
	Fixes       []FileFix
	IssuesFixed int
	DryRun      bool
	Canceled    bool
	Errors      []error
}

const (
	actionTitle       = "title"
	actionUID         = "uid"
	actionFingerprint = "fingerprint"
)

// Fix lints the given paths and applies every fixable issue. In
// dry-run mode it only reports the plan; otherwise it asks for
// confirmation first unless the yes option is set.
func (f *Fixer) Fix(paths []string) (*FixResult, error) {
	lintResult, err := f.linter.LintPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("lint before fix: %w", err)
	}

	plan, counts := f.plan(lintResult)
	res := &FixResult{DryRun: f.opts.DryRun}
	if len(plan) == 0 {
		return res, nil
	}

	files := make([]string, 0, len(plan))
	for p := range plan {
		files = append(files, p)
	}
	sort.Strings(files)

	if f.opts.DryRun {
		for _, p := range files {
			res.Fixes = append(res.Fixes, FileFix{Path: p, Actions: orderedActions(plan[p])})
			res.IssuesFixed += counts[p]
		}
		return res, nil
	}

	if !f.opts.Yes && !f.confirm(len(files)) {
		res.Canceled = true
		return res, nil
	}

	for _, p := range files {
		fix, err := f.fixFile(p, plan[p])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if len(fix.Actions) > 0 {
			res.Fixes = append(res.Fixes, fix)
			res.IssuesFixed += counts[p]
		}
	}
	return res, nil
}

// plan maps each file to the set of fixable actions its issues call
// for, keyed off the exact messages the rules emit.
func (f *Fixer) plan(result *Result) (map[string]map[string]bool, map[string]int) {
	plan := make(map[string]map[string]bool)
	counts := make(map[string]int)

	add := func(path, action string) {
		if plan[path] == nil {
			plan[path] = make(map[string]bool)
		}
		plan[path][action] = true
		counts[path]++
	}

	for _, issue := range result.Issues {
		switch {
		case issue.Rule == frontmatterRuleName && issue.Message == missingTitleMessage:
			add(issue.FilePath, actionTitle)
		case issue.Rule == uidRuleName && issue.Message == missingUIDMessage:
			add(issue.FilePath, actionUID)
		case issue.Rule == fingerprintRuleName && issue.Message == staleFingerprintMessage:
			add(issue.FilePath, actionFingerprint)
		}
	}
	return plan, counts
}

func (f *Fixer) fixFile(path string, actions map[string]bool) (FileFix, error) {
	fix := FileFix{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return fix, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return fix, fmt.Errorf("front matter must parse before fixing: %w", err)
	}

	changed := false
	if actions[actionTitle] {
		if frontmatterops.EnsureTitle(doc.Fields, titleFallback(path)) {
			changed = true
			fix.Actions = append(fix.Actions, actionTitle)
		}
	}
	if actions[actionUID] {
		if _, c, err := frontmatterops.EnsureUID(doc.Fields); err != nil {
			return fix, err
		} else if c {
			changed = true
			fix.Actions = append(fix.Actions, actionUID)
		}
	}

	// Refresh the fingerprint when asked, and also when another fix
	// touched hashed content in a document that already carries one.
	_, hasFingerprint := doc.Fields[mdfp.FingerprintField]
	if actions[actionFingerprint] || (changed && hasFingerprint) {
		if _, c, err := frontmatterops.UpsertFingerprint(doc.Fields, doc.Body, f.now()); err != nil {
			return fix, err
		} else if c {
			changed = true
			fix.Actions = append(fix.Actions, actionFingerprint)
		}
	}

	if !changed {
		return fix, nil
	}

	out, err := frontmatter.Encode(doc)
	if err != nil {
		return fix, err
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, out, mode); err != nil {
		return fix, err
	}
	return fix, nil
}

func (f *Fixer) confirm(n int) bool {
	plural := ""
	if n != 1 {
		plural = "s"
	}
	fmt.Fprintf(f.out, "Apply fixes to %d file%s? [y/N] ", n, plural)

	sc := bufio.NewScanner(f.in)
	if !sc.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

// titleFallback derives a display title the same way page labels fall
// back: the file name, or the directory name for index pages, with any
// ordering prefix stripped and the rest humanized.
func titleFallback(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "index" {
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != "/" {
			stem = dir
		}
	}
	if rest, _, ok := slug.SplitOrderPrefix(stem); ok {
		stem = rest
	}
	return slug.Humanize(stem)
}

// orderedActions lists a plan's actions in the order fixFile applies
// them, so dry-run output matches what a real run would report.
func orderedActions(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, a := range []string{actionTitle, actionUID, actionFingerprint} {
		if set[a] {
			out = append(out, a)
		}
	}
	return out
}
