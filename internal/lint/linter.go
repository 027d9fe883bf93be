package lint

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/notesite/internal/config"
)

// Linter applies every configured rule to documentation files.
type Linter struct {
	opts  Options
	rules []Rule
}

// NewLinter assembles the rule set from the site configuration. The
// uid and fingerprint rules only run when the config asks for them.
func NewLinter(cfg *config.Config, opts Options) *Linter {
	if opts.Format == "" {
		opts.Format = "text"
	}

	rules := []Rule{
		&FilenameRule{},
		&FrontmatterRule{MaxDescription: cfg.Lint.MaxDescription},
	}
	if cfg.Lint.RequireUID {
		rules = append(rules, &UIDRule{})
	}
	if cfg.Lint.RequireFingerprint {
		rules = append(rules, &FingerprintRule{})
	}

	return &Linter{opts: opts, rules: rules}
}

// LintPath lints a file or every documentation file under a directory.
func (l *Linter) LintPath(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	result := &Result{Issues: []Issue{}}
	if info.IsDir() {
		err = l.lintDirectory(path, result)
	} else {
		result.FilesTotal = 1
		err = l.lintFile(path, result)
	}
	return result, err
}

// LintPaths lints several paths into one result.
func (l *Linter) LintPaths(paths []string) (*Result, error) {
	combined := &Result{Issues: []Issue{}}
	for _, p := range paths {
		res, err := l.LintPath(p)
		if err != nil {
			return combined, err
		}
		combined.Issues = append(combined.Issues, res.Issues...)
		combined.FilesTotal += res.FilesTotal
	}
	return combined, nil
}

func (l *Linter) lintDirectory(dir string, result *Result) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Hidden files and directories are not content.
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isIgnoredFile(d.Name()) {
			return nil
		}
		if !IsDocFile(path) && !IsAssetFile(path) {
			return nil
		}

		result.FilesTotal++
		return l.lintFile(path, result)
	})
}

func (l *Linter) lintFile(path string, result *Result) error {
	for _, rule := range l.rules {
		if !rule.AppliesTo(path) {
			continue
		}
		issues, err := rule.Check(path)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			if l.opts.Quiet && issue.Severity != SeverityError {
				continue
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	return nil
}

// isIgnoredFile reports whether the file is a standard repository file
// that does not follow documentation naming conventions.
func isIgnoredFile(name string) bool {
	switch strings.ToUpper(name) {
	case "README.MD", "CONTRIBUTING.MD", "CHANGELOG.MD", "LICENSE.MD", "CODE_OF_CONDUCT.MD", "SECURITY.MD":
		return true
	}
	return false
}
