// Package gitmeta derives page metadata from the git repository the
// docs live in: last-updated timestamps and "edit this page" links.
// Everything here degrades to absence; a site outside a repository
// still builds.
package gitmeta

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/notesite/internal/config"
	"git.home.luguber.info/inful/notesite/internal/content"
	"git.home.luguber.info/inful/notesite/internal/logfields"
)

// ErrNoRepository indicates the docs directory is not inside a git
// worktree.
var ErrNoRepository = errors.New("no git repository found")

// Collector reads commit metadata for files under the docs dir.
type Collector struct {
	repo     *git.Repository
	root     string // worktree root, absolute
	docsDir  string // absolute
	branch   string
	editBase string

	lastUpdated bool
	editLinks   bool
}

// Open locates the repository containing the docs directory. The
// search walks upward, so the docs dir may sit anywhere inside the
// worktree.
func Open(cfg *config.Config) (*Collector, error) {
	docsAbs, err := filepath.Abs(cfg.Docs.Dir)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(docsAbs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNoRepository, docsAbs)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}

	c := &Collector{
		repo:        repo,
		root:        wt.Filesystem.Root(),
		docsDir:     docsAbs,
		branch:      cfg.Git.Branch,
		lastUpdated: cfg.Git.LastUpdated,
		editLinks:   cfg.Git.EditLinks,
	}
	c.editBase = c.resolveEditBase(cfg.Docs.EditURL)
	return c, nil
}

// Commit returns the current HEAD hash.
func (c *Collector) Commit() string {
	head, err := c.repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// LastUpdated returns the committer time of the newest commit touching
// the file. The zero time means the file has no history yet.
func (c *Collector) LastUpdated(sourcePath string) (time.Time, bool) {
	if !c.lastUpdated {
		return time.Time{}, false
	}
	rel, err := c.repoRelative(sourcePath)
	if err != nil {
		return time.Time{}, false
	}

	iter, err := c.repo.Log(&git.LogOptions{
		FileName: &rel,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		return time.Time{}, false
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, false
	}
	return commit.Committer.When, true
}

// EditURL returns the web edit link for the file, or "" when edit
// links are disabled or no base could be determined.
func (c *Collector) EditURL(sourcePath string) string {
	if !c.editLinks || c.editBase == "" {
		return ""
	}
	rel, err := c.repoRelative(sourcePath)
	if err != nil {
		return ""
	}
	return c.editBase + rel
}

// resolveEditBase prefers the configured edit URL and otherwise
// derives one from the origin remote, GitHub-style
// (<origin>/edit/<branch>/). Forges with other edit routes need the
// explicit configuration.
func (c *Collector) resolveEditBase(configured string) string {
	if configured != "" {
		if !strings.HasSuffix(configured, "/") {
			configured += "/"
		}
		return configured
	}
	if !c.editLinks {
		return ""
	}

	origin := c.originWebURL()
	if origin == "" {
		slog.Warn("edit links enabled but no origin remote found; set docs.edit_url")
		return ""
	}
	return origin + "/edit/" + c.branch + "/"
}

// originWebURL normalizes the origin remote to a browsable URL.
func (c *Collector) originWebURL() string {
	remote, err := c.repo.Remote("origin")
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return WebURL(urls[0])
}

// WebURL converts a git remote URL to its https browsing form.
// Returns "" for URLs it cannot interpret.
func WebURL(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	switch {
	case strings.HasPrefix(remote, "https://"), strings.HasPrefix(remote, "http://"):
		return remote
	case strings.HasPrefix(remote, "git@"):
		// git@host:owner/repo -> https://host/owner/repo
		rest := strings.TrimPrefix(remote, "git@")
		host, path, ok := strings.Cut(rest, ":")
		if !ok {
			return ""
		}
		return "https://" + host + "/" + path
	case strings.HasPrefix(remote, "ssh://git@"):
		rest := strings.TrimPrefix(remote, "ssh://git@")
		host, path, ok := strings.Cut(rest, "/")
		if !ok {
			return ""
		}
		// Drop an explicit port, web UIs do not live there.
		if h, _, found := strings.Cut(host, ":"); found {
			host = h
		}
		return "https://" + host + "/" + path
	}
	return ""
}

func (c *Collector) repoRelative(sourcePath string) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the repository", sourcePath)
	}
	return rel, nil
}

// Annotate fills LastUpdated and EditURL on every page. Missing
// history for individual files is logged at debug level only; brand
// new files legitimately have none.
func (c *Collector) Annotate(pages []*content.Page) {
	for _, p := range pages {
		if when, ok := c.LastUpdated(p.SourcePath); ok {
			p.LastUpdated = when
		} else if c.lastUpdated {
			slog.Debug("no git history for page", logfields.File(p.RelPath))
		}
		p.EditURL = c.EditURL(p.SourcePath)
	}
}
