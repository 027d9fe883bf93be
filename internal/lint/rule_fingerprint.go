package lint

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
	"git.home.luguber.info/inful/notesite/internal/frontmatterops"
)

const (
	fingerprintRuleName     = "frontmatter-fingerprint"
	staleFingerprintMessage = "missing or stale fingerprint in front matter"
)

// FingerprintRule requires a current content fingerprint in every
// document. The fingerprint detects content drift without trusting
// file timestamps, and lastmod is only bumped when it changes.
type FingerprintRule struct{}

// Name returns the rule identifier.
func (r *FingerprintRule) Name() string {
	return fingerprintRuleName
}

// AppliesTo covers Markdown documents.
func (r *FingerprintRule) AppliesTo(path string) bool {
	return IsDocFile(path)
}

// Check recomputes the canonical fingerprint and compares.
func (r *FingerprintRule) Check(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		// Reported by the frontmatter rule; unverifiable here.
		return []Issue{r.staleIssue(path)}, nil
	}
	if !doc.Present {
		return []Issue{r.staleIssue(path)}, nil
	}

	current, err := frontmatterops.FingerprintCurrent(doc.Fields, doc.Body)
	if err != nil {
		return nil, fmt.Errorf("compute fingerprint: %w", err)
	}
	if !current {
		return []Issue{r.staleIssue(path)}, nil
	}
	return nil, nil
}

func (r *FingerprintRule) staleIssue(path string) Issue {
	return Issue{
		FilePath: path,
		Severity: SeverityError,
		Rule:     fingerprintRuleName,
		Message:  staleFingerprintMessage,
		Explanation: "This document is expected to carry a content fingerprint in its " +
			"front matter so content changes are detected reliably. The stored value " +
			"no longer matches the document.",
		Fix: "run: notesite lint --fix (regenerates fingerprints and bumps lastmod)",
	}
}
