package lint

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
)

const (
	uidRuleName       = "frontmatter-uid"
	missingUIDMessage = "missing uid in front matter"
	invalidUIDMessage = "invalid uid in front matter"
)

// UIDRule requires every document to carry a stable unique identifier.
// The uid survives renames and moves, so external references can find
// a page after it relocates.
type UIDRule struct{}

// Name returns the rule identifier.
func (r *UIDRule) Name() string {
	return uidRuleName
}

// AppliesTo covers Markdown documents.
func (r *UIDRule) AppliesTo(path string) bool {
	return IsDocFile(path)
}

// Check validates presence and format of the uid field.
func (r *UIDRule) Check(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		// The frontmatter rule reports the syntax problem; without a
		// parsed block the uid cannot exist either.
		return []Issue{r.missingIssue(path)}, nil
	}

	v, ok := doc.Fields["uid"]
	if !ok {
		return []Issue{r.missingIssue(path)}, nil
	}

	s, isStr := v.(string)
	if !isStr {
		return []Issue{r.invalidIssue(path, fmt.Sprintf("uid must be a string, got %T", v))}, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []Issue{r.invalidIssue(path, "uid is empty")}, nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return []Issue{r.invalidIssue(path, "uid must be a valid UUID")}, nil
	}

	return nil, nil
}

func (r *UIDRule) missingIssue(path string) Issue {
	return Issue{
		FilePath: path,
		Severity: SeverityError,
		Rule:     uidRuleName,
		Message:  missingUIDMessage,
		Explanation: "This document is expected to carry a stable unique identifier (uid) " +
			"in its front matter. The uid is generated once and never changes.",
		Fix: "run: notesite lint --fix (adds missing uids)",
	}
}

func (r *UIDRule) invalidIssue(path, detail string) Issue {
	return Issue{
		FilePath: path,
		Severity: SeverityError,
		Rule:     uidRuleName,
		Message:  invalidUIDMessage,
		Explanation: "The uid must be a valid UUID string and must never change once set. " +
			"Details: " + detail,
		Fix: "correct the uid by hand; the fixer never rewrites existing uids",
	}
}
