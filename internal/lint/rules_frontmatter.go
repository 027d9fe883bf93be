package lint

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
)

const (
	frontmatterRuleName = "frontmatter"

	missingTitleMessage = "missing title in front matter"
)

// FrontmatterRule validates the common front-matter fields. Pages work
// without front matter because titles fall back to the first heading
// or the file name, so absence is a warning while type errors are hard
// errors.
type FrontmatterRule struct {
	// MaxDescription is the description length above which a warning is
	// reported. Zero disables the check.
	MaxDescription int
}

// Name returns the rule identifier.
func (r *FrontmatterRule) Name() string {
	return frontmatterRuleName
}

// AppliesTo covers Markdown documents.
func (r *FrontmatterRule) AppliesTo(path string) bool {
	return IsDocFile(path)
}

// Check validates the front-matter block.
func (r *FrontmatterRule) Check(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		return []Issue{{
			FilePath:    path,
			Severity:    SeverityError,
			Rule:        frontmatterRuleName,
			Message:     fmt.Sprintf("invalid front matter: %v", err),
			Explanation: "Front matter must be a YAML mapping between --- delimiters.",
			Fix:         "fix the YAML syntax at the top of the file",
			Line:        1,
		}}, nil
	}

	var issues []Issue
	report := func(sev Severity, msg, explanation, fix string) {
		issues = append(issues, Issue{
			FilePath:    path,
			Severity:    sev,
			Rule:        frontmatterRuleName,
			Message:     msg,
			Explanation: explanation,
			Fix:         fix,
			Line:        1,
		})
	}

	if v, ok := doc.Fields["title"]; !ok || v == nil {
		report(SeverityWarning, missingTitleMessage,
			"Without a title the page label falls back to the first heading or the file name.",
			"run: notesite lint --fix (fills the title from the file name)")
	} else if s, isStr := v.(string); !isStr {
		report(SeverityError, fmt.Sprintf("title must be a string, got %T", v),
			"A non-string title is ignored and the fallback label is used instead.",
			"quote the title value in the front matter")
	} else if strings.TrimSpace(s) == "" {
		report(SeverityWarning, missingTitleMessage,
			"A blank title behaves like a missing one.",
			"run: notesite lint --fix (fills the title from the file name)")
	}

	if v, ok := doc.Fields["sidebar_position"]; ok {
		if n, isInt := v.(int); !isInt {
			report(SeverityError, fmt.Sprintf("sidebar_position must be an integer, got %T", v),
				"Non-integer positions are ignored and the page sorts by title instead.",
				"use a whole number, e.g. sidebar_position: 2")
		} else if n < 0 {
			report(SeverityError, fmt.Sprintf("sidebar_position must not be negative, got %d", n),
				"Negative positions are ignored and the page sorts by title instead.",
				"use zero or a positive number")
		}
	}

	if v, ok := doc.Fields["description"]; ok && v != nil {
		if s, isStr := v.(string); !isStr {
			report(SeverityError, fmt.Sprintf("description must be a string, got %T", v),
				"The description feeds meta tags and search results.",
				"quote the description value")
		} else if r.MaxDescription > 0 && utf8.RuneCountInString(s) > r.MaxDescription {
			report(SeverityWarning,
				fmt.Sprintf("description is %d characters, limit is %d", utf8.RuneCountInString(s), r.MaxDescription),
				"Long descriptions get truncated in search results and link previews.",
				"shorten the description")
		}
	}

	if v, ok := doc.Fields["draft"]; ok && v != nil {
		if _, isBool := v.(bool); !isBool {
			report(SeverityError, fmt.Sprintf("draft must be a boolean, got %T", v),
				"A quoted \"true\" is a string and the page publishes anyway.",
				"use draft: true without quotes")
		}
	}

	if _, ok := doc.Fields["date"]; ok {
		if _, parsed := doc.Time("date"); !parsed {
			report(SeverityWarning, "date is not in a recognized format",
				"Unparseable dates disable scheduled publishing for this page. "+
					"Use RFC 3339 or YYYY-MM-DD.",
				"rewrite the date, e.g. date: 2025-06-01")
		}
	}

	return issues, nil
}
