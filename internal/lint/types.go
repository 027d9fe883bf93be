// Package lint checks the docs tree for authoring problems: file
// naming that breaks URLs, and front-matter that is missing, malformed,
// or stale. Error-level issues are the ones that degrade the built
// site; warnings are hygiene.
package lint

import (
	"path/filepath"
	"strings"
)

// Severity indicates the importance level of a lint issue.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't block builds.
	SeverityWarning
	// SeverityError indicates issues that degrade the built site.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single problem found in a file.
type Issue struct {
	FilePath    string   // Path to the file as scanned
	Severity    Severity // Issue severity level
	Rule        string   // Rule identifier, e.g. "filename"
	Message     string   // Brief description of the issue
	Explanation string   // Detailed explanation with context
	Fix         string   // Suggested fix or command to resolve
	Line        int      // Line number, 0 for file-level issues
}

// Result holds every issue found during a lint run.
type Result struct {
	Issues     []Issue
	FilesTotal int
}

// HasErrors reports whether any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Rule is a single lint check applied per file.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates a file and returns any issues found.
	Check(filePath string) ([]Issue, error)

	// AppliesTo reports whether this rule covers the given file.
	AppliesTo(filePath string) bool
}

// Options control a lint run.
type Options struct {
	// Quiet suppresses warnings and info, only showing errors.
	Quiet bool

	// Format selects the output format (text, json).
	Format string

	// DryRun shows what the fixer would change without writing.
	DryRun bool

	// Yes skips the confirmation prompt before applying fixes.
	Yes bool
}

// IsDocFile reports whether the file is a Markdown document.
func IsDocFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IsAssetFile reports whether the file is an image asset that ships
// with the docs.
func IsAssetFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp":
		return true
	}
	return false
}
