package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter renders a lint result for output.
type Formatter interface {
	Format(w io.Writer, result *Result, root string) error
}

// NewFormatter returns the formatter for the named format, defaulting
// to text.
func NewFormatter(format string) Formatter {
	if strings.EqualFold(format, "json") {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter renders results as human-readable text.
type TextFormatter struct{}

// Format writes issues grouped under their file followed by a summary.
func (f *TextFormatter) Format(w io.Writer, result *Result, root string) error {
	fmt.Fprintf(w, "Linting documentation in: %s\n", root)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	for _, issue := range result.Issues {
		f.formatIssue(w, issue)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "  %d files scanned\n", result.FilesTotal)

	if n := result.ErrorCount(); n > 0 {
		fmt.Fprintf(w, "  %d error%s\n", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		fmt.Fprintf(w, "  %d warning%s\n", n, pluralize(n))
	}
	fmt.Fprintln(w)

	switch {
	case result.HasErrors():
		fmt.Fprintln(w, "✗ Documentation has errors.")
		fmt.Fprintln(w, "  To auto-fix what can be fixed: notesite lint --fix")
	case result.HasWarnings():
		fmt.Fprintln(w, "⚠ Documentation has warnings. Consider fixing before commit.")
	default:
		fmt.Fprintln(w, "✓ All documentation passes linting.")
	}
	return nil
}

func (f *TextFormatter) formatIssue(w io.Writer, issue Issue) {
	var icon string
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	default:
		icon = "ℹ"
	}

	fmt.Fprintf(w, "%s %s\n", icon, issue.FilePath)
	fmt.Fprintf(w, "  %s: %s\n", issue.Severity, issue.Message)

	if issue.Explanation != "" {
		for _, line := range strings.Split(strings.TrimSpace(issue.Explanation), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if issue.Fix != "" {
		fmt.Fprintf(w, "  Fix: %s\n", issue.Fix)
	}
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter renders results as a machine-readable document.
type JSONFormatter struct{}

type jsonIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

type jsonReport struct {
	Root       string      `json:"root"`
	FilesTotal int         `json:"files_total"`
	Errors     int         `json:"errors"`
	Warnings   int         `json:"warnings"`
	Issues     []jsonIssue `json:"issues"`
}

// Format writes the result as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, root string) error {
	report := jsonReport{
		Root:       root,
		FilesTotal: result.FilesTotal,
		Errors:     result.ErrorCount(),
		Warnings:   result.WarningCount(),
		Issues:     make([]jsonIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		report.Issues = append(report.Issues, jsonIssue{
			File:     issue.FilePath,
			Line:     issue.Line,
			Severity: strings.ToLower(issue.Severity.String()),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
