package lint

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const filenameRuleName = "filename"

// FilenameRule validates that file names survive the trip into URLs:
// lowercase, hyphen-separated, no stray extensions.
type FilenameRule struct{}

// Name returns the rule identifier.
func (r *FilenameRule) Name() string {
	return filenameRuleName
}

// AppliesTo covers documentation and asset files.
func (r *FilenameRule) AppliesTo(path string) bool {
	return IsDocFile(path) || IsAssetFile(path)
}

// Check validates filename conventions.
func (r *FilenameRule) Check(path string) ([]Issue, error) {
	name := filepath.Base(path)
	var issues []Issue

	if hasDoubleExtension(name) {
		issues = append(issues, Issue{
			FilePath: path,
			Severity: SeverityError,
			Rule:     filenameRuleName,
			Message:  "double extension detected",
			Explanation: "Files like name.md.bak or image.png.tmp are usually editor backups " +
				"that end up published alongside the real content.",
			Fix: "remove the backup file or move it outside the docs directory",
		})
		return issues, nil
	}

	if hasUppercase(name) {
		suggested := SuggestFilename(name)
		issues = append(issues, Issue{
			FilePath: path,
			Severity: SeverityError,
			Rule:     filenameRuleName,
			Message:  "filename contains uppercase letters",
			Explanation: "File names become URL slugs, and case sensitivity differs between " +
				"platforms. Current: " + name + ", suggested: " + suggested,
			Fix: "rename to " + suggested,
		})
	}

	if strings.Contains(name, " ") {
		suggested := SuggestFilename(name)
		issues = append(issues, Issue{
			FilePath: path,
			Severity: SeverityError,
			Rule:     filenameRuleName,
			Message:  "filename contains spaces",
			Explanation: "Spaces become %20 in URLs and break relative links. " +
				"Current: " + name + ", suggested: " + suggested,
			Fix: "rename to " + suggested,
		})
	}

	if invalid := findSpecialChars(name); len(invalid) > 0 {
		suggested := SuggestFilename(name)
		issues = append(issues, Issue{
			FilePath: path,
			Severity: SeverityError,
			Rule:     filenameRuleName,
			Message:  "filename contains special characters: " + strings.Join(invalid, ", "),
			Explanation: "Allowed characters are [a-z0-9-_.]. " +
				"Current: " + name + ", suggested: " + suggested,
			Fix: "rename to " + suggested,
		})
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasPrefix(stem, "-") || strings.HasPrefix(stem, "_") ||
		strings.HasSuffix(stem, "-") || strings.HasSuffix(stem, "_") {
		suggested := SuggestFilename(name)
		issues = append(issues, Issue{
			FilePath:    path,
			Severity:    SeverityError,
			Rule:        filenameRuleName,
			Message:     "filename has leading or trailing separators",
			Explanation: "Leading or trailing hyphens and underscores create malformed URLs.",
			Fix:         "rename to " + suggested,
		})
	}

	return issues, nil
}

// hasDoubleExtension detects stacked extensions like name.md.bak where
// the second-to-last part is itself a known extension.
func hasDoubleExtension(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return false
	}
	secondToLast := "." + parts[len(parts)-2]
	for _, ext := range []string{
		".md", ".markdown", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
		".tmp", ".bak", ".backup", ".old", ".orig",
		".yaml", ".yml", ".json", ".toml",
	} {
		if strings.EqualFold(secondToLast, ext) {
			return true
		}
	}
	return false
}

func hasUppercase(name string) bool {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// findSpecialChars returns the characters in name outside [a-z0-9-_.],
// uppercase excluded since it has its own check.
func findSpecialChars(name string) []string {
	seen := make(map[rune]bool)
	var out []string
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ' ':
		case unicode.IsUpper(r):
		default:
			if !seen[r] {
				out = append(out, string(r))
				seen[r] = true
			}
		}
	}
	return out
}

var (
	invalidFilenameChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	repeatedHyphens      = regexp.MustCompile(`-+`)
)

// SuggestFilename returns a conforming name: lowercased, spaces to
// hyphens, special characters dropped, separators trimmed, and stacked
// extensions collapsed to the last one.
func SuggestFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if parts := strings.Split(name, "."); len(parts) >= 3 {
		stem = strings.Join(parts[:len(parts)-1], ".")
		ext = "." + parts[len(parts)-1]
	}

	stem = strings.ToLower(stem)
	ext = strings.ToLower(ext)

	stem = strings.ReplaceAll(stem, " ", "-")
	stem = invalidFilenameChars.ReplaceAllString(stem, "")
	stem = repeatedHyphens.ReplaceAllString(stem, "-")
	stem = strings.Trim(stem, "-_")

	return stem + ext
}
