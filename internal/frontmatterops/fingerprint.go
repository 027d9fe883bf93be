// Package frontmatterops applies lint fixes to front-matter field maps:
// content fingerprints, uid assignment, and the lastmod bump that goes
// with a fingerprint change. It works on parsed fields so callers control
// how documents are read and written back.
package frontmatterops

import (
	"errors"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/notesite/internal/frontmatter"
)

const lastmodField = "lastmod"

// ComputeFingerprint hashes the canonical form of a document: its
// front-matter serialized with sorted keys and LF newlines, minus the
// fields that change without the content changing (the fingerprint
// itself, lastmod, uid), joined with the body.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case mdfp.FingerprintField, lastmodField, "uid":
			continue
		}
		forHash[k] = v
	}

	serialized := ""
	if len(forHash) > 0 {
		raw, err := frontmatter.EncodeFields(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		serialized = strings.TrimSuffix(string(raw), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(serialized, string(body)), nil
}

// UpsertFingerprint computes the canonical fingerprint and stores it in
// fields. When the stored value actually changes, lastmod is bumped to
// now in UTC, date-only. Updating lastmod cannot invalidate the
// fingerprint because lastmod is excluded from the hash.
func UpsertFingerprint(fields map[string]any, body []byte, now time.Time) (fingerprint string, changed bool, err error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	fingerprint, err = ComputeFingerprint(fields, body)
	if err != nil {
		return "", false, err
	}

	existing, _ := fields[mdfp.FingerprintField].(string)
	if existing == fingerprint {
		return fingerprint, false, nil
	}

	fields[mdfp.FingerprintField] = fingerprint
	fields[lastmodField] = now.UTC().Format("2006-01-02")
	return fingerprint, true, nil
}

// FingerprintCurrent reports whether the stored fingerprint matches the
// document's canonical hash.
func FingerprintCurrent(fields map[string]any, body []byte) (bool, error) {
	stored, ok := fields[mdfp.FingerprintField].(string)
	if !ok || strings.TrimSpace(stored) == "" {
		return false, nil
	}
	expected, err := ComputeFingerprint(fields, body)
	if err != nil {
		return false, err
	}
	return stored == expected, nil
}
