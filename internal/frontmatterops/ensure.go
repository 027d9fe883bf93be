package frontmatterops

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// EnsureUID fills in a uid when the key is missing. An existing value
// is returned untouched even when it is not a valid UUID; a uid must
// never change once assigned, so repairing a malformed one is a manual
// decision.
func EnsureUID(fields map[string]any) (uid string, changed bool, err error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	if v, ok := fields["uid"]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), false, nil
		}
		return "", false, nil
	}

	uid = uuid.NewString()
	fields["uid"] = uid
	return uid, true, nil
}

// EnsureTitle sets title to fallback when it is missing, nil, or blank.
// A non-string title is left for the lint rule to report.
func EnsureTitle(fields map[string]any, fallback string) (changed bool) {
	if fields == nil {
		return false
	}

	v, ok := fields["title"]
	if !ok || v == nil {
		fields["title"] = fallback
		return true
	}

	s, ok := v.(string)
	if !ok {
		return false
	}
	if strings.TrimSpace(s) == "" {
		fields["title"] = fallback
		return true
	}
	return false
}
