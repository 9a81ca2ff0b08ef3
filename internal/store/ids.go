package store

import (
	"strings"

	"github.com/google/uuid"
)

// newID returns prefix-<uuid>.
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func newItemID() string  { return newID("mi") }
func newEventID() string { return newID("ev") }

// normalizeSlug lowercases and trims a menu slug; spaces become dashes.
func normalizeSlug(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	if s == "" {
		return "", ValidationError{Field: "slug", Reason: "must not be empty"}
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", ValidationError{Field: "slug", Reason: "only letters, digits, '-' and '_' are allowed"}
		}
	}
	return s, nil
}
