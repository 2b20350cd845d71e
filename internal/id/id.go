package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind classifies an identifier for diagnostics
type Kind string

const (
	KindUUID  Kind = "uuid"
	KindOther Kind = "other"
	KindEmpty Kind = "empty"
)

// IsUUID checks if a string is a valid hyphenated UUID
func IsUUID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Classify reports what kind of identifier s is
func Classify(s string) Kind {
	switch {
	case strings.TrimSpace(s) == "":
		return KindEmpty
	case IsUUID(s):
		return KindUUID
	default:
		return KindOther
	}
}

// CheckUserID returns a warning when s does not look like a user UUID.
// Account ids in the exports are UUIDs; anything else is usually a
// copy-paste mistake or an unsubstituted placeholder.
func CheckUserID(label, s string) string {
	switch Classify(s) {
	case KindEmpty:
		return fmt.Sprintf("%s is empty", label)
	case KindOther:
		return fmt.Sprintf("%s %q is not a UUID", label, s)
	}
	if s != strings.ToLower(s) {
		return fmt.Sprintf("%s %q has upper-case hex digits; source rows are matched case-sensitively", label, s)
	}
	return ""
}
