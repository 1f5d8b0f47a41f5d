package kv

import (
	"regexp"
	"strings"
)

// LegacyDatabaseName is recognized for one-time migration on behalf of
// pre-scoping users.
const LegacyDatabaseName = "MatchOpsLocal"

const userScopedPrefix = "matchops_user_"

const maxUserIDLength = 255

var validUserIDChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateUserID rejects empty/whitespace input, characters outside
// [A-Za-z0-9_-], and ids longer than 255 characters.
func ValidateUserID(userID string) error {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return errEmptyUserID
	}
	if len(trimmed) > maxUserIDLength {
		return errUserIDTooLong
	}
	if !validUserIDChars.MatchString(trimmed) {
		return errUserIDInvalidChars
	}
	return nil
}

// DatabaseName computes the deterministic per-user database name. The id is
// trimmed before use so ValidateUserID and the produced name agree on the
// same token.
func DatabaseName(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return userScopedPrefix + strings.TrimSpace(userID), nil
}

// IsUserScoped reports whether name was produced by DatabaseName.
func IsUserScoped(name string) bool {
	return strings.HasPrefix(name, userScopedPrefix) && len(name) > len(userScopedPrefix)
}

// ExtractUserID reverses DatabaseName; it round-trips with it.
func ExtractUserID(name string) (string, bool) {
	if !IsUserScoped(name) {
		return "", false
	}
	return strings.TrimPrefix(name, userScopedPrefix), true
}
