package util

import (
	"strings"

	"github.com/google/uuid"
)

// shortIDLen is the number of leading hex characters shown for a UUID.
const shortIDLen = 8

// ShortID returns the first 8 characters of a UUID for display. Other values
// are returned unchanged.
func ShortID(id string) string {
	if len(id) != 36 || !IsUUID(id) {
		return id
	}
	return id[:shortIDLen]
}

// IsUUID reports whether s is a well-formed UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// MatchPrefix returns the id in ids that starts with prefix (case-insensitive)
// and the number of ids that matched. match is empty unless count is 1.
func MatchPrefix(ids []string, prefix string) (match string, count int) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", 0
	}
	for _, id := range ids {
		if strings.HasPrefix(strings.ToLower(id), prefix) {
			match = id
			count++
		}
	}
	if count != 1 {
		return "", count
	}
	return match, count
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
