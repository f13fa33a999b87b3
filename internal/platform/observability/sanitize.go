package observability

import (
	"strings"
	"unicode"
)

// logSafe drops control characters and keeps at most limit runes, so values
// taken from the request cannot break a JSON log line or flood it.
func logSafe(value string, limit int) string {
	kept := 0
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || kept >= limit {
			return -1
		}
		kept++
		return r
	}, value)
}

// SanitizeSessionID keeps only a short prefix of the visitor session id.
func SanitizeSessionID(id string) string {
	return logSafe(id, 12)
}
