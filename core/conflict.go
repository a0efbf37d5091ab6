package core

import (
	"regexp"
	"strconv"
	"strings"
)

// conflictIdentifierPattern matches the provider's documented conflict wording
// verbatim. The parse is deliberately narrow: if the provider ever rephrases
// the message, detection degrades to a plain provider failure instead of
// guessing at alternate wordings.
var conflictIdentifierPattern = regexp.MustCompile(`Existing user ID=(\d+)`)

// ParseConflictIdentifier extracts the pre-existing external user id from a
// provider conflict message. The second return is false when the message does
// not carry a recognizable identifier.
func ParseConflictIdentifier(message string) (int64, bool) {
	match := conflictIdentifierPattern.FindStringSubmatch(strings.TrimSpace(message))
	if len(match) != 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
