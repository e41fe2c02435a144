package identity

import "regexp"

// whisperIDPattern matches the external WhisperID format (spec §6):
// WSP-XXXX-XXXX-XXXX, each group 4 chars from the Base32 alphabet [A-Z2-7].
var whisperIDPattern = regexp.MustCompile(`^WSP-[A-Z2-7]{4}-[A-Z2-7]{4}-[A-Z2-7]{4}$`)

// ValidWhisperID reports whether id matches the external WhisperID format.
func ValidWhisperID(id string) bool {
	return whisperIDPattern.MatchString(id)
}
