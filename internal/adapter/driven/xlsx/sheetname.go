package xlsx

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the longest worksheet name the format accepts, in characters.
const MaxSheetNameLength = 31

// DefaultSheetName replaces names that are empty after sanitization.
const DefaultSheetName = "Sheet"

// maxNameAttempts bounds how many numbered variants are tried for one name.
const maxNameAttempts = 99

// ErrSheetNameCollision indicates no unique worksheet name could be derived.
var ErrSheetNameCollision = errors.New("worksheet name collision")

var forbiddenSheetChars = strings.NewReplacer(
	"[", "_", "]", "_", "*", "_", "?", "_", "/", "_", `\`, "_", ":", "_",
)

// SanitizeSheetName makes name acceptable as a worksheet name: forbidden
// characters become underscores, surrounding apostrophes are dropped and the
// result is truncated to MaxSheetNameLength characters.
func SanitizeSheetName(name string) string {
	name = forbiddenSheetChars.Replace(name)
	name = strings.TrimSpace(strings.Trim(name, "'"))
	name = truncateRunes(name, MaxSheetNameLength)
	// Truncation can expose a trailing apostrophe.
	name = strings.TrimRight(name, "'")
	if name == "" {
		return DefaultSheetName
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// sheetNamer hands out sanitized worksheet names, unique within one workbook.
// Names compare case-insensitively, as spreadsheet applications do.
type sheetNamer struct {
	taken map[string]struct{}
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{taken: make(map[string]struct{})}
}

// name returns a unique name for title. On collision a " (n)" suffix is
// appended, shortening the base so the result still fits.
func (n *sheetNamer) name(title string) (string, error) {
	base := SanitizeSheetName(title)
	if n.claim(base) {
		return base, nil
	}

	for i := 2; i <= maxNameAttempts; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate := strings.TrimRight(truncateRunes(base, MaxSheetNameLength-len(suffix)), "' ") + suffix
		if n.claim(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrSheetNameCollision, title)
}

func (n *sheetNamer) claim(name string) bool {
	key := strings.ToLower(name)
	if _, ok := n.taken[key]; ok {
		return false
	}
	n.taken[key] = struct{}{}
	return true
}
