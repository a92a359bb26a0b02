package geo

import (
	"strings"
	"unicode"
)

// Slug converts a preserve name to a filesystem-safe file stem. Letters,
// digits, spaces, dashes and underscores pass through; anything else
// becomes an underscore.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	return b.String()
}
