// Package slug converts names into URL-safe identifiers and validates them.
// Tenant slugs are lowercase, ASCII, hyphen-separated, and unique per
// deployment.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

// pattern accepts lowercase alphanumerics separated by single hyphens.
var pattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// MaxLength caps slug length for DNS and URL compatibility.
const MaxLength = 63

// Make converts s into a slug: lowercase, non-alphanumerics collapsed into
// single hyphens, trimmed to MaxLength.
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLower(r) && r <= unicode.MaxASCII, unicode.IsDigit(r) && r <= unicode.MaxASCII:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimSuffix(out[:MaxLength], "-")
	}
	return out
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	return s != "" && len(s) <= MaxLength && pattern.MatchString(s)
}
