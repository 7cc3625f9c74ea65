package model

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// hexSuffix returns the first n hex characters of a random UUID.
func hexSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// Slug folds diacritics, lowercases and replaces whitespace with underscores.
// Characters outside [a-z0-9_-] are dropped.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return b.String()
}

// NewCreatorID derives an id from the display name, falling back to the first
// platform handle, followed by 8 random hex characters: "ada_1f3c9e2a".
func NewCreatorID(displayName string, platforms []Platform) string {
	base := Slug(displayName)
	if base == "" && len(platforms) > 0 {
		base = Slug(platforms[0].Handle)
	}
	if base == "" {
		base = "creator"
	}
	return base + "_" + hexSuffix(8)
}

// NewSetID returns "set_" followed by 12 random hex characters.
func NewSetID() string { return "set_" + hexSuffix(12) }

// NewCardID returns "card_" followed by 12 random hex characters.
func NewCardID() string { return "card_" + hexSuffix(12) }
