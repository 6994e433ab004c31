package facts

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugFallback is used when slugification leaves nothing usable.
const slugFallback = "item"

// slugStripper decomposes accented characters and removes the combining
// marks, so "Rytíř" becomes "Rytir" before ASCII filtering.
var slugStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts raw text into a stable ASCII identifier. Diacritics
// are stripped, characters with no ASCII mapping are dropped, and every
// run of remaining non-alphanumerics collapses into a single underscore.
// The result is trimmed and lowercased; empty input yields "item".
// Slugify is idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(raw string) string {
	ascii, _, err := transform.String(slugStripper, raw)
	if err != nil {
		ascii = raw
	}

	var b strings.Builder
	b.Grow(len(ascii))
	pendingSep := false
	for _, r := range ascii {
		if r > unicode.MaxASCII {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}

	slug := b.String()
	if slug == "" {
		return slugFallback
	}
	return slug
}
