// Package videoid extracts canonical video identifiers from free-form input.
package videoid

import (
	"regexp"
	"strings"

	"tubescribe/internal/services"
)

// Length is the number of characters in a canonical identifier.
const Length = 11

var (
	queryPattern = regexp.MustCompile(`[?&]v=([0-9A-Za-z_-]{11})`)
	pathPattern  = regexp.MustCompile(`/([0-9A-Za-z_-]{11})(?:[/?#&]|$)`)
	barePattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	tailPattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{1,11}`)
	safePattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{1,11}$`)
)

// Resolve returns the identifier embedded in reference. It accepts a watch URL
// carrying a v= parameter, a URL whose path holds the identifier (short links,
// embeds, shorts), or a bare identifier. As a last resort the characters that
// follow the final "v=" are taken, up to the identifier length, stopping at
// the first character outside the identifier alphabet.
func Resolve(reference string) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", services.Wrap(services.ErrInvalidReference, "resolve", "parse reference", "reference is empty", nil)
	}
	if m := queryPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if m := pathPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if barePattern.MatchString(ref) {
		return ref, nil
	}
	if idx := strings.LastIndex(ref, "v="); idx >= 0 {
		if tail := tailPattern.FindString(ref[idx+2:]); tail != "" {
			return tail, nil
		}
	}
	return "", services.Wrap(services.ErrInvalidReference, "resolve", "parse reference", "no video identifier in "+quote(ref), nil)
}

// Valid reports whether id has the canonical identifier shape.
func Valid(id string) bool {
	return barePattern.MatchString(id)
}

// Safe reports whether id uses only identifier characters and fits the
// identifier length, which makes it usable as a file name.
func Safe(id string) bool {
	return safePattern.MatchString(id)
}

func quote(s string) string {
	return `"` + s + `"`
}
