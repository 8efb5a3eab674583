package language

import (
	"errors"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
)

// ErrNoPreferences reports an empty language preference list.
var ErrNoPreferences = errors.New("at least one language preference is required")

// ParsePreferences flattens comma-separated values, validates each entry as a
// BCP 47 tag, and returns them in their written order with duplicates
// removed. Deprecated codes such as "iw" are kept as written because caption
// services still report them.
func ParsePreferences(values []string) ([]string, error) {
	prefs := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, raw := range strings.Split(value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			tag, err := xlanguage.Raw.Parse(strings.ReplaceAll(raw, "_", "-"))
			if err != nil {
				return nil, fmt.Errorf("language preference %q: %w", raw, err)
			}
			canonical := tag.String()
			key := strings.ToLower(canonical)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			prefs = append(prefs, canonical)
		}
	}
	if len(prefs) == 0 {
		return nil, ErrNoPreferences
	}
	return prefs, nil
}

// HasPrefix reports whether a track language code starts with the preference,
// ignoring case. A preference of "en" therefore matches "en", "en-US", and
// "en-GB" alike.
func HasPrefix(code, pref string) bool {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if pref == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), pref)
}

// Equal reports whether two language codes are the same tag, ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
