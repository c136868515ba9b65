package linkedin

import (
	"regexp"
	"strings"
)

// canonicalPrefix is the normalized profile URL form.
const canonicalPrefix = "https://www.linkedin.com/in/"

var (
	inPattern  = regexp.MustCompile(`(?i)linkedin\.com/in/([^/?#]+)`)
	pubPattern = regexp.MustCompile(`(?i)linkedin\.com/pub/([^/?#]+)`)
)

// Normalize canonicalizes a raw LinkedIn profile URL into the form
// https://www.linkedin.com/in/<username> and also returns the bare username.
// It is total: any input yields a usable result, and normalizing an
// already-canonical URL returns the same value.
func Normalize(raw string) (url string, username string) {
	username = Username(raw)
	if username == "" {
		return "", ""
	}
	return canonicalPrefix + username, username
}

// Username extracts a stable profile handle from a raw LinkedIn URL or bare
// handle. Ordered matching: /in/<segment>, then the legacy /pub/<segment>
// form, then a split on the "linkedin.com/in/" marker, then the cleaned
// string itself (minus a leading @).
func Username(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimRight(cleaned, "/")
	if cleaned == "" {
		return ""
	}

	if m := inPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.ToLower(m[1])
	}
	if m := pubPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.ToLower(m[1])
	}

	lower := strings.ToLower(cleaned)
	if idx := strings.Index(lower, "linkedin.com/in/"); idx >= 0 {
		rest := lower[idx+len("linkedin.com/in/"):]
		if cut := strings.IndexAny(rest, "/?"); cut >= 0 {
			rest = rest[:cut]
		}
		if rest != "" {
			return rest
		}
	}

	// No recognizable URL shape: treat the whole thing as a handle.
	return strings.ToLower(strings.TrimPrefix(cleaned, "@"))
}

// IsLinkedInURL reports whether the string looks like a LinkedIn URL. This is
// intentionally permissive: any string containing "linkedin.com" passes, with
// no structural validation.
func IsLinkedInURL(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "linkedin.com")
}
