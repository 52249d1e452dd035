package mdblog

import "strings"

// LegacyPrefix is the path prefix of the old dated post URLs.
const LegacyPrefix = "/blogs/"

// LegacyRedirect maps an old "/blogs/YYYY-MM-DD-slug" path to its canonical
// "/slug" location. ok is false when the path is not a dated legacy URL,
// including "/blogs/slug" without a date.
func LegacyRedirect(path string) (target string, ok bool) {
	rest, found := strings.CutPrefix(path, LegacyPrefix)
	if !found {
		return "", false
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}

	m := datePrefix.FindStringSubmatch(rest)
	if m == nil {
		return "", false
	}
	return "/" + m[2], true
}
