package mdblog

import (
	"regexp"
	"time"

	"github.com/alnah/go-mdblog/internal/dateutil"
)

// datePrefix matches a "YYYY-MM-DD-" slug prefix. Captures: 1=date, 2=rest
var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

// NormalizeDate converts a frontmatter date value to ISO-8601 with
// milliseconds in UTC (2024-01-05T00:00:00.000Z). YAML timestamps and
// date strings are accepted. Returns false for anything else.
func NormalizeDate(value any) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return dateutil.FormatISO(v), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return NormalizeDate(*v)
	case string:
		t, err := dateutil.ParseFlexible(v)
		if err != nil {
			return "", false
		}
		return dateutil.FormatISO(t), true
	default:
		return "", false
	}
}

// SlugDate returns the date encoded in a "YYYY-MM-DD-name" slug.
func SlugDate(slug string) (string, bool) {
	m := datePrefix.FindStringSubmatch(slug)
	if m == nil {
		return "", false
	}
	return NormalizeDate(m[1])
}

// FormatDate renders an ISO date for display. format is a token format
// ("MMM D, YYYY") or a preset name: "card" for listings, "post" for
// article headers. An empty date yields "".
func FormatDate(iso, format string) (string, error) {
	return dateutil.Format(iso, format)
}
