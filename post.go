package mdblog

import (
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-mdblog/internal/fileutil"
)

// Post field defaults.
const (
	DefaultAuthor = "Anonymous"

	// SummaryLength caps the generated summary, in runes.
	SummaryLength = 200

	twitterBase = "https://twitter.com/"
)

// Post is the page-level view of a converted content file.
// Field names match the JSON props consumed by templates and `render --json`.
type Post struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Summary  string    `json:"summary"`
	Content  string    `json:"content"`
	Date     string    `json:"date"` // ISO-8601 UTC with milliseconds, "" when unknown
	Tags     []string  `json:"tags"`
	Author   string    `json:"author"`
	Twitter  string    `json:"twitter"`
	TOC      bool      `json:"toc"`
	Outline  []Heading `json:"outline,omitempty"`
}

// NewPost builds post props from a converted document. Missing fields get
// defaults: author "Anonymous", empty twitter, empty tag list. The date comes
// from the frontmatter, else from a "YYYY-MM-DD-" slug prefix, else stays empty.
func NewPost(slug string, doc *Document) *Post {
	if doc == nil {
		doc = &Document{}
	}
	meta := doc.Metadata

	p := &Post{
		Slug:    slug,
		Content: doc.HTML,
		Title:   stringField(meta, "title"),
		Author:  stringField(meta, "author"),
		Twitter: stringField(meta, "twitter"),
		Tags:    listField(meta, "tags"),
		TOC:     boolField(meta, "toc"),
	}

	if p.Title == "" {
		p.Title = slug
	}
	if p.Author == "" {
		p.Author = DefaultAuthor
	}

	if date, ok := NormalizeDate(meta["date"]); ok {
		p.Date = date
	} else if date, ok := SlugDate(slug); ok {
		p.Date = date
	}

	p.Subtitle = stringField(meta, "subtitle")
	p.Summary = stringField(meta, "description")
	if p.Summary == "" {
		p.Summary = doc.Summary(SummaryLength)
	}

	if p.TOC {
		p.Outline = doc.Outline()
	}
	return p
}

// TwitterURL returns the author link. Full URLs pass through, handles such
// as "@alice" become profile URLs, and an empty value stays empty.
func (p *Post) TwitterURL() string {
	h := strings.TrimSpace(p.Twitter)
	switch {
	case h == "":
		return ""
	case fileutil.IsURL(h):
		return h
	default:
		return twitterBase + strings.TrimPrefix(h, "@")
	}
}

// Time returns the parsed post date, or the zero time when the date is unknown.
func (p *Post) Time() time.Time {
	if p.Date == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// stringField returns a scalar metadata value as a trimmed string.
func stringField(meta map[string]any, key string) string {
	s, _ := scalarString(meta[key])
	return strings.TrimSpace(s)
}

// listField returns a list metadata value as strings in order. Anything that
// is not a list yields an empty list, never nil.
func listField(meta map[string]any, key string) []string {
	out := []string{}
	switch v := meta[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func boolField(meta map[string]any, key string) bool {
	b, _ := meta[key].(bool)
	return b
}

// scalarString formats YAML scalars. Mappings, lists and null are rejected.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case time.Time:
		return s.UTC().Format(time.DateOnly), true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}
