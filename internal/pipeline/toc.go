package pipeline

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Default heading range for article outlines.
const (
	DefaultOutlineMinDepth = 2
	DefaultOutlineMaxDepth = 3
)

// Heading is one numbered entry of an article outline.
type Heading struct {
	Level  int    // source heading level, 1-6
	Depth  int    // nesting depth after normalization, 1-based
	Number string // hierarchical number such as "1.2."
	ID     string // anchor generated by the parser
	Text   string // plain heading text
}

// headingPattern matches h1-h6 tags with id attribute.
// Captures: 1=level, 2=id, 3=inner HTML (may contain inline tags)
var headingPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*\bid="([^"]*)"[^>]*>(.*?)</h[1-6]>`)

// htmlTagPattern matches HTML tags for stripping from heading text.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Outline returns the numbered headings of an article fragment between
// minDepth and maxDepth. Headings without IDs are skipped. Depth 0 values
// fall back to the defaults.
func Outline(htmlContent string, minDepth, maxDepth int) []Heading {
	if minDepth <= 0 {
		minDepth = DefaultOutlineMinDepth
	}
	if maxDepth <= 0 {
		maxDepth = DefaultOutlineMaxDepth
	}

	var headings []Heading
	numbering := &numberingState{}
	for _, m := range headingPattern.FindAllStringSubmatch(htmlContent, -1) {
		level, _ := strconv.Atoi(m[1])
		if level < minDepth || level > maxDepth {
			continue
		}
		num, depth := numbering.next(level)
		headings = append(headings, Heading{
			Level:  level,
			Depth:  depth,
			Number: num,
			ID:     html.UnescapeString(m[2]),
			Text:   stripHTMLTags(m[3]),
		})
	}
	return headings
}

// stripHTMLTags removes tags, decodes entities and trims whitespace, so the
// text is not double-encoded when templates escape it again.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// numberingState tracks hierarchical numbering. The first heading seen
// becomes depth 1 and skipped levels collapse to a direct child.
type numberingState struct {
	counters  [6]int
	minLevel  int
	lastDepth int
}

func (n *numberingState) next(level int) (string, int) {
	if n.minLevel == 0 {
		n.minLevel = level
	}

	depth := level - n.minLevel + 1
	if depth < 1 {
		depth = 1
	}
	// H2 -> H4 nests one level, not two
	if n.lastDepth > 0 && depth > n.lastDepth+1 {
		depth = n.lastDepth + 1
	}

	for i := depth; i < len(n.counters); i++ {
		n.counters[i] = 0
	}
	n.counters[depth-1]++
	n.lastDepth = depth

	parts := make([]string, depth)
	for i := 0; i < depth; i++ {
		parts[i] = strconv.Itoa(n.counters[i])
	}
	return strings.Join(parts, ".") + ".", depth
}
