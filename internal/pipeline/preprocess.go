package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Placeholder delimiters use Unicode Private Use Area characters. The marker
// between them is regenerated per run until it does not occur in the input,
// so a placeholder can never match document text.
const (
	placeholderStart = "\uE000"
	placeholderEnd   = "\uE001"
)

// Placeholder kinds.
const (
	kindFenced = "F"
	kindInline = "I"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommentStripper removes LaTeX-style % comments from prose while leaving
// code blocks (backtick or tilde fences, indented blocks) and inline code
// spans byte-for-byte intact.
type CommentStripper struct {
	// newMarker is swapped in tests to force marker collisions.
	newMarker func() string
}

// PreprocessMarkdown normalizes line endings and strips comments outside code.
func (p *CommentStripper) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = normalizeLineEndings(content)

	marker := p.marker(content)
	fenced := newSideTable(marker, kindFenced)
	inline := newSideTable(marker, kindInline)

	text := stashCodeBlocks(content, fenced)
	text = stashCodeSpans(text, inline)

	text = stripComments(text)
	text = compressBlankLines(text)

	text = inline.restore(text)
	text = fenced.restore(text)
	return text
}

// marker returns a token proven absent from content.
func (p *CommentStripper) marker(content string) string {
	gen := p.newMarker
	if gen == nil {
		gen = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
	}
	for {
		m := gen()
		if m != "" && !strings.Contains(content, m) {
			return m
		}
	}
}

// sideTable holds protected text and the placeholders standing in for it.
type sideTable struct {
	marker string
	kind   string
	values []string
}

func newSideTable(marker, kind string) *sideTable {
	return &sideTable{marker: marker, kind: kind}
}

func (t *sideTable) token(i int) string {
	return placeholderStart + t.marker + t.kind + strconv.Itoa(i) + placeholderEnd
}

func (t *sideTable) stash(s string) string {
	t.values = append(t.values, s)
	return t.token(len(t.values) - 1)
}

func (t *sideTable) restore(s string) string {
	if len(t.values) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(t.values))
	for i, v := range t.values {
		pairs = append(pairs, t.token(i), v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// stripComments removes % comments line by line. A line holding only a
// comment is dropped; a trailing comment is cut along with the whitespace
// before it.
func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		idx := commentStart(line)
		if idx < 0 {
			out = append(out, line)
			continue
		}
		kept := strings.TrimRight(line[:idx], " \t")
		if strings.TrimSpace(kept) == "" {
			continue
		}
		out = append(out, kept)
	}
	return strings.Join(out, "\n")
}

// commentStart returns the byte offset of the first % that opens a comment,
// or -1. A % opens a comment at the start of a line or after whitespace.
// Escaped \% and percent signs glued to text (50%, %20) are literal. On a
// table row a % with a later | belongs to a cell and is literal too.
func commentStart(line string) int {
	row := strings.HasPrefix(strings.TrimLeft(line, " \t"), "|")
	for i := 0; i < len(line); i++ {
		if line[i] != '%' {
			continue
		}
		if i != 0 && line[i-1] != ' ' && line[i-1] != '\t' {
			continue
		}
		if row && strings.Contains(line[i+1:], "|") {
			continue
		}
		return i
	}
	return -1
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// stashCodeBlocks replaces fenced and indented code blocks with placeholders.
// A fence opens with at least three backticks or tildes and closes on a line
// holding a run of the same character at least as long. An unterminated
// fence protects nothing. Indented blocks start after a blank line.
func stashCodeBlocks(text string, table *sideTable) string {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	b.Grow(len(text))

	prevBlank := true
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if ch, n, ok := fenceOpen(line); ok {
			if end := fenceEnd(lines[i+1:], ch, n); end >= 0 {
				last := i + 1 + end
				writeStashed(&b, table, lines[i:last+1])
				i = last
				prevBlank = false
				continue
			}
		}

		if prevBlank && isIndentedCode(line) {
			last := i
			for j := i + 1; j < len(lines); j++ {
				if isIndentedCode(lines[j]) {
					last = j
				} else if !isBlank(lines[j]) {
					break
				}
			}
			writeStashed(&b, table, lines[i:last+1])
			i = last
			prevBlank = false
			continue
		}

		b.WriteString(line)
		prevBlank = isBlank(line)
	}
	return b.String()
}

// writeStashed stashes a run of lines, keeping the final newline outside the
// placeholder so the next line still starts a line of its own.
func writeStashed(b *strings.Builder, table *sideTable, lines []string) {
	block := strings.Join(lines, "")
	trimmed := strings.TrimSuffix(block, "\n")
	b.WriteString(table.stash(trimmed))
	b.WriteString(block[len(trimmed):])
}

// fenceOpen reports whether line opens a code fence and returns the fence
// character and run length.
func fenceOpen(line string) (byte, int, bool) {
	rest, ok := fenceIndent(line)
	if !ok || rest == "" || (rest[0] != '`' && rest[0] != '~') {
		return 0, 0, false
	}
	ch := rest[0]
	n := runLength(rest, ch)
	if n < 3 {
		return 0, 0, false
	}
	if ch == '`' && strings.IndexByte(rest[n:], '`') >= 0 {
		return 0, 0, false
	}
	return ch, n, true
}

// fenceEnd returns the index in lines of the fence closer, or -1.
func fenceEnd(lines []string, ch byte, n int) int {
	for i, line := range lines {
		rest, ok := fenceIndent(line)
		if !ok {
			continue
		}
		m := runLength(rest, ch)
		if m >= n && strings.TrimSpace(rest[m:]) == "" {
			return i
		}
	}
	return -1
}

// fenceIndent strips up to three leading spaces; more makes the line
// indented code rather than a fence.
func fenceIndent(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	if i > 3 {
		return "", false
	}
	return line[i:], true
}

func isIndentedCode(line string) bool {
	if isBlank(line) {
		return false
	}
	return strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "    ")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// stashCodeSpans replaces inline code spans with placeholders. A span opens
// with a run of N backticks and closes at the next run of exactly N on the
// same line. Runs without a closer and escaped backticks stay literal.
func stashCodeSpans(text string, table *sideTable) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		switch text[i] {
		case '\\':
			if i+1 < len(text) && text[i+1] == '`' {
				b.WriteString(text[i : i+2])
				i += 2
				continue
			}
		case '`':
			n := runLength(text[i:], '`')
			if end := closingRun(text[i+n:], n); end >= 0 {
				stop := i + n + end + n
				b.WriteString(table.stash(text[i:stop]))
				i = stop
				continue
			}
			b.WriteString(text[i : i+n])
			i += n
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

// closingRun returns the offset in s of the next run of exactly n backticks
// before a newline, or -1.
func closingRun(s string, n int) int {
	for j := 0; j < len(s); {
		switch s[j] {
		case '\n':
			return -1
		case '`':
			m := runLength(s[j:], '`')
			if m == n {
				return j
			}
			j += m
		default:
			j++
		}
	}
	return -1
}

// runLength counts the leading bytes of s equal to ch.
func runLength(s string, ch byte) int {
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	return n
}
