package pipeline

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/alnah/go-mdblog/internal/yamlutil"
)

// Sentinel errors for frontmatter extraction.
var (
	ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")
	ErrFrontmatterParse        = errors.New("failed to parse frontmatter")
)

const frontmatterDelimiter = "---"

// SplitFrontmatter separates a leading `---` delimited block from the body.
// If the content does not open with a delimiter line, had is false and body
// is the full input. The closing delimiter may be the last line of the input
// without a trailing newline.
func SplitFrontmatter(content []byte) (fm, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte(frontmatterDelimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]

	// Empty block: "---\n---\n"
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte(frontmatterDelimiter)) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + frontmatterDelimiter + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}

	closeEOF := []byte(nl + frontmatterDelimiter)
	if bytes.HasSuffix(rest, closeEOF) {
		end := len(rest) - len(closeEOF)
		return rest[:end+len(nl)], []byte{}, true, nil
	}

	return nil, nil, false, ErrMissingClosingDelimiter
}

// ExtractFrontmatter splits raw file text into metadata and Markdown body.
// Only the metadata block can produce an error; the body is returned as is.
func ExtractFrontmatter(content string) (map[string]any, string, error) {
	fm, body, had, err := SplitFrontmatter([]byte(content))
	if err != nil {
		return nil, "", err
	}
	if !had {
		return map[string]any{}, content, nil
	}

	meta, err := yamlutil.DecodeMapping(fm)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFrontmatterParse, err)
	}
	return meta, string(body), nil
}

// detectNewline reports the newline style of the first line.
func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
