package site

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-mdblog"
)

// cssRule splits a chroma CSS line into its optional leading comment, the
// selector list and the declaration block.
var cssRule = regexp.MustCompile(`^(/\*.*?\*/\s*)?([^{]+)(\{.*)$`)

// HighlightCSS generates the code block stylesheet for both themes. Each
// chroma style is scoped under html[data-theme=...] so the active theme
// picks its colors without swapping stylesheets.
func HighlightCSS(light, dark string) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []struct {
		theme mdblog.Theme
		style string
	}{
		{mdblog.ThemeLight, light},
		{mdblog.ThemeDark, dark},
	} {
		if !mdblog.IsHighlightStyle(s.style) {
			return nil, fmt.Errorf("%w: %q", mdblog.ErrInvalidHighlightStyle, s.style)
		}

		var css bytes.Buffer
		formatter := html.New(html.WithClasses(true))
		if err := formatter.WriteCSS(&css, styles.Get(s.style)); err != nil {
			return nil, fmt.Errorf("writing %s highlight css: %w", s.style, err)
		}

		fmt.Fprintf(&buf, "/* %s: %s */\n", s.theme, s.style)
		scopeCSS(&buf, css.Bytes(), fmt.Sprintf(`html[%s=%q]`, mdblog.ThemeAttribute, s.theme))
	}
	return buf.Bytes(), nil
}

// scopeCSS prefixes every selector of src with scope.
func scopeCSS(dst *bytes.Buffer, src []byte, scope string) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := sc.Text()
		m := cssRule.FindStringSubmatch(line)
		if m == nil {
			dst.WriteString(line)
			dst.WriteByte('\n')
			continue
		}

		selectors := strings.Split(m[2], ",")
		for i, sel := range selectors {
			selectors[i] = scope + " " + strings.TrimSpace(sel)
		}
		dst.WriteString(m[1])
		dst.WriteString(strings.Join(selectors, ", "))
		dst.WriteByte(' ')
		dst.WriteString(m[3])
		dst.WriteByte('\n')
	}
}
