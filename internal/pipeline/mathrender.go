package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	katex "github.com/FurqanSoftware/goldmark-katex"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// MathMode selects how math spans are presented.
type MathMode string

// Math display policies.
const (
	// MathModeAuthor keeps inline math inline and display math in display mode.
	MathModeAuthor MathMode = "author"
	// MathModeDisplay renders every expression in display mode.
	MathModeDisplay MathMode = "display"
)

// DefaultMathErrorColor is the colour of math that fails to parse.
const DefaultMathErrorColor = "#cc0000"

// ErrInvalidMathMode reports an unknown math display policy.
var ErrInvalidMathMode = errors.New("invalid math mode")

// errEmptyMath is reported for $$ blocks holding only whitespace.
var errEmptyMath = errors.New("ParseError: KaTeX parse error: empty expression")

// ParseMathMode validates a policy name. Empty means MathModeAuthor.
func ParseMathMode(s string) (MathMode, error) {
	switch MathMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MathModeAuthor:
		return MathModeAuthor, nil
	case MathModeDisplay:
		return MathModeDisplay, nil
	default:
		return "", fmt.Errorf("%w: %q (must be author or display)", ErrInvalidMathMode, s)
	}
}

// mathRenderer expands math nodes to KaTeX HTML on the server. An
// expression KaTeX rejects degrades to an error span carrying KaTeX's own
// message; the rest of the document renders normally.
type mathRenderer struct {
	mode       MathMode
	errorColor string
	render     func(w *bytes.Buffer, src []byte, display bool) error
}

func newMathRenderer(mode MathMode, errorColor string) *mathRenderer {
	if mode == "" {
		mode = MathModeAuthor
	}
	if errorColor == "" {
		errorColor = DefaultMathErrorColor
	}
	return &mathRenderer{mode: mode, errorColor: errorColor, render: renderKaTeX}
}

func renderKaTeX(w *bytes.Buffer, src []byte, display bool) error {
	if len(bytes.TrimSpace(src)) == 0 {
		return errEmptyMath
	}
	return katex.Render(w, src, display)
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindInlineMath, r.renderInlineMath)
	reg.Register(KindMathBlock, r.renderMathBlock)
}

func (r *mathRenderer) renderInlineMath(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*InlineMath)

	var tex bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			tex.Write(t.Segment.Value(source))
		}
	}

	var out bytes.Buffer
	if err := r.render(&out, tex.Bytes(), n.Display || r.mode == MathModeDisplay); err != nil {
		r.writeError(w, tex.Bytes(), err)
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.Write(out.Bytes())
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) renderMathBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var tex bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		tex.Write(line.Value(source))
	}
	src := bytes.TrimSpace(tex.Bytes())

	var out bytes.Buffer
	if err := r.render(&out, src, true); err != nil {
		_, _ = w.WriteString("<p>")
		r.writeError(w, src, err)
		_, _ = w.WriteString("</p>\n")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<div class="math-block">`)
	_, _ = w.Write(out.Bytes())
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) writeError(w util.BufWriter, src []byte, err error) {
	_, _ = w.WriteString(`<span class="katex-error" title="`)
	_, _ = w.Write(util.EscapeHTML([]byte(err.Error())))
	_, _ = w.WriteString(`" style="color:`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.errorColor)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML(src))
	_, _ = w.WriteString("</span>")
}
