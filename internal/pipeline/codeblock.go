package pipeline

import (
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark/ast"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// DefaultHighlightStyle is the chroma style used for inline style fallbacks.
// Pages load class-based light and dark stylesheets.
const DefaultHighlightStyle = "github"

// codeBlockRenderer writes the <pre><code> wrapper from the classifier's
// annotations and delegates the highlighted body to goldmark-highlighting.
// Diagram blocks skip highlighting and keep their escaped source.
type codeBlockRenderer struct {
	highlight renderer.NodeRendererFunc
}

// newCodeBlockRenderer builds the chroma-backed highlighter and captures its
// fenced code function. Its own wrapper output is disabled.
func newCodeBlockRenderer(style string) *codeBlockRenderer {
	if style == "" {
		style = DefaultHighlightStyle
	}
	hl := highlighting.NewHTMLRenderer(
		highlighting.WithStyle(style),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		highlighting.WithWrapperRenderer(func(util.BufWriter, highlighting.CodeBlockContext, bool) {}),
	)
	capture := &funcCapture{kind: ast.KindFencedCodeBlock}
	hl.RegisterFuncs(capture)
	return &codeBlockRenderer{highlight: capture.fn}
}

// funcCapture records the render function another NodeRenderer registers.
type funcCapture struct {
	kind ast.NodeKind
	fn   renderer.NodeRendererFunc
}

// Register implements renderer.NodeRendererFuncRegisterer.
func (c *funcCapture) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	if kind == c.kind {
		c.fn = fn
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	if _, ok := node.AttributeString(DiagramAttribute); ok || r.highlight == nil {
		_, _ = w.WriteString("<pre><code")
		writeClass(w, node, DefaultCodeLanguage)
		_ = w.WriteByte('>')
		writeLines(w, source, node)
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<pre class="chroma"><code`)
	writeClass(w, node, DefaultCodeLanguage)
	_ = w.WriteByte('>')
	if _, err := r.highlight(w, source, node, true); err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<pre><code")
	writeClass(w, node, DefaultCodeLanguage)
	_ = w.WriteByte('>')
	writeLines(w, source, node)
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

// writeClass writes the class annotation, or language-<fallback> when the
// classifier stage did not run.
func writeClass(w util.BufWriter, node ast.Node, fallback string) {
	class := []byte("language-" + fallback)
	if v, ok := node.AttributeString("class"); ok {
		if b, ok := v.([]byte); ok {
			class = b
		}
	}
	_, _ = w.WriteString(` class="`)
	_, _ = w.Write(util.EscapeHTML(class))
	_ = w.WriteByte('"')
}

func writeLines(w util.BufWriter, source []byte, node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
}
