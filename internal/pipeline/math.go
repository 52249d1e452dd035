package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindInlineMath is the node kind of $...$ and $$...$$ spans inside text.
var KindInlineMath = ast.NewNodeKind("InlineMath")

// InlineMath is a math span found inside a paragraph. Its children are raw
// text segments holding the TeX source without delimiters.
type InlineMath struct {
	ast.BaseInline

	// Display is true for spans written with $$ delimiters.
	Display bool
}

// Kind implements ast.Node.
func (n *InlineMath) Kind() ast.NodeKind { return KindInlineMath }

// Dump implements ast.Node.
func (n *InlineMath) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Display": boolString(n.Display),
	}, nil)
}

// NewInlineMath returns an empty InlineMath node.
func NewInlineMath(display bool) *InlineMath {
	return &InlineMath{Display: display}
}

// KindMathBlock is the node kind of $$ fenced math blocks.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock is a display equation written between two $$ lines.
type MathBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// NewMathBlock returns an empty MathBlock node.
func NewMathBlock() *MathBlock {
	return &MathBlock{}
}

// ---------------------------------------------------------------------------
// Inline parser
// ---------------------------------------------------------------------------

type inlineMathParser struct{}

func (p *inlineMathParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse recognizes $tex$ and $$tex$$ on the current line. The opener must not
// be followed by whitespace and the closer must not be preceded by it; a
// single $ closer followed by a digit is rejected so prices like "$5 and $10"
// stay text.
func (p *inlineMathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}

	body := line[delim:]
	if len(body) == 0 || util.IsSpace(body[0]) || body[0] == '$' {
		return nil
	}

	for i := 1; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
			continue
		case '$':
		default:
			continue
		}
		if util.IsSpace(body[i-1]) {
			continue
		}
		if delim == 2 {
			if i+1 >= len(body) || body[i+1] != '$' {
				continue
			}
		} else if i+1 < len(body) && isDigit(body[i+1]) {
			continue
		}

		node := NewInlineMath(delim == 2)
		start := seg.Start + delim
		node.AppendChild(node, ast.NewRawTextSegment(text.NewSegment(start, start+i)))
		block.Advance(delim + i + delim)
		return node
	}
	return nil
}

// ---------------------------------------------------------------------------
// Block parser
// ---------------------------------------------------------------------------

type mathBlockParser struct{}

var mathBlockIndentKey = parser.NewContextKey()

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

// Open accepts a line made of $$ and optional trailing whitespace.
func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	pc.Set(mathBlockIndentKey, pos)
	return NewMathBlock(), parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}

	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 && isMathFence(line[pos:]) {
		reader.Advance(segment.Len() - 1)
		return parser.Close
	}

	indent, _ := pc.Get(mathBlockIndentKey).(int)
	pos, padding := util.IndentPosition(line, reader.LineOffset(), indent)
	if pos < 0 {
		pos, padding = 0, 0
	}
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	pc.Set(mathBlockIndentKey, nil)
}

func (b *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (b *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

// isMathFence reports whether line is "$$" followed only by whitespace.
func isMathFence(line []byte) bool {
	return bytes.HasPrefix(line, []byte("$$")) && util.IsBlank(line[2:])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ---------------------------------------------------------------------------
// Extension
// ---------------------------------------------------------------------------

// mathExtension enables $ math parsing and registers the math renderer.
type mathExtension struct {
	renderer *mathRenderer
}

// Extend implements goldmark.Extender.
func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 150)),
		parser.WithInlineParsers(util.Prioritized(&inlineMathParser{}, 150)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(e.renderer, 150),
	))
}
