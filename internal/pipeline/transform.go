package pipeline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Annotation names and values attached to nodes for the renderers.
const (
	// InlineCodeClass styles every inline code span.
	InlineCodeClass = "inline-code-block"

	// DiagramClass replaces the language class on diagram code blocks.
	DiagramClass = "mermaid no-highlight"

	// DiagramAttribute flags a code block as a diagram.
	DiagramAttribute = "data-diagram"

	// DefaultCodeLanguage is used for code blocks without an info string.
	DefaultCodeLanguage = "text"

	// DefaultDiagramLanguage is the info string that marks a diagram.
	DefaultDiagramLanguage = "mermaid"
)

// DefaultImagePrefixes lists the relative prefixes stripped from image URLs.
var DefaultImagePrefixes = []string{"../public/"}

// Stage is a named tree transform. Apply must accept any tree and only
// relabel or annotate nodes; it never removes them.
type Stage struct {
	Name  string
	Apply func(doc ast.Node, source []byte)
}

// StageOptions parameterizes the default stage list.
type StageOptions struct {
	ImagePrefixes   []string
	DiagramLanguage string
}

// DefaultStages returns the transform stages in pipeline order. Math is
// recognized while parsing, between the image and inline code stages.
func DefaultStages(opts StageOptions) []Stage {
	return []Stage{
		{Name: "image-urls", Apply: RewriteImageURLs(opts.ImagePrefixes)},
		{Name: "inline-code", Apply: NormalizeInlineCode},
		{Name: "code-blocks", Apply: ClassifyCodeBlocks(opts.DiagramLanguage)},
	}
}

// stageTransformer runs stages in order as one goldmark AST transformer.
type stageTransformer struct {
	stages []Stage
}

// Transform implements parser.ASTTransformer.
func (t *stageTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	for _, s := range t.stages {
		s.Apply(doc, source)
	}
}

// RewriteImageURLs returns a stage that turns "../public/x.png" into
// "/x.png" for every image whose destination starts with one of prefixes.
// Root-relative and absolute URLs are left untouched.
func RewriteImageURLs(prefixes []string) func(ast.Node, []byte) {
	if len(prefixes) == 0 {
		prefixes = DefaultImagePrefixes
	}
	return func(doc ast.Node, _ []byte) {
		_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			img, ok := n.(*ast.Image)
			if !ok {
				return ast.WalkContinue, nil
			}
			if dest, changed := RewriteAssetURL(string(img.Destination), prefixes); changed {
				img.Destination = []byte(dest)
			}
			return ast.WalkContinue, nil
		})
	}
}

// RewriteAssetURL strips the first matching prefix and roots the result.
func RewriteAssetURL(url string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(url, p) {
			return "/" + strings.TrimPrefix(url[len(p):], "/"), true
		}
	}
	return url, false
}

// NormalizeInlineCode strips one extra layer of backticks from code spans
// written with doubled delimiters (``  `x`  `` renders as x) and tags every
// span with InlineCodeClass.
func NormalizeInlineCode(doc ast.Node, source []byte) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindCodeSpan {
			return ast.WalkContinue, nil
		}
		trimCodeSpan(n, source)
		n.SetAttributeString("class", []byte(InlineCodeClass))
		return ast.WalkSkipChildren, nil
	})
}

// trimCodeSpan narrows the first and last text segments by one byte when the
// span value is wrapped in backticks. Children stay *ast.Text so the stock
// code span renderer keeps working.
func trimCodeSpan(span ast.Node, source []byte) {
	first, ok := span.FirstChild().(*ast.Text)
	if !ok {
		return
	}
	last, ok := span.LastChild().(*ast.Text)
	if !ok {
		return
	}

	var value bytes.Buffer
	for c := span.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			return
		}
		value.Write(t.Segment.Value(source))
	}
	v := value.Bytes()
	if len(v) < 2 || v[0] != '`' || v[len(v)-1] != '`' || string(v) == "```" {
		return
	}

	if first.Segment.Len() == 0 || last.Segment.Len() == 0 {
		return
	}
	if first == last {
		seg := first.Segment.WithStart(first.Segment.Start + 1)
		first.Segment = seg.WithStop(seg.Stop - 1)
		return
	}
	first.Segment = first.Segment.WithStart(first.Segment.Start + 1)
	last.Segment = last.Segment.WithStop(last.Segment.Stop - 1)
}

// ClassifyCodeBlocks returns a stage that tags code blocks with a language
// class. Blocks whose info string equals diagramLang (case-insensitive) get
// DiagramClass and the DiagramAttribute flag instead.
func ClassifyCodeBlocks(diagramLang string) func(ast.Node, []byte) {
	if diagramLang == "" {
		diagramLang = DefaultDiagramLanguage
	}
	return func(doc ast.Node, source []byte) {
		_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			switch block := n.(type) {
			case *ast.FencedCodeBlock:
				lang := DefaultCodeLanguage
				if l := block.Language(source); len(l) > 0 {
					lang = string(l)
				}
				if strings.EqualFold(lang, diagramLang) {
					block.SetAttributeString("class", []byte(DiagramClass))
					block.SetAttributeString(DiagramAttribute, []byte(strings.ToLower(lang)))
				} else {
					block.SetAttributeString("class", []byte("language-"+lang))
				}
				return ast.WalkSkipChildren, nil
			case *ast.CodeBlock:
				block.SetAttributeString("class", []byte("language-"+DefaultCodeLanguage))
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})
	}
}
