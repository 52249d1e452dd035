package pipeline

import (
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parseTree parses source with a stock goldmark parser, no stages applied.
func parseTree(t *testing.T, source string) (ast.Node, []byte) {
	t.Helper()
	src := []byte(source)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	return doc, src
}

// findAll collects nodes of the given kind in document order.
func findAll(doc ast.Node, kind ast.NodeKind) []ast.Node {
	var nodes []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == kind {
			nodes = append(nodes, n)
		}
		return ast.WalkContinue, nil
	})
	return nodes
}

func classOf(t *testing.T, n ast.Node) string {
	t.Helper()
	v, ok := n.AttributeString("class")
	if !ok {
		return ""
	}
	b, ok := v.([]byte)
	if !ok {
		t.Fatalf("class attribute has type %T, want []byte", v)
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// TestRewriteImageURLs - Image destination rewriting
// ---------------------------------------------------------------------------

func TestRewriteImageURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"public prefix stripped", "../public/assets/x.png", "/assets/x.png"},
		{"root-relative unchanged", "/already/root.png", "/already/root.png"},
		{"external unchanged", "https://ext.example/x.png", "https://ext.example/x.png"},
		{"other relative unchanged", "./img/x.png", "./img/x.png"},
		{"prefix must be leading", "a/../public/x.png", "a/../public/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Hand-built minimal tree: document > paragraph > image.
			link := ast.NewLink()
			link.Destination = []byte(tt.url)
			img := ast.NewImage(link)
			para := ast.NewParagraph()
			para.AppendChild(para, img)
			doc := ast.NewDocument()
			doc.AppendChild(doc, para)

			RewriteImageURLs(nil)(doc, nil)

			if got := string(img.Destination); got != tt.want {
				t.Errorf("Destination = %q, want %q", got, tt.want)
			}
			if doc.FirstChild() != para || para.FirstChild() != img {
				t.Error("stage changed the tree shape")
			}
		})
	}
}

func TestRewriteImageURLs_CustomPrefixes(t *testing.T) {
	t.Parallel()

	doc, src := parseTree(t, "![a](static/a.png) ![b](../public/b.png)")
	RewriteImageURLs([]string{"static/"})(doc, src)

	imgs := findAll(doc, ast.KindImage)
	if len(imgs) != 2 {
		t.Fatalf("found %d images, want 2", len(imgs))
	}
	if got := string(imgs[0].(*ast.Image).Destination); got != "/a.png" {
		t.Errorf("first image = %q, want %q", got, "/a.png")
	}
	if got := string(imgs[1].(*ast.Image).Destination); got != "../public/b.png" {
		t.Errorf("second image = %q, want unchanged", got)
	}
}

// ---------------------------------------------------------------------------
// TestNormalizeInlineCode - Backtick layer stripping and class tagging
// ---------------------------------------------------------------------------

func TestNormalizeInlineCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain span untouched", "`code`", "code"},
		{"doubled delimiters lose one layer", "`` `code` ``", "code"},
		{"inner backtick kept", "`` a`b ``", "a`b"},
		{"triple backtick value kept", "```` ``` ````", "```"},
		{"single backtick value kept", "`` ` ``", "`"},
		{"single text node trimmed both ends", "``` `x` ```", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, src := parseTree(t, tt.source)
			NormalizeInlineCode(doc, src)

			spans := findAll(doc, ast.KindCodeSpan)
			if len(spans) != 1 {
				t.Fatalf("found %d code spans, want 1", len(spans))
			}
			span := spans[0]

			var got []byte
			for c := span.FirstChild(); c != nil; c = c.NextSibling() {
				got = append(got, c.(*ast.Text).Segment.Value(src)...)
			}
			if string(got) != tt.want {
				t.Errorf("span value = %q, want %q", got, tt.want)
			}
			if class := classOf(t, span); class != InlineCodeClass {
				t.Errorf("class = %q, want %q", class, InlineCodeClass)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestClassifyCodeBlocks - Language and diagram classes
// ---------------------------------------------------------------------------

func TestClassifyCodeBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		source      string
		diagram     string
		wantClass   string
		wantDiagram bool
	}{
		{"tagged block", "```solidity\nx\n```\n", "", "language-solidity", false},
		{"untagged block", "```\nx\n```\n", "", "language-text", false},
		{"diagram sentinel", "```mermaid\ngraph TD\n```\n", "", DiagramClass, true},
		{"diagram sentinel any case", "```Mermaid\ngraph TD\n```\n", "", DiagramClass, true},
		{"custom diagram language", "```dot\ndigraph{}\n```\n", "dot", DiagramClass, true},
		{"mermaid not diagram when sentinel differs", "```mermaid\nx\n```\n", "dot", "language-mermaid", false},
		{"indented block", "    indented\n", "", "language-text", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, src := parseTree(t, tt.source)
			ClassifyCodeBlocks(tt.diagram)(doc, src)

			blocks := append(findAll(doc, ast.KindFencedCodeBlock), findAll(doc, ast.KindCodeBlock)...)
			if len(blocks) != 1 {
				t.Fatalf("found %d code blocks, want 1", len(blocks))
			}
			if class := classOf(t, blocks[0]); class != tt.wantClass {
				t.Errorf("class = %q, want %q", class, tt.wantClass)
			}
			_, isDiagram := blocks[0].AttributeString(DiagramAttribute)
			if isDiagram != tt.wantDiagram {
				t.Errorf("diagram flag = %v, want %v", isDiagram, tt.wantDiagram)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDefaultStages - Order and totality
// ---------------------------------------------------------------------------

func TestDefaultStages(t *testing.T) {
	t.Parallel()

	stages := DefaultStages(StageOptions{})
	want := []string{"image-urls", "inline-code", "code-blocks"}
	if len(stages) != len(want) {
		t.Fatalf("len(stages) = %d, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s.Name != want[i] {
			t.Errorf("stages[%d].Name = %q, want %q", i, s.Name, want[i])
		}
	}

	// Every stage accepts an empty document.
	for _, s := range stages {
		doc := ast.NewDocument()
		s.Apply(doc, nil)
		if doc.ChildCount() != 0 {
			t.Errorf("stage %q added nodes to an empty document", s.Name)
		}
	}
}
