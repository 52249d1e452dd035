package mdblog

// Notes:
// - Unit tests inject mock pipeline stages through internal options to check
//   data flow and error wrapping; the end-to-end tests run the real pipeline.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/alnah/go-mdblog/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type mockPreprocessor struct {
	called bool
	input  string
}

func (m *mockPreprocessor) PreprocessMarkdown(_ context.Context, content string) string {
	m.called = true
	m.input = content
	return content
}

type mockHTMLConverter struct {
	input string
	err   error
	panic bool
}

func (m *mockHTMLConverter) ToHTML(_ context.Context, content string) (string, error) {
	if m.panic {
		panic("boom")
	}
	m.input = content
	if m.err != nil {
		return "", m.err
	}
	return "<p>" + content + "</p>", nil
}

func withPreprocessor(p pipeline.MarkdownPreprocessor) Option {
	return func(c *Converter) { c.preprocessor = p }
}

func withHTMLConverter(h pipeline.HTMLConverter) Option {
	return func(c *Converter) { c.htmlConverter = h }
}

// ---------------------------------------------------------------------------
// TestNewConverter - Option validation
// ---------------------------------------------------------------------------

func TestNewConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults"},
		{name: "display math", opts: []Option{WithMathMode("display")}},
		{name: "bad math mode", opts: []Option{WithMathMode("inline-only")}, wantErr: ErrInvalidMathMode},
		{name: "known style", opts: []Option{WithHighlightStyle("dracula")}},
		{name: "unknown style", opts: []Option{WithHighlightStyle("no-such-style")}, wantErr: ErrInvalidHighlightStyle},
		{name: "diagram language with space", opts: []Option{WithDiagramLanguage("mer maid")}, wantErr: ErrInvalidDiagramLang},
		{name: "custom diagram language", opts: []Option{WithDiagramLanguage("graphviz")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv, err := NewConverter(tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewConverter() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConverter() unexpected error: %v", err)
			}
			if conv.HighlightStyle() == "" {
				t.Error("HighlightStyle() empty after defaults")
			}
			if conv.MathErrorColor() != DefaultMathErrorColor {
				t.Errorf("MathErrorColor() = %q, want %q", conv.MathErrorColor(), DefaultMathErrorColor)
			}
		})
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) did not panic")
		}
	}()
	WithTimeout(0)
}

// ---------------------------------------------------------------------------
// TestConverter_Convert - Data flow with mocks
// ---------------------------------------------------------------------------

func TestConverter_Convert_DataFlow(t *testing.T) {
	t.Parallel()

	pre := &mockPreprocessor{}
	htmlConv := &mockHTMLConverter{}
	conv, err := NewConverter(withPreprocessor(pre), withHTMLConverter(htmlConv))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := conv.Convert(context.Background(), "---\ntitle: T\n---\nbody <img src=\"../public/a.png\">")
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	if !pre.called {
		t.Error("preprocessor not called")
	}
	if pre.input != "body <img src=\"../public/a.png\">" {
		t.Errorf("preprocessor input = %q, want body only", pre.input)
	}
	if htmlConv.input != pre.input {
		t.Errorf("HTML converter input = %q, want preprocessed body", htmlConv.input)
	}
	if !strings.Contains(doc.HTML, `src="/a.png"`) {
		t.Errorf("raw image not rewritten: %s", doc.HTML)
	}
	if diff := cmp.Diff(map[string]any{"title": "T"}, doc.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestConverter_Convert_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		html    *mockHTMLConverter
		wantErr error
		wantMsg string
	}{
		{
			name:    "unclosed frontmatter",
			raw:     "---\ntitle: T\nbody",
			html:    &mockHTMLConverter{},
			wantErr: ErrFrontmatter,
		},
		{
			name:    "frontmatter not a mapping",
			raw:     "---\n- a\n- b\n---\nbody",
			html:    &mockHTMLConverter{},
			wantErr: ErrFrontmatter,
		},
		{
			name:    "conversion failure",
			raw:     "body",
			html:    &mockHTMLConverter{err: ErrHTMLConversion},
			wantErr: ErrHTMLConversion,
		},
		{
			name:    "panic recovered",
			raw:     "body",
			html:    &mockHTMLConverter{panic: true},
			wantMsg: "internal error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv, err := NewConverter(withHTMLConverter(tt.html))
			if err != nil {
				t.Fatal(err)
			}

			doc, err := conv.Convert(context.Background(), tt.raw)
			if err == nil {
				t.Fatalf("Convert() = %+v, want error", doc)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Convert() error = %q, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestConverter_Convert_Cancelled(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := conv.Convert(ctx, "# Title"); !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// End-to-end through the real pipeline
// ---------------------------------------------------------------------------

func TestConverter_Convert_EndToEnd(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter(WithTimeout(10 * time.Second))
	if err != nil {
		t.Fatal(err)
	}

	raw := "---\n" +
		"title: \"T\"\n" +
		"date: 2024-01-05\n" +
		"author: \"A\"\n" +
		"tags: [x, y]\n" +
		"---\n" +
		"`fn() % not a comment`\n\n" +
		"text % comment\n"

	doc, err := conv.Convert(context.Background(), raw)
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	if !strings.Contains(doc.HTML, "fn() % not a comment") {
		t.Errorf("inline code lost its percent sign: %s", doc.HTML)
	}
	if !strings.Contains(doc.HTML, "<p>text</p>") {
		t.Errorf("prose comment not stripped: %s", doc.HTML)
	}
	if strings.Contains(doc.HTML, "% comment") {
		t.Errorf("comment text leaked: %s", doc.HTML)
	}

	post := NewPost("t", doc)
	want := &Post{
		Slug:    "t",
		Title:   "T",
		Author:  "A",
		Tags:    []string{"x", "y"},
		Date:    "2024-01-05T00:00:00.000Z",
		Twitter: "",
	}
	if diff := cmp.Diff(want, post, cmpopts.IgnoreFields(Post{}, "Content", "Summary")); diff != "" {
		t.Errorf("NewPost() mismatch (-want +got):\n%s", diff)
	}
}

func TestConverter_Convert_Concurrent(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatal(err)
	}

	const raw = "# Doc\n\nSome $x^2$ math and `code`.\n\n```go\nfunc f() {}\n```\n"
	first, err := conv.Convert(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := conv.Convert(context.Background(), raw)
			if err != nil {
				errs <- err
				return
			}
			if doc.HTML != first.HTML {
				errs <- errors.New("output differs between runs")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
