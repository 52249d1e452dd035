package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// ConverterOptions configures the goldmark pipeline.
type ConverterOptions struct {
	MathMode        MathMode
	MathErrorColor  string
	DiagramLanguage string
	ImagePrefixes   []string
	HighlightStyle  string
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark.
// It keeps no per-document state and is safe for concurrent use.
type GoldmarkConverter struct {
	md     goldmark.Markdown
	stages []Stage
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, math, the
// transform stages, highlighting and raw HTML passthrough.
func NewGoldmarkConverter(opts ConverterOptions) *GoldmarkConverter {
	stages := DefaultStages(StageOptions{
		ImagePrefixes:   opts.ImagePrefixes,
		DiagramLanguage: opts.DiagramLanguage,
	})

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			&mathExtension{renderer: newMathRenderer(opts.MathMode, opts.MathErrorColor)},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&stageTransformer{stages: stages}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(), // Raw HTML from content files passes through
			renderer.WithNodeRenderers(
				util.Prioritized(newCodeBlockRenderer(opts.HighlightStyle), 100),
			),
		),
	)
	return &GoldmarkConverter{md: md, stages: stages}
}

// Stages returns the transform stages in the order they run.
func (c *GoldmarkConverter) Stages() []Stage {
	return c.stages
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
