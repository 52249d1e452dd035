package mdblog

import (
	"context"
	"fmt"

	"github.com/alnah/go-mdblog/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommentStripper)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
)

// Converter runs the content pipeline: frontmatter, comment stripping,
// Markdown to HTML, then raw image rewriting.
// It holds no per-document state and is safe for concurrent use.
type Converter struct {
	cfg           converterConfig
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithMathMode).
// Returns an error if an option value is invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	mode, err := c.cfg.validate()
	if err != nil {
		return nil, err
	}

	// Tests may inject their own stages
	if c.preprocessor == nil {
		c.preprocessor = &pipeline.CommentStripper{}
	}
	if c.htmlConverter == nil {
		c.htmlConverter = pipeline.NewGoldmarkConverter(pipeline.ConverterOptions{
			MathMode:        mode,
			MathErrorColor:  c.cfg.mathErrorColor,
			DiagramLanguage: c.cfg.diagramLanguage,
			ImagePrefixes:   c.cfg.imagePrefixes,
			HighlightStyle:  c.cfg.highlightStyle,
		})
	}

	return c, nil
}

// HighlightStyle returns the chroma style used for code blocks.
func (c *Converter) HighlightStyle() string {
	return c.cfg.highlightStyle
}

// MathErrorColor returns the color used for math error markers.
func (c *Converter) MathErrorColor() string {
	return c.cfg.mathErrorColor
}

// Convert runs the full pipeline on one raw content file.
// The context is used for cancellation; the converter timeout applies on top.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, raw string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	metadata, body, err := pipeline.ExtractFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrontmatter, err)
	}

	body = c.preprocessor.PreprocessMarkdown(ctx, body)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	htmlContent, err := c.htmlConverter.ToHTML(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}

	// Raw <img> tags bypass the image stage
	htmlContent, err = pipeline.RewriteRawImageSources(htmlContent, c.cfg.imagePrefixes)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriting image sources: %w", ErrHTMLConversion, err)
	}

	return &Document{Metadata: metadata, HTML: htmlContent}, nil
}
