package mdblog

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-mdblog/internal/pipeline"
)

// MathMode selects how math expressions are rendered.
type MathMode = pipeline.MathMode

// Math display policies.
const (
	// MathModeAuthor keeps inline and display math as written.
	MathModeAuthor = pipeline.MathModeAuthor
	// MathModeDisplay renders every expression in display mode.
	MathModeDisplay = pipeline.MathModeDisplay
)

// Defaults applied by NewConverter.
const (
	DefaultMathErrorColor  = pipeline.DefaultMathErrorColor
	DefaultDiagramLanguage = pipeline.DefaultDiagramLanguage
	DefaultHighlightStyle  = pipeline.DefaultHighlightStyle
)

// Document is the result of converting one content file.
type Document struct {
	Metadata map[string]any // frontmatter mapping, empty when the file has none
	HTML     string         // article fragment
}

// Heading is one numbered entry of a document outline.
type Heading struct {
	Depth  int
	Number string
	ID     string
	Text   string
}

// Outline returns the numbered h2-h3 headings of the document.
func (d *Document) Outline() []Heading {
	if d == nil {
		return nil
	}
	src := pipeline.Outline(d.HTML, pipeline.DefaultOutlineMinDepth, pipeline.DefaultOutlineMaxDepth)
	out := make([]Heading, len(src))
	for i, h := range src {
		out[i] = Heading{Depth: h.Depth, Number: h.Number, ID: h.ID, Text: h.Text}
	}
	return out
}

// Summary returns the first paragraph of the document as plain text,
// truncated to maxRunes (0 means no limit).
func (d *Document) Summary(maxRunes int) string {
	if d == nil {
		return ""
	}
	return pipeline.ExtractSummary(d.HTML, maxRunes)
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout         time.Duration
	mathMode        string
	mathErrorColor  string
	diagramLanguage string
	imagePrefixes   []string
	highlightStyle  string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-document conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdblog: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithMathMode sets the math display policy ("author" or "display").
// Invalid values are reported by NewConverter.
func WithMathMode(mode string) Option {
	return func(c *Converter) {
		c.cfg.mathMode = mode
	}
}

// WithMathErrorColor sets the CSS color of math error markers.
func WithMathErrorColor(color string) Option {
	return func(c *Converter) {
		c.cfg.mathErrorColor = color
	}
}

// WithDiagramLanguage sets the fence tag rendered as a diagram block.
func WithDiagramLanguage(lang string) Option {
	return func(c *Converter) {
		c.cfg.diagramLanguage = lang
	}
}

// WithImagePrefixes sets the relative prefixes rewritten to site-root paths.
// An empty list keeps the default "../public/".
func WithImagePrefixes(prefixes ...string) Option {
	return func(c *Converter) {
		c.cfg.imagePrefixes = append([]string{}, prefixes...)
	}
}

// WithHighlightStyle sets the chroma style used for code blocks.
func WithHighlightStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = style
	}
}

// validate checks option values and fills defaults.
func (cfg *converterConfig) validate() (pipeline.MathMode, error) {
	mode, err := pipeline.ParseMathMode(cfg.mathMode)
	if err != nil {
		return "", err
	}

	if cfg.highlightStyle == "" {
		cfg.highlightStyle = DefaultHighlightStyle
	}
	if !IsHighlightStyle(cfg.highlightStyle) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHighlightStyle, cfg.highlightStyle)
	}

	if cfg.diagramLanguage == "" {
		cfg.diagramLanguage = DefaultDiagramLanguage
	}
	if strings.ContainsAny(cfg.diagramLanguage, " \t\n{}") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDiagramLang, cfg.diagramLanguage)
	}

	if cfg.mathErrorColor == "" {
		cfg.mathErrorColor = DefaultMathErrorColor
	}
	return mode, nil
}

// IsHighlightStyle reports whether name is a registered chroma style.
func IsHighlightStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
