package mdblog

import (
	"errors"

	"github.com/alnah/go-mdblog/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrFrontmatter    = errors.New("invalid frontmatter")
	ErrHTMLConversion = pipeline.ErrHTMLConversion
	ErrPostNotFound   = errors.New("post not found")

	// Option validation errors.
	ErrInvalidMathMode       = pipeline.ErrInvalidMathMode
	ErrInvalidHighlightStyle = errors.New("invalid highlight style")
	ErrInvalidDiagramLang    = errors.New("invalid diagram language")

	// Theme errors.
	ErrInvalidTheme = errors.New("invalid theme")

	// Content directory errors.
	ErrContentDir = errors.New("content directory not readable")
)
