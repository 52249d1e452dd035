// Package mdblog renders a directory of Markdown posts for a blog or report
// site.
//
// # Quick Start
//
// Create a converter and convert one content file:
//
//	conv, err := mdblog.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := conv.Convert(ctx, raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	post := mdblog.NewPost("my-post", doc)
//
// Or serve a whole directory through a Library:
//
//	lib, err := mdblog.NewLibrary("content", conv)
//	posts, err := lib.List(ctx, 0) // newest first
//
// # Conversion Pipeline
//
// Each file goes through these stages, with no state kept between files:
//
//  1. Frontmatter extraction (YAML between --- lines)
//  2. Preprocessing: line ending normalization and LaTeX-style % comment
//     stripping; code blocks, inline code and table cells are left untouched
//  3. Markdown parsing via Goldmark (GFM, footnotes, $ and $$ math)
//  4. Tree stages in order: image URL rewrite, inline code normalization,
//     code block classification (diagram blocks vs highlighted code)
//  5. Rendering: server-side KaTeX math, chroma highlighting,
//     raw HTML passthrough, raw <img> rewrite
//
// # Post Props
//
// NewPost maps frontmatter to page props with defaults: author "Anonymous",
// empty twitter, empty tag list, and dates normalized to ISO-8601 in UTC
// with milliseconds (2024-01-05T00:00:00.000Z).
//
// # Theming
//
// ThemeState is the light/dark state machine shared by the server and the
// page shell. The initial theme is the persisted one, else the platform
// preference; every change is persisted and mirrored as a "dark" marker and
// a data-theme attribute. Install it with WithThemeState and read it with
// ThemeStateFrom.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := mdblog.NewConverter(
//	    mdblog.WithTimeout(10 * time.Second),
//	    mdblog.WithMathMode("display"),
//	    mdblog.WithHighlightStyle("dracula"),
//	)
//
// # Error Handling
//
// Errors wrap sentinels that can be checked with errors.Is:
//
//	post, err := lib.Load(ctx, slug)
//	if errors.Is(err, mdblog.ErrPostNotFound) {
//	    // 404
//	}
//
// Malformed math never fails a document: it renders as an inline error
// marker and the rest of the post is kept.
package mdblog
