// Package pipeline implements the Markdown-to-HTML conversion pipeline.
//
// Stages, in order:
//   - Frontmatter extraction (YAML between --- lines)
//   - Preprocessing: line normalization and % comment stripping, with fenced
//     and indented code and inline spans protected behind placeholders
//   - Parsing via Goldmark with GFM, footnotes and $ math
//   - Tree stages: image URL rewrite, inline code normalization, code block
//     classification
//   - Rendering: server-side KaTeX math, chroma highlighting,
//     diagram blocks, raw HTML passthrough
//   - Raw <img> rewrite and summary extraction on the HTML fragment
//
// Page layout is handled by internal/site. This package only produces the
// article fragment and the metadata read from the file.
package pipeline
