package pipeline

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRawImageSources applies the image URL rewrite to <img src> in raw
// HTML that passed through the Markdown source. Fragments without any of the
// prefixes are returned unchanged without reparsing.
//
// Rewrites:
//   - img[src]
//   - source[src] inside <picture>
//
// Does NOT rewrite:
//   - srcset attributes (comma-separated candidates)
//   - CSS url() references
func RewriteRawImageSources(htmlContent string, prefixes []string) (string, error) {
	if len(prefixes) == 0 {
		prefixes = DefaultImagePrefixes
	}
	if !containsAny(htmlContent, prefixes) {
		return htmlContent, nil
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	rewriteNode(doc, prefixes)

	return renderHTML(doc, isFragment)
}

// ExtractSummary returns the plain text of the first non-empty paragraph,
// cut at a word boundary to at most maxRunes runes with an ellipsis.
// Returns "" when the fragment has no paragraph text.
func ExtractSummary(htmlContent string, maxRunes int) string {
	doc, _, err := parseHTML(htmlContent)
	if err != nil {
		return ""
	}

	var summary string
	var find func(n *html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			if t := strings.Join(strings.Fields(textContent(n)), " "); t != "" {
				summary = t
				return true
			}
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(doc)

	return truncateWords(summary, maxRunes)
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.TrimSpace(content)

	// Full document: starts with <!DOCTYPE or <html
	if strings.HasPrefix(strings.ToLower(trimmed), "<!doctype") ||
		strings.HasPrefix(strings.ToLower(trimmed), "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	// Wrap nodes in a container for uniform traversal
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and rewrites image sources.
func rewriteNode(n *html.Node, prefixes []string) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Img || n.DataAtom == atom.Source) {
		for i, attr := range n.Attr {
			if attr.Key != "src" {
				continue
			}
			if v, ok := RewriteAssetURL(attr.Val, prefixes); ok {
				n.Attr[i].Val = v
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, prefixes)
	}
}

// textContent concatenates the text nodes below n, skipping math markup
// so summaries do not carry raw TeX.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (hasClass(n, "katex") || hasClass(n, "katex-error")) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func truncateWords(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.") + "…"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
