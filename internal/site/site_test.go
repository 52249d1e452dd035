package site

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/assets"
)

func testOptions() Options {
	return Options{
		Meta: Meta{
			Title:       "Test Blog",
			Name:        "Tester",
			Description: "Site description",
			Keywords:    []string{"go", "zk"},
			URL:         "https://blog.example.com/",
			Image:       "https://blog.example.com/logo.svg",
			Twitter:     "@tester",
		},
		Nav: Nav{
			Logo:     "/logo.svg",
			DarkLogo: "/darklogo.svg",
			LogoLink: "https://example.com/",
			Links: []NavLink{
				{Label: "Reports", URL: "https://reports.example.com/"},
				{Label: "Blog", URL: "/", Current: true},
			},
		},
	}
}

func newTestRenderer(t *testing.T, mutate func(*Options)) *Renderer {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func samplePosts() []*mdblog.Post {
	return []*mdblog.Post{
		{
			Slug:     "zk-intro",
			Title:    "ZK Intro",
			Subtitle: "A primer",
			Date:     "2024-01-05T00:00:00.000Z",
			Tags:     []string{"zk", "crypto"},
			Author:   "Alice",
			Twitter:  "@alice",
		},
		{
			Slug:   "undated",
			Title:  "Undated",
			Tags:   []string{},
			Author: mdblog.DefaultAuthor,
		},
	}
}

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

func TestRenderer_Index(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, View{Theme: mdblog.ThemeLight, Path: "/"}, samplePosts()))
	out := buf.String()

	assert.Contains(t, out, `<title>Test Blog</title>`)
	assert.Contains(t, out, `href="/zk-intro"`)
	assert.Contains(t, out, "ZK Intro")
	assert.Contains(t, out, "A primer")
	assert.Contains(t, out, "Jan 5, 2024 &bull; Alice")
	assert.Contains(t, out, `<span class="tag">zk</span><span class="tag">crypto</span>`)
	assert.Contains(t, out, `<meta name="keywords" content="go, zk">`)
	assert.Contains(t, out, `<meta property="og:url" content="https://blog.example.com">`)
	assert.Contains(t, out, `class="nav-link current" href="/"`)
	assert.NotContains(t, out, "katex.min.css")
	assert.NotContains(t, out, "mermaid")

	// Undated posts show the author alone.
	assert.Contains(t, out, `<p class="card-byline">Anonymous</p>`)
}

func TestRenderer_Index_Empty(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, View{}, nil))
	assert.Contains(t, buf.String(), "No posts yet.")
}

// ---------------------------------------------------------------------------
// Theme markers
// ---------------------------------------------------------------------------

func TestRenderer_ThemeMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		theme     mdblog.Theme
		wantAttr  string
		wantDark  bool
		wantLabel string
	}{
		{"light", mdblog.ThemeLight, `data-theme="light"`, false, "Switch to dark mode"},
		{"dark", mdblog.ThemeDark, `data-theme="dark"`, true, "Switch to light mode"},
		{"empty defaults to light", "", `data-theme="light"`, false, "Switch to dark mode"},
	}

	r := newTestRenderer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, r.NotFound(&buf, View{Theme: tt.theme, Path: "/missing"}))
			out := buf.String()

			assert.Contains(t, out, tt.wantAttr)
			assert.Equal(t, tt.wantDark, strings.Contains(out, `class="dark"`))
			assert.Contains(t, out, `aria-label="`+tt.wantLabel+`"`)
			assert.Contains(t, out, `name="redirect" value="/missing"`)
		})
	}
}

func TestRenderer_StaticToggle(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, func(o *Options) { o.Static = true })

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, View{}, samplePosts()))
	out := buf.String()

	assert.Contains(t, out, "data-theme-toggle")
	assert.Contains(t, out, "localStorage")
	assert.NotContains(t, out, `action="/theme/toggle"`)
}

// ---------------------------------------------------------------------------
// Post
// ---------------------------------------------------------------------------

func TestRenderer_Post(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)
	post := samplePosts()[0]
	post.Summary = "First paragraph."
	post.Content = `<h2 id="intro">Intro</h2><p>Euler <span class="katex"><span class="katex-html" aria-hidden="true">e</span></span></p>`
	post.Outline = []mdblog.Heading{{Depth: 2, Number: "1.", ID: "intro", Text: "Intro"}}

	var buf bytes.Buffer
	require.NoError(t, r.Post(&buf, View{Theme: mdblog.ThemeDark, Path: "/zk-intro"}, post))
	out := buf.String()

	assert.Contains(t, out, "<title>ZK Intro</title>")
	assert.Contains(t, out, `By <a href="https://twitter.com/alice"`)
	assert.Contains(t, out, "January 2024")
	assert.Contains(t, out, "&larr; Back to Blogs")
	assert.Contains(t, out, `<meta name="description" content="First paragraph.">`)
	assert.Contains(t, out, `<meta property="og:type" content="article">`)
	assert.Contains(t, out, `<meta property="og:url" content="https://blog.example.com/zk-intro">`)
	assert.Contains(t, out, `<meta property="og:image" content="https://blog.example.com/og/zk-intro.png">`)
	assert.Contains(t, out, `<a href="#intro">1. Intro</a>`)
	assert.Contains(t, out, `<span class="katex"><span class="katex-html" aria-hidden="true">e</span></span>`, "content must not be escaped")
	assert.Contains(t, out, "katex.min.css")
	assert.NotContains(t, out, "<script defer src=\"https://cdn.jsdelivr.net/npm/katex")
	assert.NotContains(t, out, "mermaid.run")
}

func TestRenderer_Post_NoTwitter(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)
	post := samplePosts()[1]

	var buf bytes.Buffer
	require.NoError(t, r.Post(&buf, View{}, post))
	out := buf.String()

	assert.Contains(t, out, "By <strong>Anonymous</strong>")
	assert.NotContains(t, out, `class="toc"`)
}

func TestRenderer_Post_Diagrams(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)
	post := samplePosts()[0]
	post.Content = "<pre><code class=\"language-mermaid\">graph TD; A--&gt;B</code></pre>"

	var buf bytes.Buffer
	require.NoError(t, r.Post(&buf, View{}, post))
	out := buf.String()

	assert.Contains(t, out, "mermaid.run")
	assert.Contains(t, out, `code.language-mermaid`)
	assert.NotContains(t, out, "katex.min.css")
}

// ---------------------------------------------------------------------------
// Stylesheets and overrides
// ---------------------------------------------------------------------------

func TestRenderer_Stylesheets(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, nil)
	assert.Contains(t, string(r.Stylesheet()), ".post-header")

	hl := string(r.HighlightStylesheet())
	assert.Contains(t, hl, `html[data-theme="light"] .chroma`)
	assert.Contains(t, hl, `html[data-theme="dark"] .chroma`)
}

func TestNew_InvalidHighlightStyle(t *testing.T) {
	t.Parallel()

	_, err := New(Options{HighlightDark: "no-such-style"})
	assert.ErrorIs(t, err, mdblog.ErrInvalidHighlightStyle)
}

func TestNew_TemplateOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	setDir := filepath.Join(dir, "templates", "brand")
	require.NoError(t, os.MkdirAll(setDir, 0o755))
	pages := map[string]string{
		assets.LayoutTemplate:   `{{define "layout"}}<body data-theme="{{.Theme}}">{{template "content" .}}</body>{{end}}`,
		assets.IndexTemplate:    `{{define "content"}}{{range .Cards}}[{{.Title}}]{{end}}{{end}}`,
		assets.PostTemplate:     `{{define "content"}}{{.Post.Content}}{{end}}`,
		assets.NotFoundTemplate: `{{define "content"}}gone{{end}}`,
	}
	for name, src := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(setDir, name+".html"), []byte(src), 0o644))
	}

	r, err := New(Options{AssetsDir: dir, TemplateSet: "brand"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, View{Theme: mdblog.ThemeDark}, samplePosts()))
	assert.Equal(t, `<body data-theme="dark">[ZK Intro][Undated]</body>`, buf.String())
}

func TestNew_BrokenTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	setDir := filepath.Join(dir, "templates", "broken")
	require.NoError(t, os.MkdirAll(setDir, 0o755))
	for _, name := range assets.TemplateNames {
		require.NoError(t, os.WriteFile(filepath.Join(setDir, name+".html"), []byte(`{{define "content"}}{{.Oops`), 0o644))
	}

	_, err := New(Options{AssetsDir: dir, TemplateSet: "broken"})
	assert.Error(t, err)
}

func TestToggleLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Switch to dark mode", ToggleLabel(mdblog.ThemeLight))
	assert.Equal(t, "Switch to light mode", ToggleLabel(mdblog.ThemeDark))
}
