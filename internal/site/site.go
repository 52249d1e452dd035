// Package site renders the HTML pages of the blog: the post index, post
// pages and the not-found page, wrapped in the shared layout with its meta
// tags, navbar and theme toggle.
package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/assets"
)

// ErrRender wraps template execution failures.
var ErrRender = errors.New("rendering page")

// Date presets used by the pages.
const (
	CardDateFormat = "card"
	PostDateFormat = "post"
)

// DefaultDarkHighlightStyle is the chroma style of the dark theme.
const DefaultDarkHighlightStyle = "dracula"

// Meta holds site-wide page metadata.
type Meta struct {
	Title       string
	Name        string
	Description string
	Keywords    []string
	URL         string // canonical site URL without trailing slash
	Image       string
	Creator     string
	Twitter     string
}

// NavLink is one navbar entry.
type NavLink struct {
	Label   string
	URL     string
	Current bool
}

// Nav describes the navbar.
type Nav struct {
	Logo     string
	DarkLogo string
	LogoLink string
	Links    []NavLink
}

// Options configures a Renderer.
type Options struct {
	Meta Meta
	Nav  Nav

	AssetsDir   string // override directory, "" uses the built-in theme
	TemplateSet string // default assets.DefaultTemplateSetName
	Style       string // default assets.DefaultStyleName

	HighlightLight  string
	HighlightDark   string
	DiagramLanguage string

	// Static renders pages for a static build: the theme is resolved in the
	// browser and the toggle is a script button instead of a form.
	Static bool
}

// View carries the per-request state of a page.
type View struct {
	Theme mdblog.Theme
	Path  string // request path, used as the toggle redirect target
}

// Card is one entry of the index page.
type Card struct {
	Slug     string
	Title    string
	Subtitle string
	Date     string
	Tags     []string
	Author   string
}

// PostView is the article data of a post page.
type PostView struct {
	Slug      string
	Title     string
	Author    string
	AuthorURL string
	Date      string
	Tags      []string
	Outline   []mdblog.Heading
	Content   template.HTML
}

// page is the data passed to the layout.
type page struct {
	Site            Meta
	Nav             Nav
	Theme           mdblog.Theme
	Dark            bool
	ToggleLabel     string
	Static          bool
	Path            string
	Title           string
	Description     string
	URL             string
	Image           string
	OGType          string
	Math            bool
	Diagrams        bool
	DiagramSelector string
	Cards           []Card
	Post            *PostView
}

// Renderer executes the page templates. It is safe for concurrent use.
type Renderer struct {
	opts      Options
	pages     map[string]*template.Template
	css       []byte
	highlight []byte
}

// New loads the template set and stylesheets and parses every page.
func New(opts Options) (*Renderer, error) {
	if opts.TemplateSet == "" {
		opts.TemplateSet = assets.DefaultTemplateSetName
	}
	if opts.Style == "" {
		opts.Style = assets.DefaultStyleName
	}
	if opts.HighlightLight == "" {
		opts.HighlightLight = mdblog.DefaultHighlightStyle
	}
	if opts.HighlightDark == "" {
		opts.HighlightDark = DefaultDarkHighlightStyle
	}
	if opts.DiagramLanguage == "" {
		opts.DiagramLanguage = mdblog.DefaultDiagramLanguage
	}
	opts.Meta.URL = strings.TrimSuffix(opts.Meta.URL, "/")

	resolver, err := assets.NewAssetResolver(opts.AssetsDir)
	if err != nil {
		return nil, err
	}
	ts, err := resolver.LoadTemplateSet(opts.TemplateSet)
	if err != nil {
		return nil, err
	}
	css, err := resolver.LoadStyle(opts.Style)
	if err != nil {
		return nil, err
	}
	highlight, err := HighlightCSS(opts.HighlightLight, opts.HighlightDark)
	if err != nil {
		return nil, err
	}

	pages, err := parsePages(ts)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		opts:      opts,
		pages:     pages,
		css:       []byte(css),
		highlight: highlight,
	}, nil
}

func parsePages(ts *assets.TemplateSet) (map[string]*template.Template, error) {
	funcs := template.FuncMap{"join": strings.Join}
	base, err := template.New(assets.LayoutTemplate).Funcs(funcs).Parse(ts.Page(assets.LayoutTemplate))
	if err != nil {
		return nil, fmt.Errorf("parsing %s/%s: %w", ts.Name, assets.LayoutTemplate, err)
	}

	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{assets.IndexTemplate, assets.PostTemplate, assets.NotFoundTemplate} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.Parse(ts.Page(name)); err != nil {
			return nil, fmt.Errorf("parsing %s/%s: %w", ts.Name, name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

// Stylesheet returns the site CSS.
func (r *Renderer) Stylesheet() []byte { return r.css }

// HighlightStylesheet returns the code highlighting CSS for both themes.
func (r *Renderer) HighlightStylesheet() []byte { return r.highlight }

// SiteName is the short site name, the title when no name is set.
func (r *Renderer) SiteName() string {
	if r.opts.Meta.Name != "" {
		return r.opts.Meta.Name
	}
	return r.opts.Meta.Title
}

// Index renders the post listing. posts are shown in the given order.
func (r *Renderer) Index(w io.Writer, v View, posts []*mdblog.Post) error {
	p := r.newPage(v)
	p.Title = r.opts.Meta.Title
	p.Cards = make([]Card, 0, len(posts))
	for _, post := range posts {
		p.Cards = append(p.Cards, NewCard(post))
	}
	return r.execute(w, assets.IndexTemplate, p)
}

// Post renders one article page.
func (r *Renderer) Post(w io.Writer, v View, post *mdblog.Post) error {
	p := r.newPage(v)
	pv := NewPostView(post)
	p.Post = &pv
	p.Title = post.Title
	p.OGType = "article"
	if post.Summary != "" {
		p.Description = post.Summary
	}
	if r.opts.Meta.URL != "" {
		p.URL = r.opts.Meta.URL + "/" + post.Slug
	}
	p.Image = r.opts.Meta.URL + SocialImagePath(post.Slug)
	p.Math = strings.Contains(post.Content, `class="katex`)
	p.Diagrams = strings.Contains(post.Content, `class="language-`+r.opts.DiagramLanguage+`"`)
	return r.execute(w, assets.PostTemplate, p)
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(w io.Writer, v View) error {
	p := r.newPage(v)
	p.Title = "404 | " + r.opts.Meta.Title
	return r.execute(w, assets.NotFoundTemplate, p)
}

func (r *Renderer) newPage(v View) *page {
	theme := v.Theme
	if theme != mdblog.ThemeDark {
		theme = mdblog.ThemeLight
	}
	path := v.Path
	if path == "" {
		path = "/"
	}
	return &page{
		Site:            r.opts.Meta,
		Nav:             r.opts.Nav,
		Theme:           theme,
		Dark:            theme.IsDark(),
		ToggleLabel:     ToggleLabel(theme),
		Static:          r.opts.Static,
		Path:            path,
		Description:     r.opts.Meta.Description,
		URL:             r.opts.Meta.URL,
		Image:           r.opts.Meta.Image,
		OGType:          "website",
		DiagramSelector: "pre > code.language-" + r.opts.DiagramLanguage,
	}
}

// execute renders into a buffer first so a failing template never leaves a
// partial page on w.
func (r *Renderer) execute(w io.Writer, name string, p *page) error {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, assets.LayoutTemplate, p); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// ToggleLabel is the accessible label of the theme toggle: it names the
// theme the toggle switches to.
func ToggleLabel(current mdblog.Theme) string {
	return "Switch to " + string(current.Toggle()) + " mode"
}

// SocialImagePath is the site-relative path of a post's social card.
func SocialImagePath(slug string) string {
	return "/og/" + slug + ".png"
}

// NewCard builds the index entry of a post.
func NewCard(p *mdblog.Post) Card {
	date, _ := mdblog.FormatDate(p.Date, CardDateFormat)
	return Card{
		Slug:     p.Slug,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Date:     date,
		Tags:     p.Tags,
		Author:   p.Author,
	}
}

// NewPostView builds the article data of a post page.
func NewPostView(p *mdblog.Post) PostView {
	date, _ := mdblog.FormatDate(p.Date, PostDateFormat)
	return PostView{
		Slug:      p.Slug,
		Title:     p.Title,
		Author:    p.Author,
		AuthorURL: p.TwitterURL(),
		Date:      date,
		Tags:      p.Tags,
		Outline:   p.Outline,
		Content:   template.HTML(p.Content), // #nosec G203 -- converter output, raw HTML is a content feature
	}
}
