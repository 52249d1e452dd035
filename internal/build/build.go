// Package build renders the whole blog to a directory of static files.
//
// The output layout is:
//
//	index.html                 post listing
//	404.html                   not-found page
//	<slug>/index.html          one page per post
//	og/<slug>.png              social card per post
//	static/site.css            site stylesheet
//	static/highlight.css       code highlighting for both themes
//	blogs/<legacy>/index.html  redirects from legacy URLs (optional)
//
// plus a copy of the public directory. Files are replaced atomically; files
// left over from earlier builds are not removed.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/fileutil"
	"github.com/alnah/go-mdblog/internal/metrics"
	"github.com/alnah/go-mdblog/internal/site"
	"github.com/alnah/go-mdblog/internal/social"
)

// Sentinel errors.
var (
	ErrOutputDir  = errors.New("invalid output directory")
	ErrPostFailed = errors.New("post failed to build")
)

const filePerm = 0o644

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Redirecting</title>
<link rel="canonical" href="{{.}}">
<meta http-equiv="refresh" content="0; url={{.}}">
</head>
<body><a href="{{.}}">{{.}}</a></body>
</html>
`))

// Builder writes the static site.
type Builder struct {
	lib     *mdblog.Library
	site    *site.Renderer
	cards   *social.Renderer
	out     string
	public  string
	workers int
	legacy  bool
	rec     metrics.Recorder
	log     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds concurrent post rendering (0 = automatic).
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithPublicDir copies dir into the output root on every build.
func WithPublicDir(dir string) Option {
	return func(b *Builder) { b.public = dir }
}

// WithLegacyRedirects writes redirect pages for the /blogs/ URLs.
func WithLegacyRedirects(enabled bool) Option {
	return func(b *Builder) { b.legacy = enabled }
}

// WithCards sets the social card renderer.
func WithCards(r *social.Renderer) Option {
	return func(b *Builder) { b.cards = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.rec = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates a Builder writing to out. renderer should be created with
// site.Options.Static set so pages resolve the theme in the browser.
func New(lib *mdblog.Library, renderer *site.Renderer, out string, opts ...Option) (*Builder, error) {
	if lib == nil || renderer == nil {
		return nil, errors.New("build: library and renderer are required")
	}
	if out == "" {
		return nil, fmt.Errorf("%w: empty path", ErrOutputDir)
	}
	b := &Builder{
		lib:  lib,
		site: renderer,
		out:  out,
		rec:  metrics.NoopRecorder{},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cards == nil {
		cards, err := social.NewRenderer(social.LightTheme)
		if err != nil {
			return nil, err
		}
		b.cards = cards
	}
	if sameDir(out, lib.Dir()) || (b.public != "" && sameDir(out, b.public)) {
		return nil, fmt.Errorf("%w: %s is a source directory", ErrOutputDir, out)
	}
	return b, nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Report summarizes a build.
type Report struct {
	Posts    int      // posts written
	Failed   []string // slugs that failed to render
	Files    int      // files written, public copies included
	Duration time.Duration
}

// Build renders every post and writes the site. Posts that fail to render
// are skipped and reported; the returned error then wraps ErrPostFailed and
// the rest of the site is still written.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	report, err := b.build(ctx)
	report.Duration = time.Since(start)
	b.rec.ObserveBuild(report.Duration, report.Posts, metrics.ResultOf(err, ctx.Err() != nil))
	return report, err
}

func (b *Builder) build(ctx context.Context) (*Report, error) {
	report := &Report{}
	if err := os.MkdirAll(b.out, 0o750); err != nil {
		return report, fmt.Errorf("%w: %w", ErrOutputDir, err)
	}

	results, err := b.lib.RenderAll(ctx, b.workers)
	if err != nil {
		return report, err
	}

	var posts []*mdblog.Post
	var failures []error
	for _, r := range results {
		if r.Err != nil {
			b.log.Error("post failed", slog.String("slug", r.Slug), slog.String("error", r.Err.Error()))
			report.Failed = append(report.Failed, r.Slug)
			failures = append(failures, fmt.Errorf("%w: %w", ErrPostFailed, r.Err))
			continue
		}
		posts = append(posts, r.Post)
	}
	mdblog.SortPosts(posts)

	var files atomic.Int64
	write := func(rel string, data []byte) error {
		if err := fileutil.WriteFileAtomic(filepath.Join(b.out, filepath.FromSlash(rel)), data, filePerm); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		files.Add(1)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mdblog.ResolveWorkers(b.workers))

	g.Go(func() error { return b.writePages(posts, write) })
	for _, post := range posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return b.writePost(post, write)
		})
	}
	if b.public != "" {
		g.Go(func() error {
			n, err := copyTree(gctx, b.public, b.out)
			files.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		report.Files = int(files.Load())
		return report, err
	}

	report.Posts = len(posts)
	report.Files = int(files.Load())
	b.log.Info("site built",
		slog.String("output", b.out),
		slog.Int("posts", report.Posts),
		slog.Int("failed", len(report.Failed)),
		slog.Int("files", report.Files))
	return report, errors.Join(failures...)
}

// writePages writes the site-wide pages and stylesheets.
func (b *Builder) writePages(posts []*mdblog.Post, write func(string, []byte) error) error {
	var buf bytes.Buffer
	if err := b.site.Index(&buf, site.View{Path: "/"}, posts); err != nil {
		return err
	}
	if err := write("index.html", buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := b.site.NotFound(&buf, site.View{Path: "/404"}); err != nil {
		return err
	}
	if err := write("404.html", buf.Bytes()); err != nil {
		return err
	}

	if err := write("static/site.css", b.site.Stylesheet()); err != nil {
		return err
	}
	return write("static/highlight.css", b.site.HighlightStylesheet())
}

// writePost writes the page, the social card and the legacy redirects of
// one post.
func (b *Builder) writePost(post *mdblog.Post, write func(string, []byte) error) error {
	var buf bytes.Buffer
	if err := b.site.Post(&buf, site.View{Path: "/" + post.Slug}, post); err != nil {
		return err
	}
	if err := write(post.Slug+"/index.html", buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := b.cards.WritePNG(&buf, social.CardFromPost(post, b.site.SiteName())); err != nil {
		return fmt.Errorf("card for %s: %w", post.Slug, err)
	}
	if err := write("og/"+post.Slug+".png", buf.Bytes()); err != nil {
		return err
	}

	if !b.legacy {
		return nil
	}
	for _, legacy := range LegacyPaths(post) {
		buf.Reset()
		if err := redirectPage.Execute(&buf, "/"+post.Slug); err != nil {
			return err
		}
		if err := write(legacy+"/index.html", buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// LegacyPaths lists the old URLs of a post, without leading slash, that
// lead to its canonical page: "blogs/<slug>" and, for dated posts,
// "blogs/YYYY-MM-DD-<slug>". A path the server would redirect elsewhere is
// left out.
func LegacyPaths(post *mdblog.Post) []string {
	prefix := strings.TrimPrefix(mdblog.LegacyPrefix, "/")
	var paths []string

	plain := prefix + post.Slug
	if _, redirected := mdblog.LegacyRedirect("/" + plain); !redirected {
		paths = append(paths, plain)
	}

	const dayLen = len("2006-01-02")
	if len(post.Date) >= dayLen {
		dated := prefix + post.Date[:dayLen] + "-" + post.Slug
		if target, ok := mdblog.LegacyRedirect("/" + dated); ok && target == "/"+post.Slug {
			paths = append(paths, dated)
		}
	}
	return paths
}

// copyTree copies the regular files under src into dst, skipping hidden
// entries. It returns the number of files copied.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != src && d.Name()[0] == '.' {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path) // #nosec G304 -- walking the configured public directory
		if err != nil {
			return err
		}
		if err := fileutil.WriteFileAtomic(filepath.Join(dst, rel), data, filePerm); err != nil {
			return fmt.Errorf("copying %s: %w", rel, err)
		}
		n++
		return nil
	})
	return n, err
}
