package mdblog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdblog/internal/fileutil"
)

// Library serves posts from a directory of Markdown files. Each file is a
// post addressed by its name without the .md extension.
// Every call reads and converts from disk; nothing is cached.
type Library struct {
	dir  string
	conv *Converter
}

// RenderResult is the outcome of rendering one post in a batch.
type RenderResult struct {
	Slug string
	Post *Post
	Err  error
}

// NewLibrary creates a Library over dir. The directory must exist.
func NewLibrary(dir string, conv *Converter) (*Library, error) {
	if conv == nil {
		return nil, errors.New("mdblog: NewLibrary requires a converter")
	}
	if !fileutil.DirExists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrContentDir, dir)
	}
	return &Library{dir: dir, conv: conv}, nil
}

// Dir returns the content directory.
func (l *Library) Dir() string {
	return l.dir
}

// Path returns the file path of a slug.
func (l *Library) Path(slug string) string {
	return filepath.Join(l.dir, slug+fileutil.MarkdownExt)
}

// Slugs lists the available posts in lexical order. Hidden files and
// subdirectories are ignored.
func (l *Library) Slugs() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentDir, err)
	}

	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !fileutil.IsMarkdown(name) {
			continue
		}
		slugs = append(slugs, fileutil.SlugFromPath(name))
	}
	slices.Sort(slugs)
	return slugs, nil
}

// Load reads and converts one post. Invalid slugs and missing or unreadable
// files return an error wrapping ErrPostNotFound; conversion failures are
// returned as is.
func (l *Library) Load(ctx context.Context, slug string) (*Post, error) {
	if err := fileutil.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPostNotFound, slug, err)
	}

	raw, err := os.ReadFile(l.Path(slug)) // #nosec G304 -- slug validated above
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrPostNotFound, slug)
		}
		return nil, fmt.Errorf("%w: %q: %w", ErrPostNotFound, slug, err)
	}

	doc, err := l.conv.Convert(ctx, string(raw))
	if err != nil {
		return nil, fmt.Errorf("rendering %q: %w", slug, err)
	}
	return NewPost(slug, doc), nil
}

// RenderAll converts every post with at most workers in parallel (see
// ResolveWorkers). A failing post is reported in its result and does not
// stop the others. Results follow Slugs order.
func (l *Library) RenderAll(ctx context.Context, workers int) ([]RenderResult, error) {
	slugs, err := l.Slugs()
	if err != nil {
		return nil, err
	}

	results := make([]RenderResult, len(slugs))
	var g errgroup.Group
	g.SetLimit(ResolveWorkers(workers))

	for i, slug := range slugs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			post, err := l.Load(ctx, slug)
			results[i] = RenderResult{Slug: slug, Post: post, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// List returns every post, newest first. Posts that fail to render are left
// out and reported together in the returned error; the slice is usable even
// when the error is non-nil.
func (l *Library) List(ctx context.Context, workers int) ([]*Post, error) {
	results, err := l.RenderAll(ctx, workers)
	if err != nil {
		return nil, err
	}

	posts := make([]*Post, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		posts = append(posts, r.Post)
	}
	SortPosts(posts)
	return posts, errors.Join(errs...)
}

// SortPosts orders posts newest first. Undated posts go last; ties are
// broken by slug.
func SortPosts(posts []*Post) {
	slices.SortStableFunc(posts, func(a, b *Post) int {
		ta, tb := a.Time(), b.Time()
		switch {
		case ta.IsZero() && !tb.IsZero():
			return 1
		case !ta.IsZero() && tb.IsZero():
			return -1
		}
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}
