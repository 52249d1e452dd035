package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/config"
	"github.com/alnah/go-mdblog/internal/fileutil"
)

// runRender converts one file and prints its HTML body, or the full post
// props with --json.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w%s", ErrNoInput, "\n  hint: mdblog render path/to/post.md")
	}
	if len(rest) > 1 {
		return fmt.Errorf("%w: expected one file, got %d", ErrUsage, len(rest))
	}
	path := rest[0]
	if !strings.EqualFold(filepath.Ext(path), fileutil.MarkdownExt) {
		return fmt.Errorf("%w: %s is not a %s file", ErrUsage, path, fileutil.MarkdownExt)
	}

	a, err := prepare(&f.common, env, func(cfg *config.Config) { mergeCommonFlags(&f.common, cfg) })
	if err != nil {
		return err
	}
	conv, err := a.newConverter()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	doc, err := conv.Convert(ctx, string(raw))
	if err != nil {
		return withHint(fmt.Errorf("%s: %w", path, err))
	}

	slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	post := mdblog.NewPost(slug, doc)
	if !f.json {
		_, err := fmt.Fprintln(env.Stdout, post.Content)
		return err
	}

	enc := json.NewEncoder(env.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(post)
}
