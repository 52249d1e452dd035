package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-mdblog/internal/build"
	"github.com/alnah/go-mdblog/internal/config"
	"github.com/alnah/go-mdblog/internal/social"
	"github.com/alnah/go-mdblog/internal/watch"
)

// runBuild renders the static site, then keeps rebuilding on changes when
// --watch is set.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}

	a, err := prepare(&f.common, env, func(cfg *config.Config) { mergeBuildFlags(f, cfg) })
	if err != nil {
		return err
	}

	err = a.build(ctx, env.Stdout)
	if !f.watch {
		return err
	}
	if err != nil && !errors.Is(err, build.ErrPostFailed) {
		return err
	}

	w, err := watch.New(a.watchRoots(), watch.DefaultDebounce, a.log)
	if err != nil {
		return err
	}
	a.log.Info("watching for changes", slog.Any("dirs", a.watchRoots()))
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		a.log.Info("rebuilding", slog.Int("changed", len(changed)))
		if err := a.build(ctx, env.Stdout); err != nil && ctx.Err() == nil {
			a.log.Error("rebuild failed", slog.String("error", err.Error()))
		}
	})
}

// build runs one full build. The library and templates are reopened each
// time so that a watch rebuild sees new assets.
func (a *app) build(ctx context.Context, w io.Writer) error {
	lib, err := a.newLibrary()
	if err != nil {
		return err
	}
	renderer, err := a.newSite(true)
	if err != nil {
		return err
	}
	cards, err := social.NewRenderer(social.LightTheme)
	if err != nil {
		return err
	}

	b, err := build.New(lib, renderer, a.cfg.Output.Dir,
		build.WithWorkers(a.cfg.Output.Workers),
		build.WithPublicDir(a.publicDir()),
		build.WithLegacyRedirects(a.cfg.Output.LegacyRedirects),
		build.WithCards(cards),
		build.WithLogger(a.log),
	)
	if err != nil {
		return withHint(err)
	}

	report, err := b.Build(ctx)
	printReport(w, report, a.cfg.Output.Dir)
	return withHint(err)
}

// printReport prints a one-line build summary and the failed posts.
func printReport(w io.Writer, r *build.Report, out string) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "built %d posts (%d files) into %s in %s\n",
		r.Posts, r.Files, out, r.Duration.Round(time.Millisecond))
	for _, slug := range r.Failed {
		fmt.Fprintf(w, "  failed: %s\n", slug)
	}
}
