package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdblog/internal/config"
	"github.com/alnah/go-mdblog/internal/hints"
	"github.com/alnah/go-mdblog/internal/server"
	"github.com/alnah/go-mdblog/internal/social"
	"github.com/alnah/go-mdblog/internal/watch"
)

// runServe serves the blog until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}

	a, err := prepare(&f.common, env, func(cfg *config.Config) { mergeServeFlags(f, cfg) })
	if err != nil {
		return err
	}

	srv, err := a.newServer()
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Addr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w%s", addr, err, hints.ForListen(addr, errors.Is(err, syscall.EADDRINUSE)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, ln) })
	if f.watch {
		g.Go(func() error { return a.reloadOnChange(gctx, srv) })
	}
	return g.Wait()
}

func (a *app) newServer() (*server.Server, error) {
	lib, err := a.newLibrary()
	if err != nil {
		return nil, err
	}
	renderer, err := a.newSite(false)
	if err != nil {
		return nil, err
	}
	cards, err := social.NewRenderer(social.LightTheme)
	if err != nil {
		return nil, err
	}
	reg, rec := a.newMetrics()

	return server.New(server.Options{
		Library:         lib,
		Site:            renderer,
		Cards:           cards,
		PublicDir:       a.publicDir(),
		Registry:        reg,
		Recorder:        rec,
		Logger:          a.log,
		Workers:         a.cfg.Output.Workers,
		ShutdownTimeout: a.cfg.Server.ShutdownDuration(),
	})
}

// reloadOnChange swaps the page renderer when watched files change. Posts
// need no reload since they are read on every request; a renderer that
// fails to load keeps the previous one in place.
func (a *app) reloadOnChange(ctx context.Context, srv *server.Server) error {
	w, err := watch.New(a.watchRoots(), watch.DefaultDebounce, a.log)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(_ context.Context, changed []string) {
		renderer, err := a.newSite(false)
		if err != nil {
			a.log.Error("reload failed, keeping previous templates", slog.String("error", err.Error()))
			return
		}
		srv.SetSite(renderer)
		a.log.Info("reloaded", slog.Int("changed", len(changed)))
	})
}
