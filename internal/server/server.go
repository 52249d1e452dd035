// Package server serves the blog over HTTP, rendering posts on request.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/metrics"
	"github.com/alnah/go-mdblog/internal/site"
	"github.com/alnah/go-mdblog/internal/social"
)

// DefaultShutdownTimeout bounds the graceful shutdown of Run.
const DefaultShutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Library *mdblog.Library
	Site    *site.Renderer
	Cards   *social.Renderer

	// PublicDir holds static files (images, logos) served from the site
	// root. Empty disables static files.
	PublicDir string

	// Registry exposes /metrics when set.
	Registry *prometheus.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger

	Workers         int
	ShutdownTimeout time.Duration
}

// Server is the blog HTTP server.
type Server struct {
	lib      *mdblog.Library
	site     atomic.Pointer[site.Renderer]
	cards    *social.Renderer
	public   http.FileSystem
	publicFS http.Handler
	registry *prometheus.Registry
	rec      metrics.Recorder
	log      *slog.Logger
	workers  int
	shutdown time.Duration
	router   chi.Router
}

// New wires the routes of a Server.
func New(opts Options) (*Server, error) {
	if opts.Library == nil || opts.Site == nil {
		return nil, errors.New("server: Library and Site are required")
	}
	s := &Server{
		lib:      opts.Library,
		cards:    opts.Cards,
		registry: opts.Registry,
		rec:      opts.Recorder,
		log:      opts.Logger,
		workers:  opts.Workers,
		shutdown: opts.ShutdownTimeout,
	}
	s.site.Store(opts.Site)
	if s.cards == nil {
		cards, err := social.NewRenderer(social.LightTheme)
		if err != nil {
			return nil, err
		}
		s.cards = cards
	}
	if s.rec == nil {
		s.rec = metrics.NoopRecorder{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.shutdown <= 0 {
		s.shutdown = DefaultShutdownTimeout
	}
	if opts.PublicDir != "" {
		s.public = http.Dir(opts.PublicDir)
		s.publicFS = http.FileServer(s.public)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	r.Get("/static/site.css", s.stylesheet((*site.Renderer).Stylesheet))
	r.Get("/static/highlight.css", s.stylesheet((*site.Renderer).HighlightStylesheet))
	r.Get("/og/{slug}.png", s.handleCard)

	r.Group(func(r chi.Router) {
		r.Use(s.withTheme)
		r.Get("/", s.handleIndex)
		r.Get("/{slug}", s.handlePost)
		r.Get(mdblog.LegacyPrefix+"{legacy}", s.handleLegacy)
		r.Post("/theme/toggle", s.handleToggle)
		r.NotFound(s.handleNotFound)
	})
	return r
}

// SetSite swaps the page renderer, for template reloads. Requests in flight
// finish with the renderer they started with.
func (s *Server) SetSite(r *site.Renderer) {
	if r != nil {
		s.site.Store(r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) stylesheet(content func(*site.Renderer) []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(content(s.site.Load()))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.lib.List(r.Context(), s.workers)
	if err != nil {
		if posts == nil {
			s.fail(w, r, err)
			return
		}
		s.log.Warn("some posts failed to render", "error", err)
	}
	s.page(w, r, http.StatusOK, func(buf *bytes.Buffer, v site.View) error {
		return s.site.Load().Index(buf, v, posts)
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if strings.Contains(slug, ".") && s.serveStatic(w, r) {
		return
	}
	s.renderPost(w, r, slug)
}

func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	if target, ok := mdblog.LegacyRedirect(r.URL.Path); ok {
		s.rec.IncLegacyRedirect()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}
	s.renderPost(w, r, chi.URLParam(r, "legacy"))
}

func (s *Server) renderPost(w http.ResponseWriter, r *http.Request, slug string) {
	post, err := s.load(r.Context(), slug)
	if errors.Is(err, mdblog.ErrPostNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.page(w, r, http.StatusOK, func(buf *bytes.Buffer, v site.View) error {
		return s.site.Load().Post(buf, v, post)
	})
}

// load converts one post and records its render time. Lookups of missing
// posts are not renders and are not recorded.
func (s *Server) load(ctx context.Context, slug string) (*mdblog.Post, error) {
	start := time.Now()
	post, err := s.lib.Load(ctx, slug)
	if !errors.Is(err, mdblog.ErrPostNotFound) {
		s.rec.ObserveRender(time.Since(start), metrics.ResultOf(err, ctx.Err() != nil))
	}
	return post, err
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	theme, err := mdblog.ThemeStateFrom(r.Context()).Toggle()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.rec.IncThemeToggle(string(theme))
	http.Redirect(w, r, safeRedirect(r.PostFormValue("redirect")), http.StatusSeeOther)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	post, err := s.load(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, mdblog.ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.cards.WritePNG(&buf, social.CardFromPost(post, s.site.Load().SiteName())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if s.serveStatic(w, r) {
		return
	}
	s.page(w, r, http.StatusNotFound, func(buf *bytes.Buffer, v site.View) error {
		return s.site.Load().NotFound(buf, v)
	})
}

// serveStatic serves r from the public directory when the file exists.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if s.public == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		return false
	}
	f, err := s.public.Open(path.Clean("/" + r.URL.Path))
	if err != nil {
		return false
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil || info.IsDir() {
		return false
	}
	s.publicFS.ServeHTTP(w, r)
	return true
}

// page renders a themed HTML page. The page is rendered in full before the
// status line is written.
func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, render func(*bytes.Buffer, site.View) error) {
	v := site.View{
		Theme: mdblog.ThemeStateFrom(r.Context()).Theme(),
		Path:  r.URL.Path,
	}
	var buf bytes.Buffer
	if err := render(&buf, v); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	s.log.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// safeRedirect keeps toggle redirects on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	return target
}
