package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/build"
	"github.com/alnah/go-mdblog/internal/config"
	"github.com/alnah/go-mdblog/internal/fileutil"
	"github.com/alnah/go-mdblog/internal/hints"
	"github.com/alnah/go-mdblog/internal/metrics"
	"github.com/alnah/go-mdblog/internal/site"
)

// defaultConfigName is looked up when neither --config nor MDBLOG_CONFIG
// is set. A missing default config is not an error.
const defaultConfigName = "mdblog"

// app holds what every command needs once flags, environment and config
// file are resolved.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

// prepare resolves the configuration with precedence
// flags > environment > config file > defaults, then validates it.
// merge applies the command flags.
func prepare(common *commonFlags, env *Environment, merge func(*config.Config)) (*app, error) {
	envCfg := loadEnvConfig(env.Getenv)

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	cfg, err := loadConfig(name)
	if err != nil {
		return nil, err
	}

	applyEnvConfig(envCfg, cfg)
	merge(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	warnUnknownEnvVars(env.Stderr, env.Environ())
	return &app{cfg: cfg, log: newLogger(cfg.Log, env.Stderr)}, nil
}

// loadConfig loads the named config, or the default one when present.
func loadConfig(name string) (*config.Config, error) {
	if name == "" {
		cfg, err := config.LoadConfig(defaultConfigName)
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.DefaultConfig(), nil
		}
		return cfg, err
	}

	cfg, err := config.LoadConfig(name)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(triedPaths(err)))
	}
	return cfg, err
}

// triedPaths extracts the searched locations from a not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// newLogger builds the slog logger of the process. Logs go to stderr so
// that render output on stdout stays clean.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newConverter maps the render and content sections to converter options.
func (a *app) newConverter() (*mdblog.Converter, error) {
	r := a.cfg.Render
	opts := []mdblog.Option{
		mdblog.WithMathMode(r.MathMode),
		mdblog.WithMathErrorColor(r.MathErrorColor),
		mdblog.WithDiagramLanguage(a.cfg.Content.DiagramLanguage),
		mdblog.WithImagePrefixes(a.cfg.Content.ImagePrefixes...),
		mdblog.WithHighlightStyle(r.HighlightLight),
	}
	if d := r.TimeoutDuration(); d > 0 {
		opts = append(opts, mdblog.WithTimeout(d))
	}

	conv, err := mdblog.NewConverter(opts...)
	if errors.Is(err, mdblog.ErrInvalidMathMode) {
		return nil, fmt.Errorf("%w%s", err, hints.ForMathMode([]string{config.MathModeAuthor, config.MathModeDisplay}))
	}
	return conv, err
}

// newLibrary opens the content directory.
func (a *app) newLibrary() (*mdblog.Library, error) {
	conv, err := a.newConverter()
	if err != nil {
		return nil, err
	}
	lib, err := mdblog.NewLibrary(a.cfg.Content.Dir, conv)
	if err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForContentDirectory(a.cfg.Content.Dir))
	}
	return lib, nil
}

// newSite builds the page renderer. static selects the static build
// variant of the theme toggle.
func (a *app) newSite(static bool) (*site.Renderer, error) {
	s := a.cfg.Site
	nav := make([]site.NavLink, len(s.Nav))
	for i, l := range s.Nav {
		nav[i] = site.NavLink{Label: l.Label, URL: l.URL, Current: l.Current}
	}

	return site.New(site.Options{
		Meta: site.Meta{
			Title:       s.Title,
			Name:        s.Name,
			Description: s.Description,
			Keywords:    s.Keywords,
			URL:         s.URL,
			Image:       s.Image,
			Creator:     s.Creator,
			Twitter:     s.Twitter,
		},
		Nav: site.Nav{
			Logo:     s.Logo,
			DarkLogo: s.DarkLogo,
			LogoLink: s.LogoLink,
			Links:    nav,
		},
		AssetsDir:       a.cfg.Content.AssetsDir,
		TemplateSet:     a.cfg.Render.TemplateSet,
		Style:           a.cfg.Render.Style,
		HighlightLight:  a.cfg.Render.HighlightLight,
		HighlightDark:   a.cfg.Render.HighlightDark,
		DiagramLanguage: a.cfg.Content.DiagramLanguage,
		Static:          static,
	})
}

// publicDir returns the configured static files directory, or "" when it
// is unset or missing.
func (a *app) publicDir() string {
	dir := a.cfg.Content.PublicDir
	if dir == "" {
		return ""
	}
	if !fileutil.DirExists(dir) {
		a.log.Debug("public directory not found, skipping", slog.String("dir", dir))
		return ""
	}
	return dir
}

// newMetrics returns a registry with process collectors and a recorder on
// it, or a nil registry and a no-op recorder when metrics are disabled.
func (a *app) newMetrics() (*prometheus.Registry, metrics.Recorder) {
	if !a.cfg.Server.Metrics {
		return nil, metrics.NoopRecorder{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewPrometheusRecorder(reg)
}

// watchRoots lists the directories a --watch run observes.
func (a *app) watchRoots() []string {
	roots := []string{a.cfg.Content.Dir}
	if dir := a.publicDir(); dir != "" {
		roots = append(roots, dir)
	}
	if a.cfg.Content.AssetsDir != "" {
		roots = append(roots, a.cfg.Content.AssetsDir)
	}
	return roots
}

// withHint appends the hint matching a command error.
func withHint(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, build.ErrOutputDir):
		return fmt.Errorf("%w%s", err, hints.ForOutputDirectory())
	}
	return err
}
