package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdblog/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	content   string
	mathMode  string
	timeout   string
	logLevel  string
	logFormat string
	quiet     bool
}

// buildFlags holds the build command flags.
type buildFlags struct {
	common   commonFlags
	output   string
	workers  int
	watch    bool
	noLegacy bool
}

// serveFlags holds the serve command flags.
type serveFlags struct {
	common    commonFlags
	addr      string
	watch     bool
	noMetrics bool
}

// renderFlags holds the render command flags.
type renderFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.content, "content", "", "posts directory")
	fs.StringVar(&f.mathMode, "math-mode", "", "math display policy: author, display")
	fs.StringVar(&f.timeout, "timeout", "", "per-post render timeout (e.g. 30s)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting and
// prints usage to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

func parseBuildFlags(args []string, w io.Writer) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newFlagSet("build", w, printBuildUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renders (0 = auto)")
	fs.BoolVar(&f.watch, "watch", false, "rebuild when content changes")
	fs.BoolVar(&f.noLegacy, "no-legacy", false, "skip /blogs/ redirect pages")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)
	fs.StringVar(&f.addr, "addr", "", "listen address (host:port)")
	fs.BoolVar(&f.watch, "watch", false, "reload templates when they change")
	fs.BoolVar(&f.noMetrics, "no-metrics", false, "disable /metrics")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

func parseRenderFlags(args []string, w io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", w, printRenderUsage)
	fs.BoolVar(&f.json, "json", false, "print the post props as JSON")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// mergeCommonFlags applies explicitly set common flags to cfg.
func mergeCommonFlags(f *commonFlags, cfg *config.Config) {
	setString(&cfg.Content.Dir, f.content)
	setString(&cfg.Render.MathMode, f.mathMode)
	setString(&cfg.Render.Timeout, f.timeout)
	setString(&cfg.Log.Level, f.logLevel)
	setString(&cfg.Log.Format, f.logFormat)
	if f.quiet {
		cfg.Log.Level = "error"
	}
}

func mergeBuildFlags(f *buildFlags, cfg *config.Config) {
	mergeCommonFlags(&f.common, cfg)
	setString(&cfg.Output.Dir, f.output)
	if f.workers != 0 {
		cfg.Output.Workers = f.workers
	}
	if f.noLegacy {
		cfg.Output.LegacyRedirects = false
	}
}

func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	mergeCommonFlags(&f.common, cfg)
	setString(&cfg.Server.Addr, f.addr)
	if f.noMetrics {
		cfg.Server.Metrics = false
	}
}
