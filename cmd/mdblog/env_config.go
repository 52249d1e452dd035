package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-mdblog/internal/config"
)

const envPrefix = "MDBLOG_"

// envConfig holds configuration from environment variables. A .env file in
// the working directory is loaded into the environment at startup.
type envConfig struct {
	ConfigPath string // MDBLOG_CONFIG: config file name or path
	ContentDir string // MDBLOG_CONTENT_DIR: posts directory
	PublicDir  string // MDBLOG_PUBLIC_DIR: static files directory
	AssetsDir  string // MDBLOG_ASSETS_DIR: template and style overrides
	OutputDir  string // MDBLOG_OUTPUT_DIR: static build output
	SiteURL    string // MDBLOG_SITE_URL: canonical site URL
	Addr       string // MDBLOG_ADDR: server listen address
	MathMode   string // MDBLOG_MATH_MODE: author or display
	Timeout    string // MDBLOG_TIMEOUT: per-post render timeout
	LogLevel   string // MDBLOG_LOG_LEVEL: debug, info, warn, error
	LogFormat  string // MDBLOG_LOG_FORMAT: text or json
	Workers    int    // MDBLOG_WORKERS: parallel renders, 0 = auto
	Metrics    *bool  // MDBLOG_METRICS: expose /metrics
}

// knownEnvVars lists valid MDBLOG_* variables, to catch typos.
var knownEnvVars = []string{
	"MDBLOG_CONFIG",
	"MDBLOG_CONTENT_DIR",
	"MDBLOG_PUBLIC_DIR",
	"MDBLOG_ASSETS_DIR",
	"MDBLOG_OUTPUT_DIR",
	"MDBLOG_SITE_URL",
	"MDBLOG_ADDR",
	"MDBLOG_MATH_MODE",
	"MDBLOG_TIMEOUT",
	"MDBLOG_LOG_LEVEL",
	"MDBLOG_LOG_FORMAT",
	"MDBLOG_WORKERS",
	"MDBLOG_METRICS",
}

// loadEnvConfig reads the MDBLOG_* variables. Malformed numbers and
// booleans are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDBLOG_CONFIG"),
		ContentDir: getenv("MDBLOG_CONTENT_DIR"),
		PublicDir:  getenv("MDBLOG_PUBLIC_DIR"),
		AssetsDir:  getenv("MDBLOG_ASSETS_DIR"),
		OutputDir:  getenv("MDBLOG_OUTPUT_DIR"),
		SiteURL:    getenv("MDBLOG_SITE_URL"),
		Addr:       getenv("MDBLOG_ADDR"),
		MathMode:   getenv("MDBLOG_MATH_MODE"),
		Timeout:    getenv("MDBLOG_TIMEOUT"),
		LogLevel:   getenv("MDBLOG_LOG_LEVEL"),
		LogFormat:  getenv("MDBLOG_LOG_FORMAT"),
	}

	if workers := getenv("MDBLOG_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if metrics := getenv("MDBLOG_METRICS"); metrics != "" {
		if b, err := strconv.ParseBool(metrics); err == nil {
			cfg.Metrics = &b
		}
	}
	return cfg
}

// warnUnknownEnvVars reports MDBLOG_* variables that are not recognized.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) && !slices.Contains(knownEnvVars, name) {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides cfg with every variable that is set. It runs
// after the config file is loaded and before flags are merged, giving
// flags > environment > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Content.Dir, env.ContentDir)
	setString(&cfg.Content.PublicDir, env.PublicDir)
	setString(&cfg.Content.AssetsDir, env.AssetsDir)
	setString(&cfg.Output.Dir, env.OutputDir)
	setString(&cfg.Site.URL, env.SiteURL)
	setString(&cfg.Server.Addr, env.Addr)
	setString(&cfg.Render.MathMode, env.MathMode)
	setString(&cfg.Render.Timeout, env.Timeout)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)
	if env.Workers > 0 {
		cfg.Output.Workers = env.Workers
	}
	if env.Metrics != nil {
		cfg.Server.Metrics = *env.Metrics
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
