package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/alnah/go-mdblog/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Field length limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
	MaxLabelLength       = 100
	MaxURLLength         = 2048 // Browser limit
	MaxKeywords          = 50
	MaxNavLinks          = 20
	MaxWorkers           = 32
)

// Accepted enum values.
const (
	MathModeAuthor  = "author"
	MathModeDisplay = "display"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LogLevels lists accepted log level names.
var LogLevels = []any{"debug", "info", "warn", "error"}

// configDirName is the per-user config directory under os.UserConfigDir.
const configDirName = "go-mdblog"

// Config holds all configuration for building and serving the site.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// SiteConfig holds page metadata and navigation.
type SiteConfig struct {
	Title       string    `yaml:"title"`       // <title> and meta title
	Name        string    `yaml:"name"`        // og:site_name
	Description string    `yaml:"description"` // meta and og description
	Keywords    []string  `yaml:"keywords"`
	URL         string    `yaml:"url"` // canonical site URL, og:url
	Image       string    `yaml:"image"`
	Creator     string    `yaml:"creator"`
	Twitter     string    `yaml:"twitter"` // twitter:site handle
	Logo        string    `yaml:"logo"`
	DarkLogo    string    `yaml:"darkLogo"`
	LogoLink    string    `yaml:"logoLink"`
	Nav         []NavLink `yaml:"nav"`
}

// NavLink is one navbar entry.
type NavLink struct {
	Label   string `yaml:"label"`
	URL     string `yaml:"url"`
	Current bool   `yaml:"current"` // highlighted as the active section
}

// ContentConfig defines where posts come from and how they are read.
type ContentConfig struct {
	Dir             string   `yaml:"dir"`
	PublicDir       string   `yaml:"publicDir"` // static files served from the site root, "" = none
	AssetsDir       string   `yaml:"assetsDir"` // template and style overrides, "" = built-in
	ImagePrefixes   []string `yaml:"imagePrefixes"`
	DiagramLanguage string   `yaml:"diagramLanguage"`
}

// OutputConfig defines static build options.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	Workers         int    `yaml:"workers"` // 0 = auto
	LegacyRedirects bool   `yaml:"legacyRedirects"`
}

// RenderConfig defines conversion options.
type RenderConfig struct {
	TemplateSet    string `yaml:"templateSet"`
	Style          string `yaml:"style"`
	MathMode       string `yaml:"mathMode"`
	MathErrorColor string `yaml:"mathErrorColor"`
	HighlightLight string `yaml:"highlightLight"`
	HighlightDark  string `yaml:"highlightDark"`
	Timeout        string `yaml:"timeout"` // Go duration, e.g. "30s"
}

// ServerConfig defines the HTTP server options.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
	Metrics         bool   `yaml:"metrics"`
}

// LogConfig defines structured logging options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"site", &c.Site},
		{"content", &c.Content},
		{"output", &c.Output},
		{"render", &c.Render},
		{"server", &c.Server},
		{"log", &c.Log},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, s.name, err)
		}
	}
	return nil
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required, validation.Length(0, MaxTitleLength)),
		validation.Field(&c.Name, validation.Length(0, MaxTitleLength)),
		validation.Field(&c.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&c.Keywords, validation.Length(0, MaxKeywords)),
		validation.Field(&c.URL, validation.Length(0, MaxURLLength), is.URL),
		validation.Field(&c.Image, validation.Length(0, MaxURLLength)),
		validation.Field(&c.Creator, validation.Length(0, MaxLabelLength)),
		validation.Field(&c.Twitter, validation.Length(0, MaxLabelLength)),
		validation.Field(&c.Logo, validation.Length(0, MaxURLLength)),
		validation.Field(&c.DarkLogo, validation.Length(0, MaxURLLength)),
		validation.Field(&c.LogoLink, validation.Length(0, MaxURLLength)),
		validation.Field(&c.Nav, validation.Length(0, MaxNavLinks)),
	)
}

// Validate validates one navbar entry.
func (l NavLink) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Label, validation.Required, validation.Length(1, MaxLabelLength)),
		validation.Field(&l.URL, validation.Required, validation.Length(1, MaxURLLength)),
	)
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.DiagramLanguage, validation.By(noWhitespace)),
	)
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(MaxWorkers)),
	)
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TemplateSet, validation.By(noWhitespace)),
		validation.Field(&c.Style, validation.By(noWhitespace)),
		validation.Field(&c.MathMode, validation.In(MathModeAuthor, MathModeDisplay)),
		validation.Field(&c.HighlightLight, validation.By(chromaStyle)),
		validation.Field(&c.HighlightDark, validation.By(chromaStyle)),
		validation.Field(&c.Timeout, validation.By(positiveDuration)),
	)
}

// TimeoutDuration returns the parsed render timeout, zero when unset.
func (c *RenderConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, validation.By(listenAddr)),
		validation.Field(&c.ShutdownTimeout, validation.By(positiveDuration)),
	)
}

// ShutdownDuration returns the parsed shutdown timeout, zero when unset.
func (c *ServerConfig) ShutdownDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(LogLevels...)),
		validation.Field(&c.Format, validation.In(LogFormatText, LogFormatJSON)),
	)
}

func noWhitespace(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, " \t\n{}") {
		return errors.New("must be a single word")
	}
	return nil
}

func chromaStyle(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := styles.Registry[s]; !ok {
		return fmt.Errorf("unknown highlight style %q", s)
	}
	return nil
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 30s")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func listenAddr(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("must be host:port")
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.New("port must be between 0 and 65535")
	}
	return nil
}

// DefaultConfig returns the configuration of the Electisec blog.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Title:       "Electisec Blogs (previously yAcademy & yAudit)",
			Name:        "Electisec",
			Description: "ZK & Smart Contract Security",
			Keywords: []string{
				"Electisec", "Zero Knowledge", "Smart Contract Security",
				"Blockchain Security", "Ethereum", "Cryptography", "DeFi",
			},
			URL:      "https://blogs.electisec.tech",
			Image:    "https://blogs.electisec.tech/logo.svg",
			Creator:  "Electisec Team",
			Twitter:  "@electisec",
			Logo:     "/logo.svg",
			DarkLogo: "/darklogo.svg",
			LogoLink: "https://electisec.com/",
			Nav: []NavLink{
				{Label: "Reports", URL: "https://reports.electisec.com/"},
				{Label: "Blog", URL: "https://blog.electisec.com/", Current: true},
				{Label: "Research", URL: "https://research.electisec.com/"},
				{Label: "Fellowships", URL: "https://electisec.com/fellowships"},
				{Label: "Services", URL: "https://electisec.com/services"},
				{Label: "Team", URL: "https://electisec.com/team"},
				{Label: "Contact", URL: "https://electisec.com/contact-us"},
			},
		},
		Content: ContentConfig{
			Dir:             "posts",
			PublicDir:       "public",
			ImagePrefixes:   []string{"../public/"},
			DiagramLanguage: "mermaid",
		},
		Output: OutputConfig{Dir: "dist", LegacyRedirects: true},
		Render: RenderConfig{
			TemplateSet:    "default",
			Style:          "site",
			MathMode:       MathModeAuthor,
			MathErrorColor: "#cc0000",
			HighlightLight: "github",
			HighlightDark:  "dracula",
			Timeout:        "30s",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:3000",
			ShutdownTimeout: "10s",
			Metrics:         true,
		},
		Log: LogConfig{Level: "info", Format: LogFormatText},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdblog/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
