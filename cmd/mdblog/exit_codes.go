package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdblog"
	"github.com/alnah/go-mdblog/internal/assets"
	"github.com/alnah/go-mdblog/internal/build"
	"github.com/alnah/go-mdblog/internal/config"
)

// Exit codes for the mdblog CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error, including failed posts
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
)

// Sentinel errors of the CLI layer.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrNoInput      = errors.New("no input file")
	ErrReadMarkdown = errors.New("failed to read markdown")
)

// usageError marks a flag parsing error as a usage error. flag.ErrHelp is
// passed through so that -h exits successfully.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return errors.Join(ErrUsage, err)
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, mdblog.ErrContentDir) ||
		errors.Is(err, build.ErrOutputDir) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, mdblog.ErrInvalidMathMode) ||
		errors.Is(err, mdblog.ErrInvalidHighlightStyle) ||
		errors.Is(err, mdblog.ErrInvalidDiagramLang) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateSetNotFound) ||
		errors.Is(err, assets.ErrIncompleteTemplateSet) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
