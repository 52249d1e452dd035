// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"net"
	"os"
	"strings"

	"github.com/alnah/go-mdblog/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForListen returns hints for server listen errors.
// Inside containers or CI a loopback address is unreachable from outside, so
// the hint suggests binding all interfaces; a port conflict suggests another.
func ForListen(addr string, inUse bool) string {
	var hints []string

	if inUse {
		hints = append(hints, "another process uses "+addr+"; pick one with --addr or MDBLOG_ADDR")
	}

	host, _, err := net.SplitHostPort(addr)
	loopback := err == nil && (host == "127.0.0.1" || host == "localhost" || host == "::1")
	inCI := os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
	if loopback && (inCI || IsInContainer()) {
		hints = append(hints, "listen on 0.0.0.0 to be reachable from outside the container")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdblog/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mdblog") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForContentDirectory returns hints for a missing or empty content directory.
func ForContentDirectory(dir string) string {
	return format("put .md posts in " + dir + " or point --content at another directory")
}

// ForMathMode lists the accepted math modes.
func ForMathMode(valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	return format("available: " + strings.Join(valid, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
