package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblog <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Render every post into a static site")
	fmt.Fprintln(w, "  serve      Serve the blog over HTTP, rendering on request")
	fmt.Fprintln(w, "  render     Print one post as HTML or JSON")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdblog help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (default: mdblog.yaml if present)")
	fmt.Fprintln(w, "      --content <dir>       Posts directory")
	fmt.Fprintln(w, "      --math-mode <s>       Math display policy: author, display")
	fmt.Fprintln(w, "      --timeout <d>         Per-post render timeout (e.g. 30s)")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDBLOG_CONFIG, MDBLOG_CONTENT_DIR, MDBLOG_PUBLIC_DIR, MDBLOG_ASSETS_DIR,")
	fmt.Fprintln(w, "  MDBLOG_OUTPUT_DIR, MDBLOG_SITE_URL, MDBLOG_ADDR, MDBLOG_MATH_MODE,")
	fmt.Fprintln(w, "  MDBLOG_TIMEOUT, MDBLOG_LOG_LEVEL, MDBLOG_LOG_FORMAT, MDBLOG_WORKERS,")
	fmt.Fprintln(w, "  MDBLOG_METRICS. A .env file in the working directory is loaded first.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblog build [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every post, the index, social cards and stylesheets into the")
	fmt.Fprintln(w, "output directory, and copy the public directory next to them.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: dist)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel renders (0 = auto)")
	fmt.Fprintln(w, "      --watch               Rebuild when content, public or asset files change")
	fmt.Fprintln(w, "      --no-legacy           Skip redirect pages for /blogs/ URLs")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblog serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the blog over HTTP. Posts are read and rendered on every request.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default: 127.0.0.1:3000)")
	fmt.Fprintln(w, "      --watch               Reload templates and styles when they change")
	fmt.Fprintln(w, "      --no-metrics          Disable the /metrics endpoint")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblog render [flags] <file.md>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert one Markdown file and print its HTML body.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render:")
	fmt.Fprintln(w, "      --json                Print the post props (title, date, tags, content...) as JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdblog version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdblog help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
