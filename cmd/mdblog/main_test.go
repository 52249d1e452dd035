package main

// Notes:
// - runMain: we test dispatch and exit codes end to end with temporary
//   content directories. Logs go to the stderr buffer.
// - serve and --watch runs are stopped by a context timeout; a clean stop
//   exits 0.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdblog/internal/build"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

// testEnv returns an Environment backed by buffers and a fixed variable set.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
	return env, &stdout, &stderr
}

// writeContent creates a posts directory with one valid post.
func writeContent(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	post := "---\ntitle: Hello\nauthor: Alice\ndate: 2024-01-05\n---\n# Hi\n\nBody text.\n"
	if err := os.WriteFile(filepath.Join(dir, "hello.md"), []byte(post), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// ---------------------------------------------------------------------------
// TestRunMain - Dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"mdblog"}, ExitUsage, "", "Usage: mdblog"},
		{"unknown command", []string{"mdblog", "publish"}, ExitUsage, "", "unknown command: publish"},
		{"version", []string{"mdblog", "version"}, ExitSuccess, "mdblog dev", ""},
		{"version flag", []string{"mdblog", "--version"}, ExitSuccess, "mdblog dev", ""},
		{"help", []string{"mdblog", "help"}, ExitSuccess, "Commands:", ""},
		{"help build", []string{"mdblog", "help", "build"}, ExitSuccess, "--no-legacy", ""},
		{"help unknown", []string{"mdblog", "help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"build -h", []string{"mdblog", "build", "-h"}, ExitSuccess, "", "Usage: mdblog build"},
		{"unknown flag", []string{"mdblog", "build", "--nope"}, ExitUsage, "", "unknown flag"},
		{"build extra arg", []string{"mdblog", "build", "extra"}, ExitUsage, "", "unexpected argument"},
		{"render no file", []string{"mdblog", "render"}, ExitIO, "", "no input file"},
		{"render not markdown", []string{"mdblog", "render", "post.txt"}, ExitUsage, "", "not a .md file"},
		{"render missing file", []string{"mdblog", "render", "missing.md"}, ExitIO, "", "failed to read markdown"},
		{"bad math mode", []string{"mdblog", "build", "--math-mode", "inline"}, ExitUsage, "", "invalid config"},
		{"missing config", []string{"mdblog", "build", "--config", "./nope.yaml"}, ExitUsage, "", "config file not found"},
		{"missing content", []string{"mdblog", "build", "--content", "/no/such/dir", "-o", "/tmp/x"}, ExitIO, "", "hint:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			got := runMain(context.Background(), tt.args, env)
			if got != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, got, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want containing %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want containing %q", stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Build - Static build through the CLI
// ---------------------------------------------------------------------------

func TestRunMain_Build(t *testing.T) {
	t.Parallel()

	content := writeContent(t)
	out := filepath.Join(t.TempDir(), "dist")
	env, stdout, stderr := testEnv(map[string]string{"MDBLOG_LOG_LEVEL": "error"})

	code := runMain(context.Background(), []string{"mdblog", "build", "--content", content, "-o", out}, env)
	if code != ExitSuccess {
		t.Fatalf("build exit = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "built 1 posts") {
		t.Errorf("stdout = %q, want build summary", stdout)
	}

	for _, rel := range []string{"index.html", "404.html", "hello/index.html", "og/hello.png", "blogs/hello/index.html"} {
		if _, err := os.Stat(filepath.Join(out, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestRunMain_Build_NoLegacy(t *testing.T) {
	t.Parallel()

	content := writeContent(t)
	out := filepath.Join(t.TempDir(), "dist")
	env, _, stderr := testEnv(nil)

	code := runMain(context.Background(), []string{"mdblog", "build", "-q", "--no-legacy", "--content", content, "-o", out}, env)
	if code != ExitSuccess {
		t.Fatalf("build exit = %d, want 0\nstderr: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "blogs")); !os.IsNotExist(err) {
		t.Errorf("blogs/ written with --no-legacy (err = %v)", err)
	}
}

func TestRunMain_Build_FailedPost(t *testing.T) {
	t.Parallel()

	content := writeContent(t)
	if err := os.WriteFile(filepath.Join(content, "broken.md"), []byte("---\ntitle: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "dist")
	env, stdout, _ := testEnv(nil)

	code := runMain(context.Background(), []string{"mdblog", "build", "-q", "--content", content, "-o", out}, env)
	if code != ExitGeneral {
		t.Errorf("build exit = %d, want %d", code, ExitGeneral)
	}
	if !strings.Contains(stdout.String(), "failed: broken") {
		t.Errorf("stdout = %q, want failed post listed", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "hello", "index.html")); err != nil {
		t.Errorf("valid post not written: %v", err)
	}
}

func TestRunMain_Build_Watch(t *testing.T) {
	t.Parallel()

	content := writeContent(t)
	out := filepath.Join(t.TempDir(), "dist")
	env, _, stderr := testEnv(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	code := runMain(ctx, []string{"mdblog", "build", "-q", "--watch", "--content", content, "-o", out}, env)
	if code != ExitSuccess {
		t.Errorf("build --watch exit = %d, want 0\nstderr: %s", code, stderr)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Render - Single file output
// ---------------------------------------------------------------------------

func TestRunMain_Render(t *testing.T) {
	t.Parallel()

	path := filepath.Join(writeContent(t), "hello.md")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"html", []string{"mdblog", "render", path}, []string{"<p>Body text.</p>"}},
		{"json", []string{"mdblog", "render", "--json", path}, []string{
			`"slug": "hello"`,
			`"title": "Hello"`,
			`"date": "2024-01-05T00:00:00.000Z"`,
			`"summary": "Body text."`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			if code := runMain(context.Background(), tt.args, env); code != ExitSuccess {
				t.Fatalf("render exit = %d, want 0\nstderr: %s", code, stderr)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout = %q, want containing %q", stdout, want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Serve - Server lifecycle through the CLI
// ---------------------------------------------------------------------------

func TestRunMain_Serve(t *testing.T) {
	t.Parallel()

	content := writeContent(t)
	env, _, stderr := testEnv(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	args := []string{"mdblog", "serve", "-q", "--watch", "--addr", "127.0.0.1:0", "--content", content}
	if code := runMain(ctx, args, env); code != ExitSuccess {
		t.Errorf("serve exit = %d, want 0\nstderr: %s", code, stderr)
	}
}

func TestRunMain_Serve_AddressInUse(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	env, _, stderr := testEnv(nil)
	args := []string{"mdblog", "serve", "-q", "--addr", ln.Addr().String(), "--content", writeContent(t)}
	if code := runMain(context.Background(), args, env); code != ExitGeneral {
		t.Errorf("serve exit = %d, want %d", code, ExitGeneral)
	}
	if !strings.Contains(stderr.String(), "another process uses") {
		t.Errorf("stderr = %q, want listen hint", stderr)
	}
}

// ---------------------------------------------------------------------------
// TestWithHint - Hints appended to command errors
// ---------------------------------------------------------------------------

func TestWithHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout", fmt.Errorf("post.md: %w", context.DeadlineExceeded), "--timeout"},
		{"output dir", fmt.Errorf("%w: empty path", build.ErrOutputDir), "writable"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := withHint(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("withHint(nil) = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("withHint() = %v, lost the original error", got)
			}
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("withHint() = %q, want containing %q", got, tt.want)
			}
		})
	}
}
