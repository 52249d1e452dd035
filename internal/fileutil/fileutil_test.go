package fileutil_test

// Notes:
// - The Write, Close and Rename error branches in WriteFileAtomic are not
//   tested because triggering disk failures is platform-specific.

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-mdblog/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Atomic page writes
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rel     string
		content string
	}{
		{
			name:    "file in existing dir",
			rel:     "index.html",
			content: "<html></html>",
		},
		{
			name:    "nested dirs created",
			rel:     "og/deep/card.png",
			content: "\x89PNG",
		},
		{
			name:    "empty content",
			rel:     "empty.html",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, tt.rel)
			if err := fileutil.WriteFileAtomic(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFileAtomic() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read written file: %v", err)
			}
			if string(data) != tt.content {
				t.Errorf("file content = %q, want %q", string(data), tt.content)
			}

			// No temp files left behind
			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range entries {
				if e.Name() != filepath.Base(path) && !e.IsDir() {
					t.Errorf("unexpected leftover file %q", e.Name())
				}
			}
		})
	}
}

func TestWriteFileAtomic_Overwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := fileutil.WriteFileAtomic(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("file content = %q, want %q", data, "new")
	}
}

func TestWriteFileAtomic_EmptyPath(t *testing.T) {
	t.Parallel()

	if err := fileutil.WriteFileAtomic("", nil, 0o644); !errors.Is(err, fileutil.ErrPathEmpty) {
		t.Errorf("WriteFileAtomic(\"\") error = %v, want %v", err, fileutil.ErrPathEmpty)
	}
}

// ---------------------------------------------------------------------------
// TestValidateSlug - Slug safety
// ---------------------------------------------------------------------------

func TestValidateSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		slug    string
		wantErr error
	}{
		{"plain", "intro", nil},
		{"dated", "2024-01-05-intro", nil},
		{"empty", "", fileutil.ErrSlugEmpty},
		{"forward slash", "a/b", fileutil.ErrSlugTraversal},
		{"backslash", `a\b`, fileutil.ErrSlugTraversal},
		{"parent", "..", fileutil.ErrSlugTraversal},
		{"hidden", ".env", fileutil.ErrSlugTraversal},
		{"null byte", "a\x00b", fileutil.ErrSlugTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateSlug(tt.slug)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSlug(%q) = %v, want %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSlugFromPath - Slug derivation
// ---------------------------------------------------------------------------

func TestSlugFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"posts/2024-01-05-intro.md", "2024-01-05-intro"},
		{"about.MD", "about"},
		{"notes.txt", "notes.txt"},
		{"a.b.md", "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.SlugFromPath(tt.path); got != tt.want {
				t.Errorf("SlugFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"post.md", true},
		{"POST.Md", true},
		{"post.markdown", false},
		{"post", false},
		{"md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsMarkdown(tt.name); got != tt.want {
				t.Errorf("IsMarkdown(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestDirExists - Existence checks
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "post.md")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Errorf("FileExists(%q) = false, want true", file)
	}
	if fileutil.FileExists(dir) {
		t.Errorf("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing.md")) {
		t.Errorf("FileExists(missing) = true, want false")
	}
}

func TestDirExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "post.md")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !fileutil.DirExists(dir) {
		t.Errorf("DirExists(dir) = false, want true")
	}
	if fileutil.DirExists(file) {
		t.Errorf("DirExists(file) = true, want false")
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"https://x.com/alice", true},
		{"http://example.com", true},
		{"alice", false},
		{"/local/path", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsURL(tt.input); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
