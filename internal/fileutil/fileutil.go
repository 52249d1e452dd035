// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkdownExt is the extension of content files.
const MarkdownExt = ".md"

// Sentinel errors for file utility operations.
var (
	ErrPathEmpty     = errors.New("path cannot be empty")
	ErrSlugEmpty     = errors.New("slug cannot be empty")
	ErrSlugTraversal = errors.New("slug contains path separator, dot segment or null byte")
)

// WriteFileAtomic writes data next to path under a temporary name and renames
// it into place, so readers never observe a partially written page.
// Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrPathEmpty
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".mdblog-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmpFile.Write(data); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ValidateSlug checks that a slug names a single file inside a directory.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugEmpty
	}
	if strings.ContainsAny(slug, "/\\\x00") || slug == "." || slug == ".." || strings.HasPrefix(slug, ".") {
		return ErrSlugTraversal
	}
	return nil
}

// IsMarkdown reports whether name has the content file extension
// (case-insensitive).
func IsMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), MarkdownExt)
}

// SlugFromPath returns the file name of path with the Markdown extension
// removed. Other extensions are kept.
//
// Examples:
//   - "posts/2024-01-05-intro.md" -> "2024-01-05-intro"
//   - "about.MD" -> "about"
//   - "notes.txt" -> "notes.txt"
func SlugFromPath(path string) string {
	base := filepath.Base(path)
	if IsMarkdown(base) {
		return base[:len(base)-len(MarkdownExt)]
	}
	return base
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
