package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[\x00-\x1f\x7f\\/:*?"<>|]`)
var dashRuns = regexp.MustCompile(`-+`)

// SanitizeFileName removes characters that cannot be used in file names on
// common filesystems. Use it for individual path components, not full paths.
func SanitizeFileName(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "-")
	safe = dashRuns.ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, " .-")
	if safe == "" {
		safe = "untitled"
	}
	return safe
}

// AssetPath builds the on-disk location for a lesson asset under the content
// root. Both components are sanitized so a hostile manifest cannot escape the
// content directory.
func AssetPath(contentRoot, lessonID, fileName string) string {
	return filepath.Join(contentRoot, SanitizeFileName(lessonID), SanitizeFileName(fileName))
}

// ValidateContentDir checks that the content directory exists (creating it if
// needed) and is writable. Called once at startup before any download runs.
func ValidateContentDir(path string) error {
	if path == "" {
		return fmt.Errorf("content path cannot be empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("content path contains invalid directory traversal")
	}

	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access content path: %w", err)
		}
		if err := os.MkdirAll(cleanPath, 0755); err != nil {
			return fmt.Errorf("cannot create content directory: %w", err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("content path exists but is not a directory: %s", cleanPath)
	}

	// Verify write permission by creating a probe file.
	probe := filepath.Join(cleanPath, ".porakhela_write_check")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("no write permission for content directory: %w", err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}
