package filesystem

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multipleDots = regexp.MustCompile(`\.{2,}`)
)

// ExtractDomain extracts and cleans the domain from a URL for filesystem use
func ExtractDomain(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty URL")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	domain := parsedURL.Hostname()
	if domain == "" {
		return "", fmt.Errorf("no hostname found in URL")
	}

	return CleanPath(domain), nil
}

// CleanPath cleans a path component for safe filesystem use
func CleanPath(path string) string {
	if path == "" {
		return "unknown"
	}

	path = strings.TrimPrefix(path, "http://")
	path = strings.TrimPrefix(path, "https://")

	path = invalidChars.ReplaceAllString(path, "_")
	path = multipleDots.ReplaceAllString(path, ".")
	path = strings.Trim(path, ". ")
	path = strings.ReplaceAll(path, " ", "_")

	if path == "" || path == "." || path == ".." {
		return "unknown"
	}

	if len(path) > 100 {
		path = path[:100]
	}

	return path
}

// WriteFileOnce writes data to path, creating parent directories. An
// existing file is left untouched and reported as not written.
func WriteFileOnce(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
