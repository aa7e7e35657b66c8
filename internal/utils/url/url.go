package url

import (
	"fmt"
	"net/url"
	"strings"
)

// IsRemote reports whether target is an http(s) URL rather than a local path.
func IsRemote(target string) bool {
	lower := strings.ToLower(strings.TrimSpace(target))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func ToAbsoluteURL(baseStr, inputStr string) (string, error) {
	u, err := url.Parse(inputStr)
	if err != nil {
		return "", err
	}

	// If the input is already an absolute URL, return it as-is
	if u.IsAbs() {
		return u.String(), nil
	}

	// Otherwise, resolve it against the base
	base, err := url.Parse(baseStr)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(u).String(), nil
}

// GetPageName returns a short name for the page a URL points at: the last
// path segment, or "index" for a directory.
func GetPageName(rawUrl string) (string, error) {
	parsedURL, err := url.Parse(rawUrl)
	if err != nil {
		return "", fmt.Errorf("error parsing URL '%s': %v", rawUrl, err)
	}

	pathParts := strings.Split(strings.TrimSuffix(parsedURL.Path, "/"), "/")
	name := pathParts[len(pathParts)-1]
	if name == "" {
		name = "index"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name, nil
}
