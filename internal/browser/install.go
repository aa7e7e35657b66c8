package browser

import (
	"fmt"

	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"github.com/go-rod/rod/lib/launcher"
)

// EnsureBrowser returns a usable Chromium binary. A locally installed
// browser is preferred; otherwise rod's pinned revision is downloaded into
// its cache. force skips the lookup and downloads again.
func EnsureBrowser(force bool) (string, error) {
	if !force {
		if bin, ok := launcher.LookPath(); ok {
			logger.Info("Using installed browser at %s", bin)
			return bin, nil
		}
	}

	b := launcher.NewBrowser()
	if force {
		logger.Info("Downloading Chromium revision %d to %s", b.Revision, b.Dir())
		if err := b.Download(); err != nil {
			return "", fmt.Errorf("failed to download browser: %w", err)
		}
		return b.BinPath(), nil
	}

	logger.Info("No installed browser found, fetching Chromium revision %d", b.Revision)
	bin, err := b.Get()
	if err != nil {
		return "", fmt.Errorf("failed to get browser: %w", err)
	}
	return bin, nil
}
