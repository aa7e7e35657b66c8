package probe

import (
	"context"

	"github.com/JSH-Team/domprobe/internal/browser"
	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/pool"
)

// OpenBrowsers starts a browser pool of the given size, configured from the
// loaded configuration. A size of zero or less uses config.Concurrency.
func OpenBrowsers(ctx context.Context, size int) (*pool.Pool, error) {
	if size <= 0 {
		size = config.Concurrency
	}
	return pool.New(ctx, pool.Options{
		Concurrency: size,
		Launcher:    browser.NewRodLauncher(config.ChromeBin, config.NoSandbox),
		EvalTimeout: config.EvalTimeout,
	})
}

// OptionsFromConfig returns worker pool options from the loaded
// configuration. Reports are written only when saveReports is set.
func OptionsFromConfig(saveReports bool) Options {
	opts := Options{
		Workers:   config.ProbeWorkers,
		QueueSize: config.ProbeQueueSize,
		Settle:    config.SettleTimeout,
		Media:     config.Media,
	}
	if saveReports {
		opts.ReportsDir = config.GetReportsPath()
	}
	return opts
}
