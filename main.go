package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JSH-Team/domprobe/cmd"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
)

// Version information set during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.SetVersion(Version, BuildTime, GitCommit)

	// Cancel on interrupt so commands can close their browsers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
