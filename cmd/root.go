package cmd

import (
	"context"
	"fmt"

	"github.com/JSH-Team/domprobe/cmd/install"
	"github.com/JSH-Team/domprobe/cmd/match"
	"github.com/JSH-Team/domprobe/cmd/reports"
	"github.com/JSH-Team/domprobe/cmd/scan"
	"github.com/JSH-Team/domprobe/cmd/sheets"
	"github.com/JSH-Team/domprobe/cmd/stylesheets"
	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	rootCmd = &cobra.Command{
		Use:   "domprobe",
		Short: "Query live pages through a pool of headless browsers",
		Long: `domprobe loads pages in a pool of headless Chromium workers and asks
them which stylesheets they link and which CSS selectors match their DOM.
A target is an http(s) URL, a local HTML file, or - for markup on stdin.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetVerbose(config.Verbose)
			return config.LoadConfig(config.ConfigFile, cmd.Flags())
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("domprobe %s\n", version)
			fmt.Printf("Build time: %s\n", buildTime)
			fmt.Printf("Git commit: %s\n", gitCommit)
		},
	}
)

// SetVersion sets the version information
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
	rootCmd.Version = v
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.ConfigFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/domprobe/config.yaml)")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.IntP("concurrency", "c", config.Concurrency, "Number of browser workers, capped at the CPU count")
	flags.Duration("settle-timeout", config.SettleTimeout, "Delay after each page load before querying it")
	flags.Duration("eval-timeout", config.EvalTimeout, "How long to wait for a script result")
	flags.StringSlice("media", nil, "Stylesheet media to accept besides \"\", all and screen")
	flags.String("chrome-bin", config.ChromeBin, "Chromium binary to launch")
	flags.Bool("no-sandbox", config.NoSandbox, "Launch Chromium without its sandbox")

	rootCmd.AddCommand(stylesheets.StylesheetsCmd)
	rootCmd.AddCommand(match.MatchCmd)
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(sheets.SheetsCmd)
	rootCmd.AddCommand(reports.ReportsCmd)
	rootCmd.AddCommand(install.InstallCmd)
	rootCmd.AddCommand(versionCmd)
}
