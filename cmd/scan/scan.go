package scan

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JSH-Team/domprobe/internal/utils/logger"
	"github.com/JSH-Team/domprobe/internal/workers/probe"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var noSave bool

// ScanCmd probes every target of a targets file through the worker pool.
var ScanCmd = &cobra.Command{
	Use:   "scan <targets.yaml>",
	Short: "Probe many targets concurrently and save a report for each",
	Long: `Read a YAML targets file and probe every target through the browser pool.

  selectors: [".shared"]        # candidates checked on every target
  media: [print]                # extra stylesheet media for every target
  targets:
    - name: home
      url: https://example.com/
      selectors: [".hero"]
    - file: ./pages/about.html

One YAML report per target is written to the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		targets, err := probe.LoadTargets(args[0])
		if err != nil {
			return err
		}

		browsers, err := probe.OpenBrowsers(ctx, 0)
		if err != nil {
			return err
		}
		defer func() {
			if err := browsers.Shutdown(); err != nil {
				logger.Warn("Failed to stop browsers: %v", err)
			}
		}()

		opts := probe.OptionsFromConfig(!noSave)
		if opts.QueueSize < len(targets) {
			opts.QueueSize = len(targets)
		}

		wp := probe.NewProbeWorkerPool(ctx, browsers, opts)
		if err := wp.Start(); err != nil {
			return err
		}
		if err := wp.SubmitJobs(targets); err != nil {
			wp.Stop()
			return err
		}

		drained := make(chan error, 1)
		go func() { drained <- wp.Drain() }()

		bar := progressbar.NewOptions(len(targets),
			progressbar.OptionSetDescription("Probing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionFullWidth(),
		)
		bar.RenderBlank()

		var results []probe.Result
		for r := range wp.Results() {
			results = append(results, r)
			bar.Add(1)
		}
		if err := <-drained; err != nil {
			return err
		}

		failed := printSummary(cmd.OutOrStdout(), results)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan interrupted after %d of %d targets: %w", len(results), len(targets), err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d targets failed", failed, len(targets))
		}
		return nil
	},
}

func printSummary(w io.Writer, results []probe.Result) int {
	failed := 0
	fmt.Fprintf(w, "%-6s %-9s %-8s %s\n", "STATUS", "MATCHED", "TIME", "TARGET")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed"
			failed++
		}
		fmt.Fprintf(w, "%-6s %4d/%-4d %-8s %s\n",
			status,
			len(r.Report.Matched),
			r.Report.Candidates,
			r.Duration.Round(time.Millisecond),
			r.Report.Target,
		)
		if r.ReportPath != "" {
			fmt.Fprintf(w, "       report: %s\n", r.ReportPath)
		}
	}
	return failed
}

func init() {
	ScanCmd.Flags().Int("workers", 4, "Number of targets probed at once")
	ScanCmd.Flags().Int("queue-size", 100, "Probe queue capacity")
	ScanCmd.Flags().StringP("output", "o", "", "Directory for reports (default is the config dir)")
	ScanCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not write reports")
}
