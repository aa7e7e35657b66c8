package reports

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/storage"
	"github.com/JSH-Team/domprobe/internal/utils/format"

	"github.com/spf13/cobra"
)

func listReports(cmd *cobra.Command) error {
	dir := config.GetReportsPath()

	paths, err := storage.ListReports(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(paths) == 0) {
		fmt.Fprintf(cmd.OutOrStdout(), "No reports in %s\n", dir)
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %-9s %-9s %s\n", "SAVED", "MATCHED", "SIZE", "TARGET")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	now := time.Now()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		r, err := storage.ReadReport(path)
		if err != nil {
			fmt.Fprintf(out, "%-12s %-9s %-9s %s\n", format.Age(info.ModTime(), now), "-", format.Size(info.Size()), path+" (unreadable)")
			continue
		}

		matched := fmt.Sprintf("%d/%d", len(r.Matched), r.Candidates)
		if r.Error != "" {
			matched = "failed"
		}
		fmt.Fprintf(out, "%-12s %-9s %-9s %s\n", format.Age(info.ModTime(), now), matched, format.Size(info.Size()), r.Target)
	}

	fmt.Fprintf(out, "\n%d reports in %s\n", len(paths), dir)
	return nil
}

// ReportsCmd lists the reports written by scan.
var ReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List saved scan reports",
	Long:  `List the reports written by scan, grouped by the domain they were taken from.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listReports(cmd)
	},
}

func init() {
	ReportsCmd.Flags().StringP("output", "o", "", "Reports directory (default is the config dir)")
}
