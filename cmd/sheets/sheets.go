package sheets

import (
	"fmt"

	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/utils/fetch"
	"github.com/JSH-Team/domprobe/internal/utils/format"
	urlutils "github.com/JSH-Team/domprobe/internal/utils/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var asYAML bool

// SheetsCmd fetches a page's stylesheets over plain HTTP, without a browser.
var SheetsCmd = &cobra.Command{
	Use:   "sheets <url>",
	Short: "Fetch the CSS a page references, without a browser",
	Long: `Download the page, then every stylesheet it links and every inline <style>
block, and print their sizes. Stylesheets added by scripts are not seen;
use the stylesheets command for the rendered view.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !urlutils.IsRemote(args[0]) {
			return fmt.Errorf("%s is not an http(s) URL", args[0])
		}

		f := fetch.NewAssetFetcher(config.FetchRatePerMinute)
		sheets, err := fetch.FetchStylesheets(cmd.Context(), f, args[0], config.Media)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asYAML {
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(sheets)
		}

		fmt.Fprintf(out, "%-10s %-8s %s\n", "SIZE", "MEDIA", "URL")
		var total int64
		for _, s := range sheets {
			size := format.Size(int64(s.Size))
			if s.Error != "" {
				size = "error"
			}
			media := s.Media
			if media == "" {
				media = "-"
			}
			fmt.Fprintf(out, "%-10s %-8s %s\n", size, media, s.URL)
			total += int64(s.Size)
		}
		fmt.Fprintf(out, "%d stylesheets, %s\n", len(sheets), format.Size(total))
		return nil
	},
}

func init() {
	SheetsCmd.Flags().Int("rate", config.FetchRatePerMinute, "Maximum requests per minute")
	SheetsCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the result as YAML")
}
