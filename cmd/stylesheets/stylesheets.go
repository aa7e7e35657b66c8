package stylesheets

import (
	"fmt"
	"os"

	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/dom"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
	"github.com/JSH-Team/domprobe/internal/workers/probe"

	"github.com/spf13/cobra"
)

var showMedia bool

// StylesheetsCmd lists the stylesheets a rendered page links.
var StylesheetsCmd = &cobra.Command{
	Use:   "stylesheets <target>",
	Short: "List the stylesheets a page links",
	Long: `Load the target in a headless browser and print the href of every
<link rel="stylesheet"> whose media is empty, all, screen or one of --media.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		target, err := probe.ParseTarget(args[0], os.Stdin)
		if err != nil {
			return err
		}

		browsers, err := probe.OpenBrowsers(ctx, 1)
		if err != nil {
			return err
		}
		defer func() {
			if err := browsers.Shutdown(); err != nil {
				logger.Warn("Failed to stop browsers: %v", err)
			}
		}()

		session, err := probe.Load(ctx, browsers, target, config.SettleTimeout)
		if err != nil {
			return err
		}
		defer session.Close()

		refs, err := dom.Stylesheets(ctx, session, config.Media)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, ref := range refs {
			if showMedia {
				media := ref.Media
				if media == "" {
					media = "-"
				}
				fmt.Fprintf(out, "%-10s %s\n", media, ref.Href)
				continue
			}
			fmt.Fprintln(out, ref.Href)
		}
		return nil
	},
}

func init() {
	StylesheetsCmd.Flags().BoolVar(&showMedia, "show-media", false, "Print each stylesheet's media attribute")
}
