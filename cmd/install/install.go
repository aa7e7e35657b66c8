package install

import (
	"fmt"

	"github.com/JSH-Team/domprobe/internal/browser"

	"github.com/spf13/cobra"
)

var force bool

// InstallCmd makes sure a Chromium binary is available for the workers.
var InstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Locate or download the Chromium used by the workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bin, err := browser.EnsureBrowser(force)
		if err != nil {
			return fmt.Errorf("installation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), bin)
		return nil
	},
}

func init() {
	InstallCmd.Flags().BoolVar(&force, "force", false, "Download Chromium even if one is installed")
}
