package match

import (
	"errors"
	"fmt"
	"os"

	"github.com/JSH-Team/domprobe/internal/config"
	"github.com/JSH-Team/domprobe/internal/dom"
	"github.com/JSH-Team/domprobe/internal/pool"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
	"github.com/JSH-Team/domprobe/internal/workers/probe"

	"github.com/spf13/cobra"
)

var (
	selectors     []string
	selectorsFile string
	unmatched     bool
)

// MatchCmd prints which candidate selectors match a rendered page.
var MatchCmd = &cobra.Command{
	Use:   "match <target>",
	Short: "Print the selectors that match a page",
	Long: `Load the target in a headless browser and print every candidate selector
that matches at least one element. Markup inside <noscript> counts, and
selectors the browser cannot parse are always printed.

With --unmatched the complement is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		candidates, err := loadCandidates()
		if err != nil {
			return err
		}

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

		matched, err := dom.MatchSelectors(ctx, session, candidates)
		if err != nil {
			if !pool.IsNoResult(err) {
				return err
			}
			logger.Warn("Page returned no match result for %s", target.Source())
			matched = []string{}
		}

		result := matched
		if unmatched {
			result = dom.Unmatched(candidates, matched)
		}

		out := cmd.OutOrStdout()
		for _, s := range result {
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

func loadCandidates() ([]string, error) {
	candidates := append([]string{}, selectors...)

	if selectorsFile != "" {
		f, err := os.Open(selectorsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		fromFile, err := probe.ReadSelectors(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", selectorsFile, err)
		}
		candidates = append(candidates, fromFile...)
	}

	if len(candidates) == 0 {
		return nil, errors.New("no selectors given, use -s or --selectors-file")
	}
	return candidates, nil
}

func init() {
	MatchCmd.Flags().StringArrayVarP(&selectors, "selector", "s", nil, "Candidate selector (repeatable)")
	MatchCmd.Flags().StringVar(&selectorsFile, "selectors-file", "", "File with one candidate selector per line")
	MatchCmd.Flags().BoolVar(&unmatched, "unmatched", false, "Print the selectors that do not match instead")
}
