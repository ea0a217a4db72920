package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/pkg/storage"
)

// historyCommand creates the history command, which lists recorded
// snapshots of a package.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history <registry> <package>",
		Short: "List recorded snapshots of a package",
		Long: `List snapshots recorded with "analyze --record", newest first.
Requires mongo.uri in the config file or PKGTREND_MONGO_URI.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeRegistry,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			snaps, err := runner.History(ctx, args[0], args[1], limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snaps)
			}
			if len(snaps) == 0 {
				printInfo("No snapshots recorded for %s/%s", args[0], args[1])
				return nil
			}

			fmt.Println(StyleTitle.Render(args[0] + "/" + args[1]))
			for _, s := range snaps {
				printSnapshot(s)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultHistoryLimit, "maximum number of snapshots")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshots as JSON")
	return cmd
}

func printSnapshot(s storage.Snapshot) {
	printKeyValue(s.TakenAt.Format("2006-01-02 15:04"),
		fmt.Sprintf("%s  %s downloads  %s %s  %s",
			s.Period,
			formatFloat(float64(s.Total)),
			slopeIcon(s.Analysis.Slope),
			s.Analysis.Trend,
			s.Analysis.Volatility))
}
