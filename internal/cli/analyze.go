package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	period     string
	bucketSize int
	refresh    bool
	record     bool
	noCache    bool
	json       bool
}

// analyzeCommand creates the analyze command, which runs the full pipeline
// for one package.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <registry> <package>",
		Short: "Fetch and analyze the daily downloads of a package",
		Long: `Fetch the daily download counts of a package and analyze them.

Supported registries: npm, pypi, crates.

Examples:
  pkgtrend analyze npm react
  pkgtrend analyze pypi requests --period last-quarter
  pkgtrend analyze crates serde --bucket-size 14 --json
  pkgtrend analyze npm @types/node --record`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeRegistry,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.period, "period", "p", string(pipeline.DefaultPeriod), "download window: "+periodList())
	cmd.Flags().IntVarP(&opts.bucketSize, "bucket-size", "b", pipeline.DefaultBucketSize, "days per bucket")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached registry responses")
	cmd.Flags().BoolVar(&opts.record, "record", false, "record a snapshot (requires mongo.uri)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	_ = cmd.RegisterFlagCompletionFunc("period", completePeriod)

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, out io.Writer, registry, pkg string, opts analyzeOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Fetching %s/%s", registry, pkg))
	spinner.Start()
	result, err := runner.Execute(ctx, pipeline.Options{
		Registry:   registry,
		Package:    pkg,
		Period:     downloads.Period(opts.period),
		BucketSize: opts.bucketSize,
		Refresh:    opts.refresh,
		Record:     opts.record,
		Logger:     logger,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, result)
	}

	prog.done(fmt.Sprintf("Analyzed %s/%s", registry, result.Series.Package))
	printResult(result, opts)
	return nil
}

func printResult(r *pipeline.Result, opts analyzeOpts) {
	s := r.Series
	fmt.Println(StyleTitle.Render(s.Registry+"/"+s.Package) + " " +
		StyleDim.Render(fmt.Sprintf("%s to %s", s.Start.Format(downloads.DateLayout), s.End.Format(downloads.DateLayout))))
	printStats(r.Stats.Days, r.Stats.Reported, r.Stats.Total, r.CacheInfo.SeriesHit)
	if r.Stats.Reported < r.Stats.Days {
		printWarning("%d days without data are excluded from the analysis", r.Stats.Days-r.Stats.Reported)
	}
	printNewline()

	printAnalysis(r.Analysis)
	printNewline()

	if len(r.Buckets) > 0 {
		size := opts.bucketSize
		if size <= 0 {
			size = pipeline.DefaultBucketSize
		}
		fmt.Println(StyleTitle.Render(fmt.Sprintf("Downloads per %d days", size)))
		printBuckets(r.Buckets)
		printDetail("bucket trend: %s, %s", r.BucketAnalysis.Trend, r.BucketAnalysis.Volatility)
		printNewline()
	}

	printInfo("%s", r.AltText.Line)
	printInfo("%s", r.AltText.Bar)

	if r.Snapshot != nil {
		printSuccess("Recorded snapshot %s", r.Snapshot.ID)
	} else {
		printNewline()
		printNextStep("Track this package over time", fmt.Sprintf("%s analyze %s %s --record", appName, s.Registry, s.Package))
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func periodList() string {
	names := make([]string, 0, len(downloads.Periods()))
	for _, p := range downloads.Periods() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func completeRegistry(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return pipeline.Registries(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func completePeriod(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return strings.Split(periodList(), ", "), cobra.ShellCompDirectiveNoFileComp
}
