package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/pkg/alttext"
	"github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// statsCommand creates the stats command, which analyzes a series read from
// a file or stdin without contacting any registry.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Analyze a series of values from a file or stdin",
		Long: `Analyze a series of values read from a file, or from stdin when no file
(or "-") is given.

The input is either a JSON array such as [120, null, 135] or one value per
line. Gaps are written as null, NA, "-" or an empty line.

Examples:
  pkgtrend stats downloads.txt
  echo '[3, 4, null, 6]' | pkgtrend stats --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			values, err := parseValues(data)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, loggerFromContext(cmd.Context()))
			a, err := runner.AnalyzeRaw(cmd.Context(), values)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a)
			}

			printAnalysis(a)
			printNewline()
			printInfo("%s", alttext.LineChart([]alttext.LineSeries{{Name: "series", Values: values}}, nil, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	return cmd
}

// weeklyCommand creates the weekly command, which sums labeled daily values
// into fixed-size buckets.
func (c *CLI) weeklyCommand() *cobra.Command {
	var (
		size   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "weekly [file]",
		Short: "Sum daily values from a file or stdin into buckets",
		Long: `Sum labeled daily values into consecutive buckets of --size days
(7 by default). The last bucket is shorter when the days do not divide evenly.

The input is either a JSON array of {"label": ..., "value": ...} objects or
one "label,value" (or "label value") pair per line.

Examples:
  pkgtrend weekly daily.csv
  pkgtrend weekly --size 14 --json < daily.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			daily, err := parseDaily(data)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, loggerFromContext(cmd.Context()))
			buckets, err := runner.Aggregate(cmd.Context(), daily, size)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), buckets)
			}

			printBuckets(buckets)
			printNewline()
			printInfo("%s", alttext.BarChart("Downloads per period", buckets, nil, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", trend.DefaultBucketSize, "days per bucket")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the buckets as JSON")
	return cmd
}

// readInput reads the named file, or stdin when args is empty or "-".
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", args[0])
	}
	return data, nil
}

func isJSONArray(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
}

// parseValues parses a JSON array or one value per line. Blank lines and
// the gap markers null, NA and "-" become nil entries.
func parseValues(data []byte) ([]*float64, error) {
	if isJSONArray(data) {
		var values []*float64
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSeries, err, "parse JSON series")
		}
		return values, nil
	}

	var values []*float64
	sc := bufio.NewScanner(bytes.NewReader(bytes.TrimRight(data, " \t\r\n")))
	for line := 1; sc.Scan(); line++ {
		field := strings.TrimSpace(sc.Text())
		if isGap(field) {
			values = append(values, nil)
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidSeries, "line %d: not a number: %q", line, field)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values = append(values, nil)
			continue
		}
		values = append(values, &v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return values, nil
}

// parseDaily parses a JSON array of daily points or "label,value" lines.
// Missing values count as zero.
func parseDaily(data []byte) ([]trend.DailyPoint, error) {
	if isJSONArray(data) {
		var daily []trend.DailyPoint
		if err := json.Unmarshal(data, &daily); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSeries, err, "parse JSON daily values")
		}
		return daily, nil
	}

	var daily []trend.DailyPoint
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\t' || r == ' ' })
		if len(fields) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidSeries, "line %d: want \"label,value\", got %q", line, text)
		}
		p := trend.DailyPoint{Label: fields[0]}
		if !isGap(fields[1]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidSeries, "line %d: not a number: %q", line, fields[1])
			}
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				p.Value = v
			}
		}
		daily = append(daily, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read daily values: %w", err)
	}
	return daily, nil
}

func isGap(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "na", "nan", "-":
		return true
	}
	return false
}
