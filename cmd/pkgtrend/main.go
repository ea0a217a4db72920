package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/internal/cli"
	pkgerrors "github.com/matzehuels/pkgtrend/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// exitCode returns 2 for invalid input and 1 for everything else.
func exitCode(err error) int {
	switch pkgerrors.GetCode(err) {
	case pkgerrors.ErrCodeInvalidInput, pkgerrors.ErrCodeInvalidRegistry, pkgerrors.ErrCodeInvalidPackage,
		pkgerrors.ErrCodeInvalidPeriod, pkgerrors.ErrCodeInvalidBucketSize, pkgerrors.ErrCodeInvalidSeries:
		return 2
	default:
		return 1
	}
}
