package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/internal/server"
	"github.com/matzehuels/pkgtrend/pkg/observability/prom"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON HTTP API. Prometheus metrics are served on /metrics.

The listen address, rate limit, cache backend and snapshot store come from
the config file; --addr overrides server.addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			prom.New(prometheus.DefaultRegisterer).Register()

			runner, err := c.newServeRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			logger := loggerFromContext(ctx)
			if _, ok := runner.Store.(*storage.MemoryStore); ok {
				logger.Warn("mongo.uri not set, snapshots are kept in memory until the server stops")
			}
			logger.Info("starting API",
				"cache", cfg.Cache.Backend,
				"store", runner.Store != nil,
				"rate_limit", cfg.Server.RateLimit)

			srv := server.New(runner, logger, server.Config{
				Addr:       cfg.Server.Addr,
				RateLimit:  cfg.Server.RateLimit,
				Burst:      cfg.Server.Burst,
				TrustProxy: cfg.Server.TrustProxy,
				Gatherer:   prometheus.DefaultGatherer,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// newServeRunner is newRunner with an in-memory snapshot store when no
// MongoDB is configured, so recorded snapshots and history work for the
// lifetime of the server.
func (c *CLI) newServeRunner(ctx context.Context) (*pipeline.Runner, error) {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return nil, err
	}
	if runner.Store == nil {
		runner.Store = storage.NewMemoryStore()
	}
	return runner, nil
}
