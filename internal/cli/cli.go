// Package cli implements the pkgtrend command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/pkg/buildinfo"
	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/config"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/httputil"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "pkgtrend"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config

	// sources replaces the registry clients when set. Used by tests.
	sources map[string]downloads.Fetcher
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pkgtrend analyzes package download trends",
		Long: `pkgtrend fetches daily download counts from npm, PyPI and crates.io and
summarizes them: mean, spread, linear trend, volatility and weekly totals.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(withLogger(ctx, c.Logger))
		return nil
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pkgtrend/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.weeklyCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process, reading .env first so
// its PKGTREND_* variables take part in the overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller must Close it.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix+":")
	}

	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	limiter := httputil.NewHostLimiter(cfg.Registry.RateLimit, cfg.Registry.Burst)
	runner.Sources = pipeline.NewSources(ch,
		integrations.WithKeyer(keyer),
		integrations.WithTimeout(cfg.Registry.Timeout.Duration),
		integrations.WithLimiter(limiter),
	)
	if c.sources != nil {
		runner.Sources = c.sources
	}

	if cfg.Mongo.URI != "" {
		store, err := storage.NewMongoStore(ctx, storage.MongoConfig{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			_ = runner.Close()
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		runner.Store = store
	}
	return runner, nil
}

// newCache opens the configured cache backend, wrapped to report cache
// events to the observability hooks.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return cache.Instrument(rc), nil
	case config.BackendNone:
		return cache.NewNullCache(), nil
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("open cache dir: %w", err)
		}
		return cache.Instrument(fc), nil
	}
}
