// Package config loads pkgtrend settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/pkgtrend/config.toml
//  3. PKGTREND_* environment variables, optionally read from a .env file
//
// Example config.toml:
//
//	[cache]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//	database = "pkgtrend"
//
//	[server]
//	addr = ":8080"
//	rate_limit = 5.0
//	trust_proxy = false
//
//	[registry]
//	rate_limit = 2.0
//	timeout = "15s"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pkgtrend/pkg/errors"
)

const appName = "pkgtrend"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete pkgtrend configuration.
type Config struct {
	Cache    CacheConfig    `toml:"cache"`
	Redis    RedisConfig    `toml:"redis"`
	Mongo    MongoConfig    `toml:"mongo"`
	Server   ServerConfig   `toml:"server"`
	Registry RegistryConfig `toml:"registry"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"` // file, redis or none
	Dir     string `toml:"dir"`     // file backend directory
	Prefix  string `toml:"prefix"`  // key prefix, for shared Redis instances
}

// RedisConfig holds Redis connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig holds MongoDB settings for snapshot storage. An empty URI
// disables snapshot recording and history.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string  `toml:"addr"`
	RateLimit float64 `toml:"rate_limit"` // requests per second per client, 0 disables
	Burst     int     `toml:"burst"`

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a reverse proxy that sets those headers.
	TrustProxy bool `toml:"trust_proxy"`
}

// RegistryConfig configures outbound registry requests.
type RegistryConfig struct {
	RateLimit float64  `toml:"rate_limit"` // requests per second per host, 0 disables
	Burst     int      `toml:"burst"`
	Timeout   Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     DefaultCacheDir(),
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Mongo: MongoConfig{Database: appName},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 5,
			Burst:     10,
		},
		Registry: RegistryConfig{
			RateLimit: 5,
			Burst:     5,
			Timeout:   Duration{10 * time.Second},
		},
	}
}

// Load reads the configuration file at path on top of the defaults and then
// applies environment overrides. An empty path loads DefaultPath if it
// exists; an explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			md, err := toml.DecodeFile(path, &cfg)
			if err != nil {
				return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
			}
		} else if explicit {
			return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for inconsistent values.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.dir is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis.addr is required for the redis backend")
		}
	case BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		return errors.New(errors.ErrCodeInvalidInput, "mongo.database is required when mongo.uri is set")
	}
	if c.Server.RateLimit < 0 || c.Registry.RateLimit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "rate limits must not be negative")
	}
	if c.Registry.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "registry.timeout must not be negative")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

// DefaultPath returns the default configuration file path, following the
// XDG standard (~/.config/pkgtrend/config.toml). It returns "" if no home
// directory can be determined.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/pkgtrend/).
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", appName)
}
