package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/pkgtrend/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PKGTREND_"

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) into the process environment. Missing files are ignored and
// variables already set are left alone.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", f)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides cfg with PKGTREND_* variables.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("CACHE_DIR", &cfg.Cache.Dir)
	str("CACHE_PREFIX", &cfg.Cache.Prefix)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("MONGO_URI", &cfg.Mongo.URI)
	str("MONGO_DATABASE", &cfg.Mongo.Database)
	str("SERVER_ADDR", &cfg.Server.Addr)

	ints := []struct {
		name string
		dst  *int
	}{
		{"REDIS_DB", &cfg.Redis.DB},
		{"SERVER_BURST", &cfg.Server.Burst},
		{"REGISTRY_BURST", &cfg.Registry.Burst},
	}
	for _, e := range ints {
		if v, ok := lookup(EnvPrefix + e.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return envError(e.name, v, err)
			}
			*e.dst = n
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"SERVER_RATE_LIMIT", &cfg.Server.RateLimit},
		{"REGISTRY_RATE_LIMIT", &cfg.Registry.RateLimit},
	}
	for _, e := range floats {
		if v, ok := lookup(EnvPrefix + e.name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return envError(e.name, v, err)
			}
			*e.dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "SERVER_TRUST_PROXY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("SERVER_TRUST_PROXY", v, err)
		}
		cfg.Server.TrustProxy = b
	}

	if v, ok := lookup(EnvPrefix + "REGISTRY_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("REGISTRY_TIMEOUT", v, err)
		}
		cfg.Registry.Timeout = Duration{d}
	}
	return nil
}

func envError(name, value string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s%s=%q", EnvPrefix, name, value)
}
