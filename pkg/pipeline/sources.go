package pipeline

import (
	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
	"github.com/matzehuels/pkgtrend/pkg/integrations/crates"
	"github.com/matzehuels/pkgtrend/pkg/integrations/npm"
	"github.com/matzehuels/pkgtrend/pkg/integrations/pypi"
)

// Registry names accepted in Options.Registry.
const (
	RegistryNPM    = "npm"
	RegistryPyPI   = "pypi"
	RegistryCrates = "crates"
)

// Registries lists the supported registries.
func Registries() []string {
	return []string{RegistryNPM, RegistryPyPI, RegistryCrates}
}

// NewSources creates a fetcher per supported registry. Raw registry
// responses are cached in c; opts apply to every client.
func NewSources(c cache.Cache, opts ...integrations.Option) map[string]downloads.Fetcher {
	return map[string]downloads.Fetcher{
		RegistryNPM:    npm.NewClient(c, cache.TTLHTTP, opts...),
		RegistryPyPI:   pypi.NewClient(c, cache.TTLHTTP, opts...),
		RegistryCrates: crates.NewClient(c, cache.TTLHTTP, opts...),
	}
}
