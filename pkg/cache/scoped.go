package cache

// ScopedKeyer prefixes every key of an inner Keyer. The API uses it to keep
// entries of different deployments apart in a shared Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) SeriesKey(registry, pkg string, opts SeriesKeyOpts) string {
	return k.prefix + k.inner.SeriesKey(registry, pkg, opts)
}

func (k *ScopedKeyer) AnalysisKey(seriesHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(seriesHash, opts)
}
