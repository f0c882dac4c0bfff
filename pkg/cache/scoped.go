package cache

// ScopedKeyer prefixes every key of an inner Keyer. The API server uses it
// to keep its entries apart from CLI entries in a shared Redis.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the DefaultKeyer if inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ParseKey(contentHash, format string) string {
	return k.prefix + k.inner.ParseKey(contentHash, format)
}

func (k *ScopedKeyer) TransformKey(contentHash string, opts TransformKeyOpts) string {
	return k.prefix + k.inner.TransformKey(contentHash, opts)
}
