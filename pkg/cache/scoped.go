package cache

// Scoped prefixes every key inner produces. Caches shared between asset
// hosts, such as one Redis behind several `ffs serve` instances, are scoped
// per host so that theme "dark" of one library never answers for another.
func Scoped(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	if prefix == "" {
		return inner
	}
	return scopedKeyer{inner: inner, prefix: prefix}
}

// ScopeFor derives a short, key-safe prefix from an asset location.
func ScopeFor(location string) string {
	if location == "" {
		return ""
	}
	return Hash([]byte(location))[:12] + ":"
}

type scopedKeyer struct {
	inner  Keyer
	prefix string
}

func (k scopedKeyer) ResourceKey(url string) string { return k.prefix + k.inner.ResourceKey(url) }
func (k scopedKeyer) ThemeKey(name string) string   { return k.prefix + k.inner.ThemeKey(name) }
