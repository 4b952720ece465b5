package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP server uses it
// to keep API expansions apart from CLI runs sharing the same Redis or
// MongoDB instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, falling back to the default scheme when inner
// is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ExpansionKey returns the prefixed expansion key.
func (k *ScopedKeyer) ExpansionKey(textHash string, opts ExpansionKeyOpts) string {
	return k.prefix + k.inner.ExpansionKey(textHash, opts)
}
