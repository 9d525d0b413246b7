package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. Useful
// when several projects or users share one cache directory or backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) IRKey(diagramID string, version int) string {
	return k.prefix + k.inner.IRKey(diagramID, version)
}

func (k *ScopedKeyer) SVGKey(irHash string, opts SVGKeyOpts) string {
	return k.prefix + k.inner.SVGKey(irHash, opts)
}

func (k *ScopedKeyer) CodecKey(irHash, format string) string {
	return k.prefix + k.inner.CodecKey(irHash, format)
}

func (k *ScopedKeyer) AnalysisKey(svgHash string) string {
	return k.prefix + k.inner.AnalysisKey(svgHash)
}
