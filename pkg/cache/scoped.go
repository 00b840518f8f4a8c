package cache

// ScopedKeyer wraps a Keyer with a prefix so that several buildings or
// deployments can share one backend without key collisions.
//
//	mainKeyer := NewScopedKeyer(NewDefaultKeyer(), "campus-main:")
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

// RouteKey generates a prefixed route key.
func (k *ScopedKeyer) RouteKey(buildingHash, from, to string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(buildingHash, from, to, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(routeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(routeHash, opts)
}

// BuildingKey generates a prefixed building key.
func (k *ScopedKeyer) BuildingKey(name string) string {
	return k.prefix + k.inner.BuildingKey(name)
}
