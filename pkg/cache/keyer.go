package cache

import "strings"

// Key types reported to the cache hooks.
const (
	KeyTypeRoute    = "route"
	KeyTypeArtifact = "artifact"
	KeyTypeBuilding = "building"
)

// Keyer generates cache keys.
type Keyer interface {
	// RouteKey identifies a search result.
	RouteKey(buildingHash, from, to string, opts RouteKeyOpts) string
	// ArtifactKey identifies a rendered output of a route.
	ArtifactKey(routeHash string, opts ArtifactKeyOpts) string
	// BuildingKey identifies a stored raw building document.
	BuildingKey(name string) string
}

// RouteKeyOpts are the routing settings that change a search result.
type RouteKeyOpts struct {
	FloorPenalty float64  `json:"floor_penalty"`
	Interfloor   string   `json:"interfloor"`
	Kinds        []string `json:"kinds,omitempty"`
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"` // png, gif, json
	Floor     int    `json:"floor"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	StyleHash string `json:"style_hash"`
}

// DefaultKeyer builds keys of the form type:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey implements [Keyer].
func (DefaultKeyer) RouteKey(buildingHash, from, to string, opts RouteKeyOpts) string {
	return hashKey(KeyTypeRoute, buildingHash, strings.TrimSpace(from), strings.TrimSpace(to), opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(routeHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, routeHash, opts)
}

// BuildingKey implements [Keyer].
func (DefaultKeyer) BuildingKey(name string) string {
	return KeyTypeBuilding + ":" + name
}
