package route

import (
	"slices"
	"strings"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// InterfloorFunc reports whether the edge from one node to another node on a
// different floor may be used. It is only consulted for cross-floor edges.
type InterfloorFunc func(from, to building.Node) bool

// DefaultConnectorKinds are the connector kinds accepted by [ConnectorPairs]
// when none are given.
var DefaultConnectorKinds = []string{"stairs", "elevator", "lift"}

// Policy names accepted by [PolicyByName].
const (
	PolicyConnectors = "connectors"
	PolicyAny        = "any"
	PolicyNone       = "none"
)

// ConnectorPairs returns a policy that allows crossing only between the two
// ends of the same connector. Connector ids have the form
// <instance>_<kind>_<level>, for example "east_stairs_1" and "east_stairs_2".
// A crossing is valid when both ids share instance and kind and differ in
// level. Kinds are compared case-insensitively.
func ConnectorPairs(kinds ...string) InterfloorFunc {
	if len(kinds) == 0 {
		kinds = DefaultConnectorKinds
	}
	allowed := make([]string, len(kinds))
	for i, k := range kinds {
		allowed[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return func(from, to building.Node) bool {
		a, ok := parseConnector(from.ID)
		if !ok {
			return false
		}
		b, ok := parseConnector(to.ID)
		if !ok {
			return false
		}
		return a.instance == b.instance &&
			a.kind == b.kind &&
			a.level != b.level &&
			slices.Contains(allowed, a.kind)
	}
}

// AllowAllCrossings accepts every cross-floor edge.
func AllowAllCrossings(from, to building.Node) bool { return true }

// DenyAllCrossings rejects every cross-floor edge.
func DenyAllCrossings(from, to building.Node) bool { return false }

// PolicyByName returns the policy for a config or flag value.
// An empty name selects connectors.
func PolicyByName(name string, kinds []string) (InterfloorFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyConnectors:
		return ConnectorPairs(kinds...), nil
	case PolicyAny:
		return AllowAllCrossings, nil
	case PolicyNone:
		return DenyAllCrossings, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown interfloor policy %q (want %s, %s or %s)", name, PolicyConnectors, PolicyAny, PolicyNone)
}

type connector struct {
	instance, kind, level string
}

func parseConnector(id string) (connector, bool) {
	last := strings.LastIndexByte(id, '_')
	if last <= 0 || last == len(id)-1 {
		return connector{}, false
	}
	mid := strings.LastIndexByte(id[:last], '_')
	if mid <= 0 || mid == last-1 {
		return connector{}, false
	}
	return connector{
		instance: id[:mid],
		kind:     strings.ToLower(id[mid+1 : last]),
		level:    id[last+1:],
	}, true
}
