package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// LoadBuilding reads the building file named in the configuration.
// Diagnostics are logged. A document that yields no nodes at all fails
// with its first diagnostic.
func (r *Runner) LoadBuilding(ctx context.Context) (*building.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := r.Config.Building
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no building file configured")
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}

	g, diags, err := building.Load(path)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		r.Logger.Warn("building", "code", d.Code, "msg", d.Message)
	}
	if g.NodeCount() == 0 {
		if err := diags.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, errors.New(errors.ErrCodeMalformedInput, "%s: building has no nodes", path)
	}
	return g, nil
}

// BuildingHash is the content hash of g's canonical JSON encoding. Equal
// graphs hash equally regardless of how their source documents were spelled.
func BuildingHash(g *building.Graph) string {
	data, err := building.MarshalJSON(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
