package building

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	wferr "github.com/matzehuels/wayfinder/pkg/errors"
)

type document struct {
	Building docBuilding `json:"building" yaml:"building"`
}

type docBuilding struct {
	Floors []docFloor `json:"floors" yaml:"floors"`
}

type docFloor struct {
	Floor int       `json:"floor" yaml:"floor"`
	Nodes []docNode `json:"nodes" yaml:"nodes"`
}

type docNode struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Coordinates Point    `json:"coordinates" yaml:"coordinates"`
	Neighbors   []string `json:"neighbors" yaml:"neighbors"`
}

// ReadJSON decodes a JSON building document from r and builds a Graph.
//
// A syntactically invalid document is returned as a MALFORMED_INPUT error.
// Structural gaps (missing floors, missing neighbor lists) are reported as
// diagnostics alongside a possibly empty Graph; see [Build].
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Graph, Diagnostics, error) {
	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, wferr.Wrap(wferr.ErrCodeMalformedInput, err, "decode JSON")
	}
	g, diags := Build(doc)
	return g, diags, nil
}

// ReadYAML decodes a YAML building document from r and builds a Graph.
// Error and diagnostic behavior matches [ReadJSON].
func ReadYAML(r io.Reader) (*Graph, Diagnostics, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			g, diags := Build(nil)
			return g, diags, nil
		}
		return nil, nil, wferr.Wrap(wferr.ErrCodeMalformedInput, err, "decode YAML")
	}
	g, diags := Build(doc)
	return g, diags, nil
}

// Load reads a building file, choosing the decoder by extension
// (.yaml and .yml use YAML, everything else JSON).
func Load(path string) (*Graph, Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, wferr.Wrap(wferr.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return ReadJSON(f)
	}
}

// WriteJSON encodes g as a canonical JSON building document and writes it to w.
// Floors are ascending, nodes keep load order and neighbor lists are sorted,
// so equal graphs always produce equal bytes. The output can be read back
// with [ReadJSON].
func WriteJSON(w io.Writer, g *Graph) error {
	out := document{}
	for _, f := range g.Floors() {
		floor := docFloor{Floor: f, Nodes: []docNode{}}
		for _, n := range g.NodesOnFloor(f) {
			nbs := slices.Clone(g.Neighbors(n.ID))
			slices.Sort(nbs)
			if nbs == nil {
				nbs = []string{}
			}
			floor.Nodes = append(floor.Nodes, docNode{
				ID:          n.ID,
				Name:        n.Name,
				Coordinates: n.Pos,
				Neighbors:   nbs,
			})
		}
		out.Building.Floors = append(out.Building.Floors, floor)
	}
	if out.Building.Floors == nil {
		out.Building.Floors = []docFloor{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the canonical encoding produced by [WriteJSON].
func MarshalJSON(g *Graph) ([]byte, error) {
	var buf strings.Builder
	if err := WriteJSON(&buf, g); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
