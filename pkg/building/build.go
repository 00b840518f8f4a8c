package building

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	wferr "github.com/matzehuels/wayfinder/pkg/errors"
)

const codeMalformed = wferr.ErrCodeMalformedInput

// Accepted key spellings, tried in order. Source documents were written by
// hand in Ukrainian, English and transliteration.
var (
	rootKeys        = []string{"будівля", "building"}
	floorListKeys   = []string{"поверхи", "floors", "poverhy", "levels"}
	floorNumberKeys = []string{"номер_поверху", "floor_number", "floor", "number", "level"}
	nodeListKeys    = []string{"вузли", "nodes"}
	idKeys          = []string{"id", "ід"}
	nameKeys        = []string{"назва", "name", "label"}
	coordKeys       = []string{"координати", "coordinates", "coords", "position"}
	neighborKeys    = []string{"сусіди", "neighbors", "neighbours", "links"}
)

// Diagnostic is a non-fatal problem found while building a graph.
type Diagnostic struct {
	Code    wferr.Code
	Message string
}

// Diagnostics is the list of problems reported by [Build] or [Assemble].
type Diagnostics []Diagnostic

func (d Diagnostics) add(code wferr.Code, format string, args ...any) Diagnostics {
	return append(d, Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Malformed reports whether any diagnostic carries MALFORMED_INPUT.
func (d Diagnostics) Malformed() bool {
	for _, x := range d {
		if x.Code == codeMalformed {
			return true
		}
	}
	return false
}

// Err folds the diagnostics into a single coded error, or nil if there are none.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	msgs := make([]string, len(d))
	for i, x := range d {
		msgs[i] = x.Message
	}
	return wferr.New(d[0].Code, "%s", strings.Join(msgs, "; "))
}

// Build parses a decoded building document (as produced by encoding/json or
// yaml.v3 decoding into any) into a Graph.
//
// The document may wrap its content in a "building" object or be the floor
// container itself; a bare list is treated as the floor list. When no floor
// list can be found the result is an empty Graph and a MALFORMED_INPUT
// diagnostic.
func Build(doc any) (*Graph, Diagnostics) {
	specs, diags := parseDocument(doc)
	g, more := Assemble(specs)
	return g, append(diags, more...)
}

func parseDocument(doc any) ([]NodeSpec, Diagnostics) {
	var diags Diagnostics
	if doc == nil {
		return nil, diags.add(codeMalformed, "building document is empty")
	}

	floors, ok := doc.([]any)
	if !ok {
		obj, isObj := asMap(doc)
		if !isObj {
			return nil, diags.add(codeMalformed, "building document must be an object or a list of floors, got %T", doc)
		}
		if root, found := lookup(obj, rootKeys); found {
			if m, isMap := asMap(root); isMap {
				obj = m
			}
		}
		raw, found := lookup(obj, floorListKeys)
		if !found {
			return nil, diags.add(codeMalformed, "no floor list found (looked for %s)", strings.Join(floorListKeys, ", "))
		}
		if floors, ok = raw.([]any); !ok {
			return nil, diags.add(codeMalformed, "floor list must be a list, got %T", raw)
		}
	}
	if len(floors) == 0 {
		return nil, diags.add(codeMalformed, "floor list is empty")
	}

	var specs []NodeSpec
	for i, rawFloor := range floors {
		floorObj, ok := asMap(rawFloor)
		if !ok {
			diags = diags.add(codeMalformed, "floor entry %d is not an object", i)
			continue
		}

		number := i + 1
		if v, found := lookup(floorObj, floorNumberKeys); found {
			if n, ok := toInt(v); ok {
				number = n
			} else {
				diags = diags.add(codeMalformed, "floor entry %d has non-integer index %v; using %d", i, v, number)
			}
		} else {
			diags = diags.add(codeMalformed, "floor entry %d has no index; using %d", i, number)
		}

		rawNodes, found := lookup(floorObj, nodeListKeys)
		if !found {
			diags = diags.add(codeMalformed, "floor %d has no node list", number)
			continue
		}
		nodes, ok := rawNodes.([]any)
		if !ok {
			diags = diags.add(codeMalformed, "floor %d node list must be a list, got %T", number, rawNodes)
			continue
		}

		for _, rawNode := range nodes {
			nodeObj, ok := asMap(rawNode)
			if !ok {
				diags = diags.add(codeMalformed, "floor %d contains a node that is not an object", number)
				continue
			}
			specs = append(specs, parseNode(nodeObj, number))
		}
	}
	return specs, diags
}

func parseNode(obj map[string]any, floor int) NodeSpec {
	s := NodeSpec{Node: Node{Floor: floor}}
	if v, ok := lookup(obj, idKeys); ok {
		s.ID = toID(v)
	}
	if v, ok := lookup(obj, nameKeys); ok {
		s.Name = strings.TrimSpace(toID(v))
	}

	if v, ok := lookup(obj, coordKeys); ok {
		s.Pos = toPoint(v)
	} else {
		// Some exports put x/y directly on the node.
		s.Pos = toPoint(obj)
	}

	if v, ok := lookup(obj, neighborKeys); ok {
		if list, isList := v.([]any); isList {
			for _, nb := range list {
				if id := toID(nb); id != "" {
					s.Neighbors = append(s.Neighbors, id)
				}
			}
		}
	}
	return s
}

// lookup returns the value of the first key present in obj.
func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// asMap accepts both string-keyed maps and the interface-keyed maps yaml.v3
// produces for mappings with non-string keys.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// toID renders an id-like scalar in canonical string form.
func toID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return numberID(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// numberID formats integral numbers from their literal digits so ids beyond
// float64 precision stay distinct. "7", "7.0" and "7e0" all give "7".
func numberID(n json.Number) string {
	lit := strings.TrimSpace(n.String())
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	// Exponent forms go through float64; big.Rat would expand 1e999999999.
	if !strings.ContainsAny(lit, "eE") {
		var r big.Rat
		if _, ok := r.SetString(lit); ok && r.IsInt() {
			return r.Num().String()
		}
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return lit
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// toPoint reads {x, y} objects and [x, y] lists; anything unreadable is the origin.
func toPoint(v any) Point {
	var p Point
	if obj, ok := asMap(v); ok {
		if x, ok := toFloat(obj["x"]); ok {
			p.X = x
		}
		if y, ok := toFloat(obj["y"]); ok {
			p.Y = y
		}
		return p
	}
	if list, ok := v.([]any); ok && len(list) >= 2 {
		p.X, _ = toFloat(list[0])
		p.Y, _ = toFloat(list[1])
	}
	return p
}
