package building

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	wferr "github.com/matzehuels/wayfinder/pkg/errors"
)

const sampleJSON = `{
  "building": {
    "floors": [
      {"floor": 1, "nodes": [
        {"id": "entrance", "name": "Main entrance", "coordinates": {"x": 100, "y": 800}, "neighbors": ["hall"]},
        {"id": "hall", "coordinates": {"x": 400, "y": 800}, "neighbors": ["main_stairs_1"]},
        {"id": "main_stairs_1", "coordinates": {"x": 700, "y": 800}, "neighbors": ["main_stairs_2"]}
      ]},
      {"floor": 2, "nodes": [
        {"id": "main_stairs_2", "coordinates": {"x": 700, "y": 800}, "neighbors": ["201"]},
        {"id": "201", "name": "Lab 201", "coordinates": {"x": 900, "y": 600}}
      ]}
    ]
  }
}`

const sampleYAML = `
будівля:
  поверхи:
    - номер_поверху: 1
      вузли:
        - id: entrance
          назва: Main entrance
          координати: {x: 100, y: 800}
          сусіди: [hall]
        - id: hall
          координати: {x: 400, y: 800}
          сусіди: [main_stairs_1]
        - id: main_stairs_1
          координати: {x: 700, y: 800}
          сусіди: [main_stairs_2]
    - номер_поверху: 2
      вузли:
        - id: main_stairs_2
          координати: {x: 700, y: 800}
          сусіди: [201]
        - id: 201
          назва: Lab 201
          координати: [900, 600]
`

func checkSample(t *testing.T, g *Graph) {
	t.Helper()
	if g.NodeCount() != 5 {
		t.Fatalf("NodeCount = %d, want 5", g.NodeCount())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	lab, ok := g.Node("201")
	if !ok {
		t.Fatal("node 201 missing")
	}
	if lab.Name != "Lab 201" || lab.Floor != 2 || lab.Pos != (Point{X: 900, Y: 600}) {
		t.Errorf("node 201 = %+v", lab)
	}
	if !g.HasEdge("201", "main_stairs_2") {
		t.Error("reverse link 201 -> main_stairs_2 missing")
	}
}

func TestReadJSON(t *testing.T) {
	g, diags, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	checkSample(t, g)
}

func TestReadJSONLargeIntegerIDs(t *testing.T) {
	doc := `{"floors": [{"floor": 1, "nodes": [
	  {"id": 9007199254740993, "coordinates": {"x": 0, "y": 0}, "neighbors": [7.0]},
	  {"id": 9007199254740992, "coordinates": {"x": 10, "y": 0}},
	  {"id": "7", "coordinates": {"x": 20, "y": 0}}
	]}]}`
	g, _, err := ReadJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3; ids = %v", g.NodeCount(), g.IDs())
	}
	for _, id := range []string{"9007199254740993", "9007199254740992", "7"} {
		if !g.Has(id) {
			t.Errorf("missing node %q; ids = %v", id, g.IDs())
		}
	}
	if !g.HasEdge("9007199254740993", "7") {
		t.Error("neighbor 7.0 should link to node \"7\"")
	}
}

func TestReadYAML(t *testing.T) {
	g, diags, err := ReadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	checkSample(t, g)
}

func TestReadSyntaxError(t *testing.T) {
	tests := []struct {
		name string
		read func() error
	}{
		{"JSON", func() error { _, _, err := ReadJSON(strings.NewReader(`{"floors": [`)); return err }},
		{"YAML", func() error { _, _, err := ReadYAML(strings.NewReader("floors: [\n  - a: b\n  c")); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if err == nil {
				t.Fatal("expected error")
			}
			if !wferr.Is(err, wferr.ErrCodeMalformedInput) {
				t.Errorf("error code = %s, want MALFORMED_INPUT", wferr.GetCode(err))
			}
		})
	}
}

func TestReadYAMLEmpty(t *testing.T) {
	g, diags, err := ReadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if g.NodeCount() != 0 || !diags.Malformed() {
		t.Errorf("empty YAML: nodes=%d diags=%v", g.NodeCount(), diags)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	g, _, err := ReadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	var first bytes.Buffer
	if err := WriteJSON(&first, g); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	back, diags, err := ReadJSON(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	checkSample(t, back)

	second, err := MarshalJSON(back)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second) {
		t.Errorf("encoding not stable:\n%s\n---\n%s", first.String(), second)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "b.json")
	yamlPath := filepath.Join(dir, "b.yml")
	if err := os.WriteFile(jsonPath, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{jsonPath, yamlPath} {
		g, _, err := Load(p)
		if err != nil {
			t.Fatalf("Load(%s): %v", p, err)
		}
		checkSample(t, g)
	}

	_, _, err := Load(filepath.Join(dir, "missing.json"))
	if !wferr.Is(err, wferr.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v, want FILE_NOT_FOUND", err)
	}
}
