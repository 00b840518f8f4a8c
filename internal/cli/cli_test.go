package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

const campus = `{
  "building": {
    "floors": [
      {"floor": 1, "nodes": [
        {"id": "entrance", "name": "Main Entrance", "coordinates": {"x": 100, "y": 100}, "neighbors": ["main_stairs_1"]},
        {"id": "main_stairs_1", "coordinates": {"x": 600, "y": 100}, "neighbors": ["main_stairs_2"]}
      ]},
      {"floor": 2, "nodes": [
        {"id": "main_stairs_2", "coordinates": {"x": 600, "y": 100}, "neighbors": ["204"]},
        {"id": "204", "name": "Lecture Room 204", "coordinates": {"x": 600, "y": 400}}
      ]}
    ]
  }
}`

// writeProject writes a building and a config next to it and returns the
// config path.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "campus.json"), []byte(campus), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := `building = "campus.json"
start = "entrance"

[surface]
width = 120
height = 90

[cache]
backend = "none"
`
	path := filepath.Join(dir, "wayfinder.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"route", "find", "pick", "graph", "serve", "store", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRouteCommand(t *testing.T) {
	cfg := writeProject(t)
	out := t.TempDir()

	if err := execute(t, "-c", cfg, "route", "204", "-f", "json", "-o", out); err != nil {
		t.Fatalf("route: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, pipeline.ArtifactJSON))
	if err != nil {
		t.Fatal(err)
	}
	var rt pipeline.Route
	if err := json.Unmarshal(data, &rt); err != nil {
		t.Fatal(err)
	}
	if rt.From != "entrance" || rt.To != "204" || rt.Crossings != 1 || len(rt.Segments) != 2 {
		t.Errorf("route.json = %+v", rt)
	}
}

func TestRouteCommandErrors(t *testing.T) {
	cfg := writeProject(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad format", []string{"route", "204", "-f", "bmp"}, errors.ErrCodeInvalidFormat},
		{"unknown destination", []string{"route", "observatory", "-f", "json"}, errors.ErrCodeNodeNotFound},
		{"unknown origin", []string{"route", "roof", "204", "-f", "json"}, errors.ErrCodeNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-c", cfg}, tt.args...)
			args = append(args, "-o", t.TempDir())
			if err := execute(t, args...); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildingFlagOverridesConfig(t *testing.T) {
	cfg := writeProject(t)
	other := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(other, []byte(`{"building": {"floors": []}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	err := execute(t, "-c", cfg, "-b", other, "route", "204", "-f", "json", "-o", t.TempDir())
	if !errors.Is(err, errors.ErrCodeMalformedInput) {
		t.Errorf("err = %v, want MALFORMED_INPUT for an empty building", err)
	}
}

func TestGraphCommand(t *testing.T) {
	cfg := writeProject(t)
	dir := t.TempDir()

	dot := filepath.Join(dir, "graph.dot")
	if err := execute(t, "-c", cfg, "graph", "-f", "dot", "-o", dot, "--to", "204"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "graph G {") {
		t.Errorf("dot output = %q", data)
	}

	doc := filepath.Join(dir, "campus.json")
	if err := execute(t, "-c", cfg, "graph", "-f", "json", "-o", doc); err != nil {
		t.Fatalf("graph json: %v", err)
	}
	g, _, err := building.Load(doc)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 3 {
		t.Errorf("canonical document has %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}

	if err := execute(t, "-c", cfg, "graph", "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("graph -f gif = %v, want INVALID_FORMAT", err)
	}
}

func TestFindCommand(t *testing.T) {
	cfg := writeProject(t)
	if err := execute(t, "-c", cfg, "find", "lecture"); err != nil {
		t.Errorf("find lecture: %v", err)
	}
	if err := execute(t, "-c", cfg, "find", "observatory"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("find observatory = %v, want NODE_NOT_FOUND", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{pipeline.FormatPNG}},
		{"gif", []string{"gif"}},
		{"png, gif,,json", []string{"png", "gif", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := writeArtifacts(map[string][]byte{
		"route.gif":   []byte("gif"),
		"floor-1.png": []byte("png"),
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "floor-1.png" {
		t.Errorf("paths = %v, want sorted by name", paths)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "route.gif")); string(data) != "gif" {
		t.Errorf("route.gif = %q", data)
	}
}

func TestNodeListModel(t *testing.T) {
	nodes := []building.Node{{ID: "a", Name: "A"}, {ID: "b"}, {ID: "c", Name: "C"}}
	m := NewNodeListModel(nodes)
	m.Height = 2

	press := func(m NodeListModel, key string) NodeListModel {
		var msg tea.KeyMsg
		switch key {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		next, _ := m.Update(msg)
		return next.(NodeListModel)
	}

	m = press(m, "down")
	m = press(m, "j")
	m = press(m, "j") // clamps at the end
	if m.Cursor != 2 || m.Offset != 1 {
		t.Fatalf("cursor = %d offset = %d, want 2 and 1", m.Cursor, m.Offset)
	}
	m = press(m, "up")
	m = press(m, "k")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Fatalf("cursor = %d offset = %d, want 0 and 0", m.Cursor, m.Offset)
	}

	if view := m.View(); !strings.Contains(view, "Select Destination") || !strings.Contains(view, "[1/3]") {
		t.Errorf("view = %q", view)
	}

	m = press(m, "down")
	m = press(m, "enter")
	if m.Selected == nil || m.Selected.ID != "b" {
		t.Errorf("selected = %+v, want b", m.Selected)
	}

	quit := press(NewNodeListModel(nodes), "q")
	if quit.Selected != nil {
		t.Error("quitting should not select")
	}
}

func TestWithNames(t *testing.T) {
	nodes := []building.Node{{ID: "a", Name: "A"}, {ID: "b"}, {ID: "c", Name: "C"}}
	got := withNames(nodes)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("withNames = %+v", got)
	}
	if len(nodes) != 3 || nodes[1].ID != "b" {
		t.Error("withNames modified its input")
	}
}
