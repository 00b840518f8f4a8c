package server

import (
	"bytes"
	"encoding/json"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/observability"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

func testGraph(t *testing.T) *building.Graph {
	t.Helper()
	g, _ := building.Assemble([]building.NodeSpec{
		{Node: building.Node{ID: "entrance", Name: "Main Entrance", Pos: building.Point{X: 100, Y: 100}, Floor: 1}, Neighbors: []string{"hall"}},
		{Node: building.Node{ID: "hall", Name: "Hall", Pos: building.Point{X: 600, Y: 100}, Floor: 1}, Neighbors: []string{"main_stairs_1"}},
		{Node: building.Node{ID: "main_stairs_1", Pos: building.Point{X: 600, Y: 500}, Floor: 1}, Neighbors: []string{"main_stairs_2"}},
		{Node: building.Node{ID: "main_stairs_2", Pos: building.Point{X: 600, Y: 500}, Floor: 2}, Neighbors: []string{"204"}},
		{Node: building.Node{ID: "204", Name: "Lecture Room 204", Pos: building.Point{X: 900, Y: 500}, Floor: 2}},
		{Node: building.Node{ID: "island", Pos: building.Point{X: 50, Y: 50}, Floor: 3}},
	})
	return g
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *Metrics) {
	t.Helper()
	cfg := config.Default()
	cfg.Start = "entrance"
	cfg.Surface = config.Surface{Width: 120, Height: 90}
	cfg.Style.Duration = config.Duration{Duration: 100 * time.Millisecond}
	if mutate != nil {
		mutate(&cfg)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(cfg, nil, nil, logger)

	m := NewMetrics()
	m.Install()
	t.Cleanup(observability.Reset)

	return New(runner, testGraph(t), logger, WithMetrics(m)), m
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Nodes != 6 || len(body.Floors) != 3 {
		t.Errorf("healthz = %+v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	s.SetGraph(nil)
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz without building = %d, want 503", rec.Code)
	}
}

func TestListNodes(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s, "/api/nodes?floor=2")
	var nodes []nodeResponse
	if err := json.NewDecoder(rec.Body).Decode(&nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || nodes[0].ID != "main_stairs_2" {
		t.Errorf("nodes = %+v", nodes)
	}
	if got := nodes[0].Neighbors; len(got) != 2 || got[0] != "204" {
		t.Errorf("neighbors = %v, want sorted symmetric list", got)
	}

	if rec := get(t, s, "/api/nodes?floor=two"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad floor = %d, want 400", rec.Code)
	}
}

func TestGetRoute(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s, "/api/route?to=204")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var rt pipeline.Route
	if err := json.NewDecoder(rec.Body).Decode(&rt); err != nil {
		t.Fatal(err)
	}
	if rt.From != "entrance" || rt.To != "204" || len(rt.Path) != 5 || rt.Crossings != 1 {
		t.Errorf("route = %+v", rt)
	}
	if rt.Cost != 6200 {
		t.Errorf("cost = %v, want 6200", rt.Cost)
	}

	// Free-text destinations resolve by name.
	rec = get(t, s, "/api/route?to=lecture%20room")
	if err := json.NewDecoder(rec.Body).Decode(&rt); err != nil || rt.To != "204" {
		t.Errorf("name query resolved to %q (%v)", rt.To, err)
	}
}

func TestRouteErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		target string
		status int
		code   errors.Code
	}{
		{"/api/route", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/route?to=observatory", http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"/api/route?from=roof&to=204", http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"/api/route?to=island", http.StatusUnprocessableEntity, errors.ErrCodePathNotFound},
		{"/api/route/floors/3.png?to=204", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/api/route/floors/x.png?to=204", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/route.gif?to=204&fps=500", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != string(tt.code) || body.RequestID == "" {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestFloorPNG(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s, "/api/route/floors/2.png?to=204")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("bounds = %v", b)
	}
}

func TestRouteGIF(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s, "/api/route.gif?to=204&fps=20")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	anim, err := gif.DecodeAll(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) < 4 {
		t.Errorf("frames = %d, want both segments animated", len(anim.Image))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	get(t, s, "/api/route?to=204")
	get(t, s, "/api/route?to=island")

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`wayfinder_http_requests_total{method="GET",route="/api/route",status="200"} 1`,
		`wayfinder_route_searches_total{code="ok"} 1`,
		`wayfinder_route_searches_total{code="PATH_NOT_FOUND"} 1`,
		`wayfinder_building_nodes 6`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestSetGraphSwapsSnapshot(t *testing.T) {
	s, _ := newTestServer(t, nil)
	before := s.Graph()

	g, _ := building.Assemble([]building.NodeSpec{
		{Node: building.Node{ID: "entrance", Floor: 1}, Neighbors: []string{"204"}},
		{Node: building.Node{ID: "204", Pos: building.Point{X: 30, Y: 40}, Floor: 1}},
	})
	s.SetGraph(g)
	if s.Graph() == before {
		t.Fatal("snapshot not replaced")
	}

	rec := get(t, s, "/api/route?to=204")
	var rt pipeline.Route
	if err := json.NewDecoder(rec.Body).Decode(&rt); err != nil {
		t.Fatal(err)
	}
	if rt.Cost != 50 || len(rt.Path) != 2 {
		t.Errorf("route on new snapshot = %+v", rt)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeNodeNotFound, http.StatusNotFound},
		{errors.ErrCodePathNotFound, http.StatusUnprocessableEntity},
		{errors.ErrCodeRenderTargetUnavailable, http.StatusUnprocessableEntity},
		{errors.ErrCodeNetwork, http.StatusServiceUnavailable},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
	if got := statusFor(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("statusFor(plain error) = %d", got)
	}
}
