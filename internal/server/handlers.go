package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

type healthResponse struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
	Floors []int  `json:"floors"`
}

type nodeResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Floor     int      `json:"floor"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Neighbors []string `json:"neighbors"`
}

// GET /healthz
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	g, err := s.snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Nodes: g.NodeCount(), Floors: g.Floors()})
}

// GET /api/nodes?floor=N
func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	g, err := s.snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}
	nodes := g.Nodes()
	if v := r.URL.Query().Get("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "floor must be an integer, got %q", v))
			return
		}
		nodes = g.NodesOnFloor(floor)
	}

	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		nbs := slices.Clone(g.Neighbors(n.ID))
		slices.Sort(nbs)
		if nbs == nil {
			nbs = []string{}
		}
		out = append(out, nodeResponse{ID: n.ID, Name: n.Name, Floor: n.Floor, X: n.Pos.X, Y: n.Pos.Y, Neighbors: nbs})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/route?from=&to=
func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	_, rt, hit, err := s.route(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, rt)
}

// GET /api/route/floors/{floor}.png?from=&to=
func (s *Server) getFloorPNG(w http.ResponseWriter, r *http.Request) {
	v := chi.URLParam(r, "floor")
	floor, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "floor must be an integer, got %q", v))
		return
	}

	g, rt, _, err := s.route(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !slices.Contains(rt.Floors, floor) {
		writeError(w, r, errors.New(errors.ErrCodeNotFound, "route does not visit floor %d", floor))
		return
	}

	s.writeArtifact(w, r, g, rt, pipeline.Options{Formats: []string{pipeline.FormatPNG}, ShowNodes: boolParam(r, "nodes")},
		pipeline.FloorArtifact(floor), "image/png")
}

// GET /api/route.gif?from=&to=&fps=
func (s *Server) getRouteGIF(w http.ResponseWriter, r *http.Request) {
	fps := 0
	if v := r.URL.Query().Get("fps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "fps must be between 1 and 60, got %q", v))
			return
		}
		fps = n
	}

	g, rt, _, err := s.route(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, g, rt, pipeline.Options{Formats: []string{pipeline.FormatGIF}, FPS: fps, ShowNodes: boolParam(r, "nodes")},
		pipeline.ArtifactGIF, "image/gif")
}

func (s *Server) snapshot() (*building.Graph, error) {
	if g := s.Graph(); g != nil {
		return g, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "no building loaded")
}

// route resolves the from/to query parameters on the current snapshot and
// computes the route.
func (s *Server) route(r *http.Request) (*building.Graph, *pipeline.Route, bool, error) {
	g, err := s.snapshot()
	if err != nil {
		return nil, nil, false, err
	}
	q := r.URL.Query()

	from := strings.TrimSpace(q.Get("from"))
	if from == "" {
		from = s.runner.Config.Start
	}
	if err := errors.ValidateNodeID(from); err != nil {
		return nil, nil, false, err
	}
	to := q.Get("to")
	if err := errors.ValidateQuery(to); err != nil {
		return nil, nil, false, err
	}

	goal, err := s.runner.Resolve(r.Context(), g, from, to)
	if err != nil {
		return nil, nil, false, err
	}
	rt, hit, err := s.runner.RouteWithCacheInfo(r.Context(), g, from, goal, boolParam(r, "refresh"))
	if err != nil {
		return nil, nil, false, err
	}
	return g, rt, hit, nil
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, g *building.Graph, rt *pipeline.Route, opts pipeline.Options, name, contentType string) {
	opts.Refresh = boolParam(r, "refresh")
	opts.Logger = s.logger
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), g, rt, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ok := artifacts[name]
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeInternal, "artifact %s was not produced", name))
		return
	}
	setCacheHeader(w, hit)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}
