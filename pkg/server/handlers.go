package server

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scalableminds/wknml/pkg/buildinfo"
	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/pipeline"
	"github.com/scalableminds/wknml/pkg/render"
)

var contentTypes = map[string]string{
	pipeline.FormatNML:  "application/xml",
	pipeline.FormatJSON: "application/json",
	render.FormatSVG:    "image/svg+xml",
	render.FormatPNG:    "image/png",
	render.FormatDOT:    "text/vnd.graphviz",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	n, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nml.Stats(n))
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	opts := pipeline.Options{OutputFormat: r.URL.Query().Get("to")}
	s.execute(w, r, body, opts)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	opts, err := transformOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	s.execute(w, r, body, opts)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	opts := render.Options{Plane: render.Plane(q.Get("plane")), Labels: queryBool(q, "labels")}
	for _, raw := range q["tree"] {
		id, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, wkerrors.New(wkerrors.ErrCodeInvalidInput, "tree must be an integer, got %q", raw))
			return
		}
		opts.Trees = append(opts.Trees, id)
	}

	n, ok := s.load(w, r)
	if !ok {
		return
	}
	out, err := render.Render(r.Context(), n, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(out)
}

func (s *Server) handleAnnotationCreate(w http.ResponseWriter, r *http.Request) {
	n, ok := s.load(w, r)
	if !ok {
		return
	}
	a, err := s.store.Put(r.Context(), r.URL.Query().Get("name"), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/annotations/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleAnnotationList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			s.writeError(w, r, wkerrors.New(wkerrors.ErrCodeInvalidInput, "limit must be a non-negative integer, got %q", raw))
			return
		}
		limit = v
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAnnotationGet(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatNML
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, _, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := pipeline.Encode(n, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(out)
}

func (s *Server) handleAnnotationDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, body []byte, opts pipeline.Options) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", contentTypes[opts.OutputFormat])
	h.Set("X-Cache-Parse", hitOrMiss(res.CacheInfo.ParseHit))
	if opts.HasTransforms() {
		h.Set("X-Cache-Transform", hitOrMiss(res.CacheInfo.TransformHit))
		h.Set("X-Added-Nodes", strconv.Itoa(res.Changes.AddedNodes))
		h.Set("X-Removed-Nodes", strconv.Itoa(res.Changes.RemovedNodes))
	}
	_, _ = w.Write(res.Output)
}

// load reads and parses the body. On failure the error response has been
// written and ok is false.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (nml.NML, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return nml.NML{}, false
	}
	n, err := s.runner.Load(r.Context(), body, "")
	if err != nil {
		s.writeError(w, r, err)
		return nml.NML{}, false
	}
	return n, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return body, true
}

// transformOptions reads transform options from the query string:
//
//	split, merge, reglobalize       flags ("1", "true" or empty value)
//	max_edge_length                 float
//	simplify_length, simplify_angle float, angle in radians
//	scale                           "x,y,z"
//	to                              nml or json
func transformOptions(q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		OutputFormat: q.Get("to"),
		Split:        queryBool(q, "split"),
		Merge:        queryBool(q, "merge"),
		Reglobalize:  queryBool(q, "reglobalize"),
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"max_edge_length", &opts.MaxEdgeLength},
		{"simplify_length", &opts.SimplifyLength},
		{"simplify_angle", &opts.SimplifyAngle},
	}
	for _, f := range floats {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, wkerrors.Wrap(wkerrors.ErrCodeInvalidInput, err, "%s must be a number, got %q", f.name, raw)
		}
		*f.dst = v
	}
	if raw := q.Get("scale"); raw != "" {
		scale, err := wkerrors.ParseTriple("scale", raw)
		if err != nil {
			return opts, err
		}
		opts.Scale = scale
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return opts, wkerrors.Wrap(wkerrors.ErrCodeInvalidInput, err, "seed must be an unsigned integer, got %q", raw)
		}
		opts.Seed = seed
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func queryBool(q url.Values, name string) bool {
	vals, ok := q[name]
	if !ok {
		return false
	}
	switch strings.ToLower(vals[0]) {
	case "", "1", "true", "yes":
		return true
	}
	return false
}

func hitOrMiss(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
