package nml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Parse reads one annotation document from r.
//
// The document is consumed as a single forward stream of start/end tag
// events; no DOM is built. Memory use is bounded by the depth of open tags
// plus the size of the parsed annotation itself.
//
// Optional attributes that are absent stay nil in the result. The legacy
// attribute spellings "comment" (tree name) and "colorr", "colorg",
// "colorb", "colora" (tree color) are accepted. A groupId that is negative
// or not an integer is normalized to nil. NaN and infinite floats are
// rejected with an InvalidAttributeError.
//
// Parse returns one of the typed errors of this package on bad input and
// never a partially filled NML. It does not close r.
func Parse(r io.Reader) (NML, error) {
	src := &trackingReader{r: r}
	p := newParser()
	dec := xml.NewDecoder(src)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if src.err != nil && errors.Is(err, src.err) {
				return NML{}, fmt.Errorf("read: %w", err)
			}
			return NML{}, &MalformedInputError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t); err != nil {
				return NML{}, err
			}
		case xml.EndElement:
			if err := p.end(t.Name.Local); err != nil {
				return NML{}, err
			}
		}
	}

	return p.finish()
}

// ReadFile parses the annotation file at path. The file is closed on every
// return path.
func ReadFile(path string) (NML, error) {
	f, err := os.Open(path)
	if err != nil {
		return NML{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := Parse(f)
	if err != nil {
		return NML{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

// trackingReader remembers the last non-EOF error of the underlying reader so
// I/O failures can be told apart from lexer errors.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

// groupBuilder accumulates the children of a group whose end tag has not been
// seen yet. A group value is only created once all of its children are
// complete, so the forest can never contain shared or cyclic groups.
type groupBuilder struct {
	id       int
	name     string
	children []Group
}

type parser struct {
	open    []string
	started bool

	params     map[string]attrs
	parameters Parameters
	haveParams bool

	tree         *Tree
	trees        []Tree
	branchpoints []Branchpoint
	comments     []Comment
	groups       []*groupBuilder
	volume       *Volume
}

func newParser() *parser {
	return &parser{
		groups: []*groupBuilder{{id: -1}},
	}
}

func (p *parser) parent() string {
	if len(p.open) == 0 {
		return ""
	}
	return p.open[len(p.open)-1]
}

func (p *parser) start(se xml.StartElement) error {
	tag := se.Name.Local
	a := newAttrs(se.Attr)
	p.started = true

	// Children of <parameters> are kept until </parameters> and parsed in one go.
	if p.parent() == "parameters" {
		if p.params == nil {
			p.params = make(map[string]attrs)
		}
		if _, seen := p.params[tag]; !seen {
			p.params[tag] = a
		}
	}
	p.open = append(p.open, tag)

	switch tag {
	case "thing":
		if p.tree != nil {
			return &StructuralError{Tag: tag, Reason: "nested tree"}
		}
		t, err := parseTree(a)
		if err != nil {
			return err
		}
		p.tree = &t
	case "node":
		if p.tree == nil {
			return &StructuralError{Tag: tag, Reason: "node outside tree"}
		}
		nd, err := parseNode(a)
		if err != nil {
			return err
		}
		p.tree.Nodes = append(p.tree.Nodes, nd)
	case "edge":
		if p.tree == nil {
			return &StructuralError{Tag: tag, Reason: "edge outside tree"}
		}
		r := a.reader(tag)
		e := Edge{Source: r.int("source"), Target: r.int("target")}
		if r.err != nil {
			return r.err
		}
		p.tree.Edges = append(p.tree.Edges, e)
	case "branchpoint":
		r := a.reader(tag)
		b := Branchpoint{ID: r.int("id"), Time: r.optInt64("time")}
		if r.err != nil {
			return r.err
		}
		p.branchpoints = append(p.branchpoints, b)
	case "comment":
		r := a.reader(tag)
		c := Comment{Node: r.int("node"), Content: r.optString("content")}
		if r.err != nil {
			return r.err
		}
		p.comments = append(p.comments, c)
	case "group":
		r := a.reader(tag)
		g := &groupBuilder{id: r.int("id"), name: r.str("name")}
		if r.err != nil {
			return r.err
		}
		p.groups = append(p.groups, g)
	case "volume":
		r := a.reader(tag)
		v := Volume{ID: r.int("id"), Location: r.str("location"), FallbackLayer: r.optString("fallbackLayer")}
		if r.err != nil {
			return r.err
		}
		p.volume = &v
	}
	return nil
}

func (p *parser) end(tag string) error {
	p.open = p.open[:len(p.open)-1]

	switch tag {
	case "parameters":
		params, err := parseParameters(p.params)
		if err != nil {
			return err
		}
		p.parameters = params
		p.haveParams = true
		p.params = nil
	case "thing":
		if p.tree != nil {
			p.trees = append(p.trees, *p.tree)
			p.tree = nil
		}
	case "group":
		if len(p.groups) > 1 {
			g := p.groups[len(p.groups)-1]
			p.groups = p.groups[:len(p.groups)-1]
			parent := p.groups[len(p.groups)-1]
			parent.children = append(parent.children, Group{ID: g.id, Name: g.name, Children: g.children})
		}
	}
	return nil
}

func (p *parser) finish() (NML, error) {
	if !p.started {
		return NML{}, &MalformedInputError{Err: io.ErrUnexpectedEOF}
	}
	if !p.haveParams {
		return NML{}, &StructuralError{Tag: "parameters", Reason: "document has no parameters"}
	}
	return NML{
		Parameters:   p.parameters,
		Trees:        p.trees,
		Branchpoints: p.branchpoints,
		Comments:     p.comments,
		Groups:       p.groups[0].children,
		Volume:       p.volume,
	}, nil
}

func parseParameters(children map[string]attrs) (Parameters, error) {
	var params Parameters

	exp, ok := children["experiment"]
	if !ok {
		return params, &MissingAttributeError{Tag: "experiment", Attr: "name"}
	}
	r := exp.reader("experiment")
	params.Name = r.required("name")
	if r.err != nil {
		return params, r.err
	}

	scale, ok := children["scale"]
	if !ok {
		return params, &MissingAttributeError{Tag: "scale", Attr: "x"}
	}
	r = scale.reader("scale")
	params.Scale = r.vec3("x", "y", "z")
	if r.err != nil {
		return params, r.err
	}

	if a, ok := children["offset"]; ok {
		r := a.reader("offset")
		v := r.vec3("x", "y", "z")
		if r.err != nil {
			return params, r.err
		}
		params.Offset = &v
	}
	if a, ok := children["time"]; ok {
		r := a.reader("time")
		v := r.int64("ms")
		if r.err != nil {
			return params, r.err
		}
		params.Time = &v
	}
	if a, ok := children["editPosition"]; ok {
		r := a.reader("editPosition")
		v := r.vec3("x", "y", "z")
		if r.err != nil {
			return params, r.err
		}
		params.EditPosition = &v
	}
	if a, ok := children["editRotation"]; ok {
		r := a.reader("editRotation")
		v := r.vec3("xRot", "yRot", "zRot")
		if r.err != nil {
			return params, r.err
		}
		params.EditRotation = &v
	}
	if a, ok := children["zoomLevel"]; ok {
		r := a.reader("zoomLevel")
		v := r.float("zoom")
		if r.err != nil {
			return params, r.err
		}
		params.ZoomLevel = &v
	}

	var err error
	if params.TaskBoundingBox, err = parseBoundingBox(children, "taskBoundingBox"); err != nil {
		return params, err
	}
	if params.UserBoundingBox, err = parseBoundingBox(children, "userBoundingBox"); err != nil {
		return params, err
	}
	return params, nil
}

func parseBoundingBox(children map[string]attrs, tag string) (*BoundingBox, error) {
	a, ok := children[tag]
	if !ok {
		return nil, nil
	}
	r := a.reader(tag)
	box := BoundingBox{
		TopLeftX: r.int("topLeftX"),
		TopLeftY: r.int("topLeftY"),
		TopLeftZ: r.int("topLeftZ"),
		Width:    r.int("width"),
		Height:   r.int("height"),
		Depth:    r.int("depth"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return &box, nil
}

func parseTree(a attrs) (Tree, error) {
	r := a.reader("thing")
	t := Tree{ID: r.int("id"), Color: DefaultColor}

	switch {
	case a.has("name"):
		t.Name = a["name"]
	case a.has("comment"):
		t.Name = a["comment"]
	}

	switch {
	case a.has("color.r"):
		t.Color = Color{r.float("color.r"), r.float("color.g"), r.float("color.b"), r.float("color.a")}
	case a.has("colorr"):
		t.Color = Color{r.float("colorr"), r.float("colorg"), r.float("colorb"), r.float("colora")}
	}

	if s, ok := a["groupId"]; ok {
		if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && id >= 0 {
			t.GroupID = &id
		}
	}

	if r.err != nil {
		return Tree{}, r.err
	}
	return t, nil
}

func parseNode(a attrs) (Node, error) {
	r := a.reader("node")
	nd := Node{
		ID:            r.int("id"),
		Position:      r.vec3("x", "y", "z"),
		Radius:        r.optFloat("radius"),
		InVp:          r.optInt("inVp"),
		InMag:         r.optInt("inMag"),
		BitDepth:      r.optInt("bitDepth"),
		Interpolation: r.optBool("interpolation"),
		Time:          r.optInt64("time"),
	}
	if a.has("rotX") || a.has("rotY") || a.has("rotZ") {
		rot := r.vec3("rotX", "rotY", "rotZ")
		nd.Rotation = &rot
	}
	if r.err != nil {
		return Node{}, r.err
	}
	return nd, nil
}

// attrs maps local attribute names to their raw values.
type attrs map[string]string

func newAttrs(list []xml.Attr) attrs {
	a := make(attrs, len(list))
	for _, at := range list {
		a[at.Name.Local] = at.Value
	}
	return a
}

func (a attrs) has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a attrs) reader(tag string) *attrReader {
	return &attrReader{tag: tag, attrs: a}
}

// attrReader converts attributes of one tag. The first failure is kept in
// err and turns all later conversions into no-ops.
type attrReader struct {
	tag   string
	attrs attrs
	err   error
}

func (r *attrReader) required(name string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.attrs[name]
	if !ok {
		r.err = &MissingAttributeError{Tag: r.tag, Attr: name}
	}
	return v
}

func (r *attrReader) str(name string) string {
	return r.attrs[name]
}

func (r *attrReader) optString(name string) *string {
	v, ok := r.attrs[name]
	if !ok {
		return nil
	}
	return &v
}

var errNonFinite = errors.New("not a finite number")

func (r *attrReader) fail(name, value string, err error) {
	r.err = &InvalidAttributeError{Tag: r.tag, Attr: name, Value: value, Err: err}
}

func (r *attrReader) int(name string) int {
	s := r.required(name)
	if r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		r.fail(name, s, err)
	}
	return v
}

func (r *attrReader) int64(name string) int64 {
	s := r.required(name)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		r.fail(name, s, err)
	}
	return v
}

func (r *attrReader) float(name string) float64 {
	s := r.required(name)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	switch {
	case err != nil:
		r.fail(name, s, err)
	case math.IsNaN(v) || math.IsInf(v, 0):
		r.fail(name, s, errNonFinite)
	}
	return v
}

func (r *attrReader) vec3(x, y, z string) Vec3 {
	return Vec3{r.float(x), r.float(y), r.float(z)}
}

func (r *attrReader) optInt(name string) *int {
	if !r.attrs.has(name) || r.err != nil {
		return nil
	}
	v := r.int(name)
	return &v
}

func (r *attrReader) optInt64(name string) *int64 {
	if !r.attrs.has(name) || r.err != nil {
		return nil
	}
	v := r.int64(name)
	return &v
}

func (r *attrReader) optFloat(name string) *float64 {
	if !r.attrs.has(name) || r.err != nil {
		return nil
	}
	v := r.float(name)
	return &v
}

func (r *attrReader) optBool(name string) *bool {
	s, ok := r.attrs[name]
	if !ok || r.err != nil {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		r.fail(name, s, err)
		return nil
	}
	return &v
}
