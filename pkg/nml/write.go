package nml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Write serializes n to w as a pretty-printed document with a UTF-8 XML
// declaration.
//
// Sections are written in a fixed order: parameters, trees, branchpoints,
// comments, groups and finally the optional volume. Optional fields that are
// nil are omitted entirely; Write never invents values for them. Empty
// containers are written as self-closing tags.
//
// Write(Parse(x)) is byte-for-byte stable: writing a parsed document and
// writing it again after re-parsing yields identical output.
func Write(w io.Writer, n NML) error {
	x := newXMLWriter(w)
	x.raw(xmlHeader)

	x.start("things")
	writeParameters(x, n.Parameters)
	for _, t := range n.Trees {
		writeTree(x, t)
	}

	x.start("branchpoints")
	for _, b := range n.Branchpoints {
		x.empty("branchpoint", attrList{}.int("id", b.ID).optInt64("time", b.Time)...)
	}
	x.end()

	x.start("comments")
	for _, c := range n.Comments {
		x.empty("comment", attrList{}.int("node", c.Node).optString("content", c.Content)...)
	}
	x.end()

	x.start("groups")
	writeGroups(x, n.Groups)
	x.end()

	if v := n.Volume; v != nil {
		x.empty("volume", attrList{}.int("id", v.ID).str("location", v.Location).optString("fallbackLayer", v.FallbackLayer)...)
	}
	x.end()

	return x.flush()
}

// Marshal returns the serialized form of n.
func Marshal(n NML) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes n to path, creating or truncating the file.
func WriteFile(path string, n NML) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := Write(f, n); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeParameters(x *xmlWriter, p Parameters) {
	x.start("parameters")
	x.empty("experiment", attrList{}.str("name", p.Name)...)
	x.empty("scale", attrList{}.vec3("x", "y", "z", p.Scale)...)
	if p.Offset != nil {
		x.empty("offset", attrList{}.vec3("x", "y", "z", *p.Offset)...)
	}
	if p.Time != nil {
		x.empty("time", attrList{}.int64("ms", *p.Time)...)
	}
	if p.EditPosition != nil {
		x.empty("editPosition", attrList{}.vec3("x", "y", "z", *p.EditPosition)...)
	}
	if p.EditRotation != nil {
		x.empty("editRotation", attrList{}.vec3("xRot", "yRot", "zRot", *p.EditRotation)...)
	}
	if p.ZoomLevel != nil {
		x.empty("zoomLevel", attrList{}.float("zoom", *p.ZoomLevel)...)
	}
	writeBoundingBox(x, "taskBoundingBox", p.TaskBoundingBox)
	writeBoundingBox(x, "userBoundingBox", p.UserBoundingBox)
	x.end()
}

func writeBoundingBox(x *xmlWriter, tag string, b *BoundingBox) {
	if b == nil {
		return
	}
	x.empty(tag, attrList{}.
		int("topLeftX", b.TopLeftX).
		int("topLeftY", b.TopLeftY).
		int("topLeftZ", b.TopLeftZ).
		int("width", b.Width).
		int("height", b.Height).
		int("depth", b.Depth)...)
}

func writeTree(x *xmlWriter, t Tree) {
	a := attrList{}.
		int("id", t.ID).
		float("color.r", t.Color[0]).
		float("color.g", t.Color[1]).
		float("color.b", t.Color[2]).
		float("color.a", t.Color[3]).
		str("name", t.Name)
	if t.GroupID != nil {
		a = a.int("groupId", *t.GroupID)
	}
	x.start("thing", a...)

	x.start("nodes")
	for _, nd := range t.Nodes {
		writeNode(x, nd)
	}
	x.end()

	x.start("edges")
	for _, e := range t.Edges {
		x.empty("edge", attrList{}.int("source", e.Source).int("target", e.Target)...)
	}
	x.end()

	x.end()
}

func writeNode(x *xmlWriter, nd Node) {
	a := attrList{}.int("id", nd.ID).vec3("x", "y", "z", nd.Position)
	a = a.optFloat("radius", nd.Radius)
	if nd.Rotation != nil {
		a = a.vec3("rotX", "rotY", "rotZ", *nd.Rotation)
	}
	a = a.optInt("inVp", nd.InVp).
		optInt("inMag", nd.InMag).
		optInt("bitDepth", nd.BitDepth)
	if nd.Interpolation != nil {
		a = a.str("interpolation", strconv.FormatBool(*nd.Interpolation))
	}
	a = a.optInt64("time", nd.Time)
	x.empty("node", a...)
}

func writeGroups(x *xmlWriter, groups []Group) {
	for _, g := range groups {
		x.start("group", attrList{}.int("id", g.ID).str("name", g.Name)...)
		writeGroups(x, g.Children)
		x.end()
	}
}

// FormatFloat renders v the way the writer does: the shortest decimal
// representation that parses back to the same value, without exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type attr struct {
	name, value string
}

// attrList is an ordered attribute list. Attribute order in the output
// follows the order of the builder calls.
type attrList []attr

func (a attrList) str(name, v string) attrList { return append(a, attr{name, v}) }

func (a attrList) int(name string, v int) attrList {
	return append(a, attr{name, strconv.Itoa(v)})
}
func (a attrList) int64(name string, v int64) attrList {
	return append(a, attr{name, strconv.FormatInt(v, 10)})
}
func (a attrList) float(name string, v float64) attrList {
	return append(a, attr{name, FormatFloat(v)})
}

func (a attrList) vec3(x, y, z string, v Vec3) attrList {
	return a.float(x, v[0]).float(y, v[1]).float(z, v[2])
}

func (a attrList) optString(name string, v *string) attrList {
	if v == nil {
		return a
	}
	return a.str(name, *v)
}

func (a attrList) optInt(name string, v *int) attrList {
	if v == nil {
		return a
	}
	return a.int(name, *v)
}

func (a attrList) optInt64(name string, v *int64) attrList {
	if v == nil {
		return a
	}
	return a.int64(name, *v)
}

func (a attrList) optFloat(name string, v *float64) attrList {
	if v == nil {
		return a
	}
	return a.float(name, *v)
}

// xmlWriter emits indented elements with attributes in caller order.
// A start tag stays open until its first child or its end, so elements
// without children come out self-closing. The first write error is sticky.
type xmlWriter struct {
	w       *bufio.Writer
	open    []string
	pending bool
	err     error
}

func newXMLWriter(w io.Writer) *xmlWriter {
	return &xmlWriter{w: bufio.NewWriter(w)}
}

func (x *xmlWriter) raw(s string) {
	if x.err != nil {
		return
	}
	_, x.err = x.w.WriteString(s)
}

func (x *xmlWriter) indent() {
	x.raw(strings.Repeat("  ", len(x.open)))
}

func (x *xmlWriter) closePending() {
	if x.pending {
		x.raw(">\n")
		x.pending = false
	}
}

func (x *xmlWriter) start(tag string, attrs ...attr) {
	x.closePending()
	x.indent()
	x.raw("<" + tag)
	for _, a := range attrs {
		x.raw(" " + a.name + `="`)
		if x.err == nil {
			x.err = xml.EscapeText(x.w, []byte(a.value))
		}
		x.raw(`"`)
	}
	x.open = append(x.open, tag)
	x.pending = true
}

func (x *xmlWriter) end() {
	tag := x.open[len(x.open)-1]
	x.open = x.open[:len(x.open)-1]
	if x.pending {
		x.raw(" />\n")
		x.pending = false
		return
	}
	x.indent()
	x.raw("</" + tag + ">\n")
}

func (x *xmlWriter) empty(tag string, attrs ...attr) {
	x.start(tag, attrs...)
	x.end()
}

func (x *xmlWriter) flush() error {
	if x.err != nil {
		return x.err
	}
	return x.w.Flush()
}
