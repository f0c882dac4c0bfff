package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// Plane selects the two axes a drawing is projected onto.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

// axes returns the indices of the horizontal and vertical axis.
func (p Plane) axes() (int, int, error) {
	switch p {
	case PlaneXY, "":
		return 0, 1, nil
	case PlaneXZ:
		return 0, 2, nil
	case PlaneYZ:
		return 1, 2, nil
	}
	return 0, 0, fmt.Errorf("unknown plane %q (want xy, xz or yz)", string(p))
}

// Options configures DOT generation.
type Options struct {
	// Plane is the projection plane. Default PlaneXY.
	Plane Plane
	// Width is the extent of the longer side of the drawing in points.
	// Default 800.
	Width float64
	// Labels draws node ids inside the nodes.
	Labels bool
	// Trees restricts the drawing to the given tree ids. Empty draws all.
	Trees []int
}

const defaultWidth = 800.0

// ToDOT converts a graph view into Graphviz DOT source with pinned node
// positions. Positions are multiplied by the dataset scale before
// projecting, so anisotropic voxels are drawn to physical proportions.
// An invalid plane falls back to PlaneXY; use [Options.Validate] first to
// reject it.
func ToDOT(gg skeleton.GroupedGraphs, params nml.Parameters, opts Options) string {
	h, v, err := opts.Plane.axes()
	if err != nil {
		h, v = 0, 1
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	scale := params.Scale
	if scale == (nml.Vec3{}) {
		scale = nml.Vec3{1, 1, 1}
	}
	keep := treeFilter(opts.Trees)

	proj := projector{h: h, v: v, scale: scale}
	for _, g := range gg.Graphs() {
		if keep(g.ID) {
			for _, n := range g.Nodes() {
				proj.extend(n.Position)
			}
		}
	}
	proj.fit(width)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, width=0.12, fixedsize=true, fontsize=8, label=\"\", penwidth=0.5];\n")
	buf.WriteString("  edge [penwidth=1.5];\n")

	for bi, b := range gg {
		var body bytes.Buffer
		for gi, g := range b.Graphs {
			if !keep(g.ID) {
				continue
			}
			writeTree(&body, g, fmt.Sprintf("b%d_t%d", bi, gi), proj, opts.Labels)
		}
		if body.Len() == 0 {
			continue
		}
		if b.Name == "" {
			buf.Write(body.Bytes())
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph %q {\n", fmt.Sprintf("cluster_%d", bi))
		fmt.Fprintf(&buf, "    label=%q;\n    style=dashed;\n    color=grey;\n", b.Name)
		buf.Write(body.Bytes())
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeTree(buf *bytes.Buffer, g *skeleton.Graph, prefix string, proj projector, labels bool) {
	color := hexColor(nml.DefaultColor)
	if g.Color != nil {
		color = hexColor(*g.Color)
	}
	name := func(id int) string { return fmt.Sprintf("%s_n%d", prefix, id) }

	fmt.Fprintf(buf, "\n  // tree %d\n", g.ID)
	for _, n := range g.Nodes() {
		x, y := proj.point(n.Position)
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y),
			fmt.Sprintf("fillcolor=%q", color),
		}
		if labels {
			attrs = append(attrs, fmt.Sprintf("label=\"%d\"", n.ID), "width=0.3")
		}
		if _, ok := n.Branchpoint(); ok {
			attrs = append(attrs, "peripheries=2", "width=0.25")
		}
		if cs := n.Comments(); len(cs) > 0 {
			texts := make([]string, 0, len(cs))
			for _, c := range cs {
				if c.Content != nil {
					texts = append(texts, *c.Content)
				}
			}
			if len(texts) > 0 {
				attrs = append(attrs, fmt.Sprintf("xlabel=%q", strings.Join(texts, "\n")))
			}
		}
		fmt.Fprintf(buf, "  %q [%s];\n", name(n.ID), strings.Join(attrs, ", "))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(buf, "  %q -- %q [color=%q];\n", name(e.Source), name(e.Target), color)
	}
}

func treeFilter(ids []int) func(int) bool {
	if len(ids) == 0 {
		return func(int) bool { return true }
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id int) bool { return set[id] }
}

// projector maps scaled positions into a width×width point box with the
// y axis flipped, since Graphviz grows upwards and image stacks downwards.
type projector struct {
	h, v       int
	scale      nml.Vec3
	minH, maxH float64
	minV, maxV float64
	factor     float64
	seen       bool
}

func (p *projector) extend(pos nml.Vec3) {
	a, b := pos[p.h]*p.scale[p.h], pos[p.v]*p.scale[p.v]
	if !p.seen {
		p.minH, p.maxH, p.minV, p.maxV = a, a, b, b
		p.seen = true
		return
	}
	p.minH, p.maxH = math.Min(p.minH, a), math.Max(p.maxH, a)
	p.minV, p.maxV = math.Min(p.minV, b), math.Max(p.maxV, b)
}

func (p *projector) fit(width float64) {
	extent := math.Max(p.maxH-p.minH, p.maxV-p.minV)
	p.factor = 1
	if extent > 0 {
		p.factor = width / extent
	}
}

func (p projector) point(pos nml.Vec3) (float64, float64) {
	x := (pos[p.h]*p.scale[p.h] - p.minH) * p.factor
	y := (p.maxV - pos[p.v]*p.scale[p.v]) * p.factor
	return x, y
}

func hexColor(c nml.Color) string {
	channel := func(f float64) int {
		return int(math.Round(math.Max(0, math.Min(1, f)) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c[0]), channel(c[1]), channel(c[2]))
}
