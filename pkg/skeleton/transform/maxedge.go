package transform

import (
	"math"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// EnsureMaxEdgeLength subdivides every edge longer than maxLength.
//
// An edge of length d is replaced by a chain through ceil(d/maxLength)-1
// new nodes placed at equal spacing on the straight segment. Lengths are
// measured on raw positions. New nodes copy the attributes of the edge's
// source node, without its comments or branchpoint, and take ids from a
// counter seeded at the largest node id of all graphs plus one.
//
// It returns the number of nodes added, or an error if maxLength is not a
// positive finite number.
func EnsureMaxEdgeLength(gg skeleton.GroupedGraphs, maxLength float64) (int, error) {
	if err := wkerrors.ValidatePositive("max edge length", maxLength); err != nil {
		return 0, err
	}
	first := gg.MaxNodeID() + 1
	next := first
	for _, g := range gg.Graphs() {
		next = subdivideLongEdges(g, maxLength, next)
	}
	return next - first, nil
}

// MaxEdgeLength applies [EnsureMaxEdgeLength] to an annotation.
func MaxEdgeLength(n nml.NML, maxLength float64) (nml.NML, error) {
	return apply(n, func(gg skeleton.GroupedGraphs) error {
		_, err := EnsureMaxEdgeLength(gg, maxLength)
		return err
	})
}

func subdivideLongEdges(g *skeleton.Graph, maxLength float64, next int) int {
	for _, e := range g.Edges() {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		d := distance(src.Position, dst.Position)
		if d <= maxLength {
			continue
		}

		segments := int(math.Ceil(d / maxLength))
		g.RemoveEdge(e.Source, e.Target)
		prev := e.Source
		for k := 1; k < segments; k++ {
			pad := src.Attributes()
			pad.ID = next
			pad.Position = lerp(src.Position, dst.Position, float64(k)/float64(segments))
			if err := g.AddNode(pad); err != nil {
				panic(err)
			}
			if err := g.AddEdge(prev, pad.ID); err != nil {
				panic(err)
			}
			prev = pad.ID
			next++
		}
		if err := g.AddEdge(prev, e.Target); err != nil {
			panic(err)
		}
	}
	return next
}

func distance(a, b nml.Vec3) float64 {
	return nml.Distance(a, b, nml.Vec3{1, 1, 1})
}

func lerp(a, b nml.Vec3, t float64) nml.Vec3 {
	var out nml.Vec3
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}
