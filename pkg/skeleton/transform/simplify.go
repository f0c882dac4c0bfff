package transform

import (
	"math"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// ApproximateMinimalEdgeLength contracts short, nearly straight runs.
//
// Each node B that has exactly two neighbors A and C when the call starts is
// removed and replaced by a direct edge A-C if the angle between B-A and
// C-B is at most maxAngle radians and the distance from A to C is at most
// maxLength. Both bounds are inclusive. A node whose degree changed through
// an earlier removal in the same call is skipped, and nodes that only reach
// degree two during the call are not considered. Nodes coinciding with a
// neighbor have no defined angle and are kept.
//
// It returns the number of nodes removed.
func ApproximateMinimalEdgeLength(gg skeleton.GroupedGraphs, maxLength, maxAngle float64) (int, error) {
	if err := wkerrors.ValidatePositive("simplify length", maxLength); err != nil {
		return 0, err
	}
	if err := wkerrors.ValidateAngle("simplify angle", maxAngle); err != nil {
		return 0, err
	}
	removed := 0
	for _, g := range gg.Graphs() {
		removed += simplifyGraph(g, maxLength, maxAngle)
	}
	return removed, nil
}

// Simplify applies [ApproximateMinimalEdgeLength] to an annotation.
func Simplify(n nml.NML, maxLength, maxAngle float64) (nml.NML, error) {
	return apply(n, func(gg skeleton.GroupedGraphs) error {
		_, err := ApproximateMinimalEdgeLength(gg, maxLength, maxAngle)
		return err
	})
}

func simplifyGraph(g *skeleton.Graph, maxLength, maxAngle float64) int {
	var candidates []int
	for _, nd := range g.Nodes() {
		if g.Degree(nd.ID) == 2 {
			candidates = append(candidates, nd.ID)
		}
	}

	removed := 0
	for _, id := range candidates {
		if g.Degree(id) != 2 {
			continue
		}
		nbs := g.Neighbors(id)
		a, _ := g.Node(nbs[0])
		b, _ := g.Node(id)
		c, _ := g.Node(nbs[1])

		angle := angleBetween(sub(b.Position, a.Position), sub(c.Position, b.Position))
		if math.IsNaN(angle) || angle > maxAngle || distance(a.Position, c.Position) > maxLength {
			continue
		}
		g.RemoveNode(id)
		if err := g.AddEdge(a.ID, c.ID); err != nil {
			panic(err)
		}
		removed++
	}
	return removed
}

func sub(a, b nml.Vec3) nml.Vec3 {
	return nml.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b nml.Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// angleBetween returns the angle between u and v in radians, or NaN if
// either has zero length.
func angleBetween(u, v nml.Vec3) float64 {
	lu, lv := math.Sqrt(dot(u, u)), math.Sqrt(dot(v, v))
	if lu == 0 || lv == 0 {
		return math.NaN()
	}
	cos := dot(u, v) / (lu * lv)
	return math.Acos(max(-1, min(1, cos)))
}
