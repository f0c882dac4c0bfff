package transform

import (
	"math"
	"slices"

	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// MergeNearest joins the trees of every named group into a single tree.
//
// The tree with the fewest nodes is attached to the tree holding the
// closest node, measured with positions multiplied component-wise by
// scale, and a bridging edge connects the two closest nodes. This repeats
// until one tree remains in the group. Ties keep the first pair found,
// walking trees in their current order and nodes in insertion order.
// Trees without nodes are dropped. The ungrouped bucket is left as is.
//
// Nodes of an absorbed tree whose ids collide with the receiving tree are
// renumbered from a counter above the largest id in gg. It returns the
// number of trees merged away.
func MergeNearest(gg skeleton.GroupedGraphs, scale nml.Vec3) int {
	next := gg.MaxNodeID() + 1
	merged := 0
	for i := range gg {
		if gg[i].Name == "" {
			continue
		}
		before := len(gg[i].Graphs)
		gg[i].Graphs, next = mergeBucket(gg[i].Graphs, scale, next)
		merged += before - len(gg[i].Graphs)
	}
	return merged
}

// MergeTrees applies [MergeNearest] to an annotation.
func MergeTrees(n nml.NML, scale nml.Vec3) (nml.NML, error) {
	return apply(n, func(gg skeleton.GroupedGraphs) error {
		MergeNearest(gg, scale)
		return nil
	})
}

func mergeBucket(trees []*skeleton.Graph, scale nml.Vec3, next int) ([]*skeleton.Graph, int) {
	trees = slices.Clone(trees)
	for len(trees) > 1 {
		slices.SortStableFunc(trees, func(a, b *skeleton.Graph) int {
			return a.NodeCount() - b.NodeCount()
		})
		small := trees[0]
		trees = trees[1:]
		if small.NodeCount() == 0 {
			continue
		}

		target, from, to := nearest(small, trees, scale)
		next = absorb(target, small, &from, next)
		if err := target.AddEdge(from, to); err != nil {
			panic(err)
		}
	}
	return trees, next
}

// nearest finds the node pair with the smallest scaled distance between
// small and any of others. Only the first strict minimum is kept.
func nearest(small *skeleton.Graph, others []*skeleton.Graph, scale nml.Vec3) (target *skeleton.Graph, from, to int) {
	best := math.Inf(1)
	for _, other := range others {
		candidates := other.Nodes()
		for _, a := range small.Nodes() {
			for _, b := range candidates {
				if d := nml.Distance(a.Position, b.Position, scale); d < best {
					best, target, from, to = d, other, a.ID, b.ID
				}
			}
		}
	}
	return target, from, to
}

// absorb moves all nodes and edges of src into dst. If any id of src is
// already used in dst, src is renumbered first and *bridge is updated to
// the new id of the bridging node.
func absorb(dst, src *skeleton.Graph, bridge *int, next int) int {
	collides := false
	for _, nd := range src.Nodes() {
		if _, ok := dst.Node(nd.ID); ok {
			collides = true
			break
		}
	}
	if collides {
		pos := slices.IndexFunc(src.Nodes(), func(nd *skeleton.Node) bool { return nd.ID == *bridge })
		next = src.Renumber(next)
		*bridge = src.Nodes()[pos].ID
	}

	for _, nd := range src.Nodes() {
		if err := dst.AddNode(*nd); err != nil {
			panic(err)
		}
	}
	for _, e := range src.Edges() {
		if err := dst.AddEdge(e.Source, e.Target); err != nil {
			panic(err)
		}
	}
	return next
}
