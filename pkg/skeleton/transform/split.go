package transform

import (
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// SplitComponents turns every connected component of a tree into a tree
// of its own.
//
// The component containing a tree's first node keeps the tree. Every
// further component becomes a new graph inserted right after the original,
// with the same name and color and a fresh id taken from a counter seeded
// at the largest tree id plus one. It returns the number of trees added.
func SplitComponents(gg skeleton.GroupedGraphs) int {
	next := 1
	for _, g := range gg.Graphs() {
		next = max(next, g.ID+1)
	}

	added := 0
	for i := range gg {
		var out []*skeleton.Graph
		for _, g := range gg[i].Graphs {
			out = append(out, g)
			comps := components(g)
			for _, comp := range comps[min(1, len(comps)):] {
				out = append(out, extract(g, comp, next))
				next++
				added++
			}
		}
		gg[i].Graphs = out
	}
	return added
}

// Split applies [SplitComponents] to an annotation.
func Split(n nml.NML) (nml.NML, error) {
	return apply(n, func(gg skeleton.GroupedGraphs) error {
		SplitComponents(gg)
		return nil
	})
}

// components returns the connected components of g as sets of node ids,
// ordered by their first node in insertion order.
func components(g *skeleton.Graph) []map[int]bool {
	seen := make(map[int]bool, g.NodeCount())
	var comps []map[int]bool
	for _, start := range g.Nodes() {
		if seen[start.ID] {
			continue
		}
		comp := map[int]bool{start.ID: true}
		seen[start.ID] = true
		queue := []int{start.ID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, nb := range g.Neighbors(id) {
				if !seen[nb] {
					seen[nb] = true
					comp[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// extract moves the nodes in comp from g into a new graph with the given id.
func extract(g *skeleton.Graph, comp map[int]bool, id int) *skeleton.Graph {
	out := skeleton.New(id, g.Name)
	if g.Color != nil {
		c := *g.Color
		out.Color = &c
	}
	for _, nd := range g.Nodes() {
		if comp[nd.ID] {
			if err := out.AddNode(*nd); err != nil {
				panic(err)
			}
		}
	}
	for _, e := range g.Edges() {
		if comp[e.Source] {
			if err := out.AddEdge(e.Source, e.Target); err != nil {
				panic(err)
			}
		}
	}
	for id := range comp {
		g.RemoveNode(id)
	}
	return out
}
