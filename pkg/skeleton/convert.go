package skeleton

import (
	"errors"
	"fmt"
	"math/rand/v2"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
)

// DanglingEdgeError reports an edge whose endpoint is not a node of the
// same tree.
type DanglingEdgeError struct {
	TreeID  int
	Source  int
	Target  int
	Missing int
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("tree %d: edge %d-%d references unknown node %d", e.TreeID, e.Source, e.Target, e.Missing)
}

// Code implements errors.Coder.
func (e *DanglingEdgeError) Code() wkerrors.Code { return wkerrors.ErrCodeDanglingEdge }

// DuplicateNodeError reports a node id that occurs twice in one tree.
type DuplicateNodeError struct {
	TreeID int
	NodeID int
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("tree %d: duplicate node %d", e.TreeID, e.NodeID)
}

// Unwrap returns ErrDuplicateNode.
func (e *DuplicateNodeError) Unwrap() error { return ErrDuplicateNode }

// Code implements errors.Coder.
func (e *DuplicateNodeError) Code() wkerrors.Code { return wkerrors.ErrCodeInvalidInput }

// Bucket holds the graphs of all trees that share a group name. The bucket
// with the empty name holds the ungrouped trees.
type Bucket struct {
	Name   string
	Graphs []*Graph
}

// GroupedGraphs is the graph view of an annotation: buckets in order of
// first appearance.
type GroupedGraphs []Bucket

// Graphs returns every graph of every bucket in order.
func (gg GroupedGraphs) Graphs() []*Graph {
	var out []*Graph
	for _, b := range gg {
		out = append(out, b.Graphs...)
	}
	return out
}

// Bucket returns the bucket with the given name, or nil.
func (gg GroupedGraphs) Bucket(name string) *Bucket {
	for i := range gg {
		if gg[i].Name == name {
			return &gg[i]
		}
	}
	return nil
}

// MaxNodeID returns the largest node id across all graphs, or 0.
func (gg GroupedGraphs) MaxNodeID() int {
	m := 0
	for _, g := range gg.Graphs() {
		m = max(m, g.MaxNodeID())
	}
	return m
}

// Clone returns a deep copy of gg.
func (gg GroupedGraphs) Clone() GroupedGraphs {
	out := make(GroupedGraphs, len(gg))
	for i, b := range gg {
		out[i] = Bucket{Name: b.Name, Graphs: make([]*Graph, len(b.Graphs))}
		for j, g := range b.Graphs {
			out[i].Graphs[j] = g.Clone()
		}
	}
	return out
}

// Renumber rewrites the node ids of every graph to one contiguous range
// starting at next and returns the first unused id.
func (gg GroupedGraphs) Renumber(next int) int {
	for _, g := range gg.Graphs() {
		next = g.Renumber(next)
	}
	return next
}

// ToGraph converts an annotation into its graph view.
//
// The group forest is flattened and trees are bucketed by the name of the
// group their groupId refers to; nesting is not preserved. Trees without a
// group, or whose groupId matches no group, go to the "" bucket. Comments
// and branchpoints are attached to the first node with a matching id in
// bucket order; records that match no node are dropped.
//
// An edge that references a node outside its own tree fails with a
// [*DanglingEdgeError].
func ToGraph(n nml.NML) (GroupedGraphs, nml.Parameters, error) {
	groupNames := make(map[int]string)
	for _, g := range nml.FlattenGroups(n.Groups) {
		if _, seen := groupNames[g.ID]; !seen {
			groupNames[g.ID] = g.Name
		}
	}

	var gg GroupedGraphs
	index := make(map[string]int)
	for _, t := range n.Trees {
		g, err := treeToGraph(t)
		if err != nil {
			return nil, nml.Parameters{}, err
		}

		name := ""
		if t.GroupID != nil {
			name = groupNames[*t.GroupID]
		}
		i, ok := index[name]
		if !ok {
			i = len(gg)
			index[name] = i
			gg = append(gg, Bucket{Name: name})
		}
		gg[i].Graphs = append(gg[i].Graphs, g)
	}

	byID := make(map[int]*Node)
	for _, g := range gg.Graphs() {
		for _, nd := range g.Nodes() {
			if _, seen := byID[nd.ID]; !seen {
				byID[nd.ID] = nd
			}
		}
	}
	for _, c := range n.Comments {
		if nd, ok := byID[c.Node]; ok {
			nd.AddComment(c.Content)
		}
	}
	for _, b := range n.Branchpoints {
		if nd, ok := byID[b.ID]; ok {
			nd.SetBranchpoint(b.Time)
		}
	}

	return gg, n.Parameters, nil
}

func treeToGraph(t nml.Tree) (*Graph, error) {
	g := New(t.ID, t.Name)
	color := t.Color
	g.Color = &color

	for _, nd := range t.Nodes {
		if err := g.AddNode(fromNML(nd)); err != nil {
			if errors.Is(err, ErrDuplicateNode) {
				return nil, &DuplicateNodeError{TreeID: t.ID, NodeID: nd.ID}
			}
			return nil, fmt.Errorf("tree %d node %d: %w", t.ID, nd.ID, err)
		}
	}
	for _, e := range t.Edges {
		for _, end := range []int{e.Source, e.Target} {
			if _, ok := g.Node(end); !ok {
				return nil, &DanglingEdgeError{TreeID: t.ID, Source: e.Source, Target: e.Target, Missing: end}
			}
		}
		if err := g.AddEdge(e.Source, e.Target); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Option configures [FromGraph].
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithRand sets the random source used for trees without a color.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// FromGraph converts a graph view back into an annotation.
//
// With reglobalize set, trees are numbered 1..T and nodes 1..N across all
// trees, in bucket order; otherwise graph and node ids are kept. Nodes
// without a radius get 1.0 and graphs without a color get a random one.
// A group is synthesized for each named bucket, numbered from 1; when all
// graphs are ungrouped the result has no groups. Comments and branchpoints
// are regenerated from node metadata.
//
// FromGraph does not modify gg.
func FromGraph(gg GroupedGraphs, params nml.Parameters, reglobalize bool, opts ...Option) nml.NML {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	out := nml.NML{Parameters: params}
	nextTree, nextNode, nextGroup := 1, 1, 1

	for _, b := range gg {
		var groupID *int
		if b.Name != "" {
			groupID = nml.Ptr(nextGroup)
			out.Groups = append(out.Groups, nml.Group{ID: nextGroup, Name: b.Name})
			nextGroup++
		}

		for _, g := range b.Graphs {
			var ids map[int]int
			treeID := g.ID
			if reglobalize {
				ids, nextNode = g.relabel(nextNode)
				treeID = nextTree
				nextTree++
			}
			rename := func(id int) int {
				if ids == nil {
					return id
				}
				return ids[id]
			}

			tree := nml.Tree{ID: treeID, Name: g.Name, GroupID: clone(groupID)}
			if g.Color != nil {
				tree.Color = *g.Color
			} else {
				tree.Color = RandomColor(o.rng)
			}

			for _, nd := range g.Nodes() {
				rec := nd.toNML()
				rec.ID = rename(nd.ID)
				if rec.Radius == nil {
					rec.Radius = nml.Ptr(1.0)
				}
				tree.Nodes = append(tree.Nodes, rec)

				for _, c := range nd.Comments() {
					out.Comments = append(out.Comments, nml.Comment{Node: rec.ID, Content: clone(c.Content)})
				}
				if bp, ok := nd.Branchpoint(); ok {
					out.Branchpoints = append(out.Branchpoints, nml.Branchpoint{ID: rec.ID, Time: clone(bp.Time)})
				}
			}
			for _, e := range g.Edges() {
				tree.Edges = append(tree.Edges, nml.Edge{Source: rename(e.Source), Target: rename(e.Target)})
			}
			out.Trees = append(out.Trees, tree)
		}
	}
	return out
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsDanglingEdge reports whether err is or wraps a [*DanglingEdgeError].
func IsDanglingEdge(err error) bool {
	var de *DanglingEdgeError
	return errors.As(err, &de)
}
