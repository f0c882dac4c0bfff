package skeleton

import (
	"errors"
	"maps"
	"slices"

	"github.com/scalableminds/wknml/pkg/nml"
)

var (
	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same id already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint does
	// not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Metadata stores pass-through attributes that are not part of the node
// schema. Only the keys [MetaComment] and [MetaBranchpoint] are interpreted
// by this package; other keys are carried along untouched.
type Metadata map[string]any

const (
	// MetaComment holds the comments projected onto a node as []nml.Comment.
	MetaComment = "comment"
	// MetaBranchpoint marks a node as a branchpoint; the value is an
	// nml.Branchpoint.
	MetaBranchpoint = "branchpoint"
)

// Node is a mutable skeleton point. The optional fields mirror nml.Node.
type Node struct {
	ID            int
	Position      nml.Vec3
	Radius        *float64
	Rotation      *nml.Vec3
	InVp          *int
	InMag         *int
	BitDepth      *int
	Interpolation *bool
	Time          *int64
	Meta          Metadata // never nil after AddNode
}

// Comments returns the comments attached to the node.
func (n *Node) Comments() []nml.Comment {
	c, _ := n.Meta[MetaComment].([]nml.Comment)
	return c
}

// AddComment attaches a comment to the node.
func (n *Node) AddComment(content *string) {
	n.Meta[MetaComment] = append(n.Comments(), nml.Comment{Node: n.ID, Content: content})
}

// Branchpoint reports whether the node is a branchpoint and returns its
// record.
func (n *Node) Branchpoint() (nml.Branchpoint, bool) {
	b, ok := n.Meta[MetaBranchpoint].(nml.Branchpoint)
	return b, ok
}

// SetBranchpoint marks the node as a branchpoint with an optional time.
func (n *Node) SetBranchpoint(time *int64) {
	n.Meta[MetaBranchpoint] = nml.Branchpoint{ID: n.ID, Time: time}
}

// Attributes returns a copy of the node's schema attributes with Meta
// cleared. It is used for synthetic nodes that inherit their neighbor's
// attributes but none of its annotations.
func (n *Node) Attributes() Node {
	out := fromNML(n.toNML())
	out.Meta = Metadata{}
	return out
}

func fromNML(nd nml.Node) Node {
	c := nd.Clone()
	return Node{
		ID:            c.ID,
		Position:      c.Position,
		Radius:        c.Radius,
		Rotation:      c.Rotation,
		InVp:          c.InVp,
		InMag:         c.InMag,
		BitDepth:      c.BitDepth,
		Interpolation: c.Interpolation,
		Time:          c.Time,
		Meta:          Metadata{},
	}
}

func (n *Node) toNML() nml.Node {
	return nml.Node{
		ID:            n.ID,
		Position:      n.Position,
		Radius:        n.Radius,
		Rotation:      n.Rotation,
		InVp:          n.InVp,
		InMag:         n.InMag,
		BitDepth:      n.BitDepth,
		Interpolation: n.Interpolation,
		Time:          n.Time,
	}.Clone()
}

// Edge is an undirected connection. Source and Target keep the orientation
// the edge was added with so output is stable.
type Edge struct {
	Source int
	Target int
}

type edgeKey struct{ a, b int }

func keyOf(u, v int) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{u, v}
}

// Graph is one tree as an undirected attribute graph.
//
// Nodes and edges are reported in insertion order, so conversions and
// transforms over a graph are deterministic. The zero value is not usable;
// create graphs with [New]. A Graph is not safe for concurrent use.
type Graph struct {
	ID    int
	Name  string
	Color *nml.Color // nil lets FromGraph pick a random color

	nodes   map[int]*Node
	nodeSeq map[int]int
	edges   map[edgeKey]Edge
	edgeSeq map[edgeKey]int
	adj     map[int]map[int]struct{}
	seq     int
}

// New creates an empty graph for a tree.
func New(id int, name string) *Graph {
	return &Graph{
		ID:      id,
		Name:    name,
		nodes:   make(map[int]*Node),
		nodeSeq: make(map[int]int),
		edges:   make(map[edgeKey]Edge),
		edgeSeq: make(map[edgeKey]int),
		adj:     make(map[int]map[int]struct{}),
	}
}

// AddNode adds a node. It returns ErrDuplicateNode if the id is taken.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNode
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	g.nodes[n.ID] = &n
	g.nodeSeq[n.ID] = g.next()
	g.adj[n.ID] = make(map[int]struct{})
	return nil
}

// AddEdge connects u and v. Adding an edge that already exists, in either
// orientation, is a no-op.
func (g *Graph) AddEdge(u, v int) error {
	if _, ok := g.nodes[u]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[v]; !ok {
		return ErrUnknownNode
	}
	k := keyOf(u, v)
	if _, exists := g.edges[k]; exists {
		return nil
	}
	g.edges[k] = Edge{Source: u, Target: v}
	g.edgeSeq[k] = g.next()
	g.adj[u][v] = struct{}{}
	g.adj[v][u] = struct{}{}
	return nil
}

func (g *Graph) next() int {
	g.seq++
	return g.seq
}

// RemoveEdge removes the edge between u and v if it exists.
func (g *Graph) RemoveEdge(u, v int) {
	k := keyOf(u, v)
	if _, ok := g.edges[k]; !ok {
		return
	}
	delete(g.edges, k)
	delete(g.edgeSeq, k)
	delete(g.adj[u], v)
	delete(g.adj[v], u)
}

// RemoveNode removes a node and all its incident edges.
func (g *Graph) RemoveNode(id int) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for nb := range g.adj[id] {
		g.RemoveEdge(id, nb)
	}
	delete(g.nodes, id)
	delete(g.nodeSeq, id)
	delete(g.adj, id)
}

// Node returns the node with the given id. The pointer refers to the node
// stored in the graph.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasEdge reports whether u and v are connected.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.edges[keyOf(u, v)]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	ids := slices.SortedFunc(maps.Keys(g.nodes), func(a, b int) int {
		return g.nodeSeq[a] - g.nodeSeq[b]
	})
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	keys := slices.SortedFunc(maps.Keys(g.edges), func(a, b edgeKey) int {
		return g.edgeSeq[a] - g.edgeSeq[b]
	})
	out := make([]Edge, len(keys))
	for i, k := range keys {
		out[i] = g.edges[k]
	}
	return out
}

// Neighbors returns the ids adjacent to id, ordered by edge insertion.
func (g *Graph) Neighbors(id int) []int {
	return slices.SortedFunc(maps.Keys(g.adj[id]), func(a, b int) int {
		return g.edgeSeq[keyOf(id, a)] - g.edgeSeq[keyOf(id, b)]
	})
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id int) int { return len(g.adj[id]) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// MaxNodeID returns the largest node id, or 0 for an empty graph.
func (g *Graph) MaxNodeID() int {
	m := 0
	for id := range g.nodes {
		m = max(m, id)
	}
	return m
}

// Clone returns a deep copy of g with the same insertion order.
func (g *Graph) Clone() *Graph {
	out := New(g.ID, g.Name)
	if g.Color != nil {
		c := *g.Color
		out.Color = &c
	}
	for _, n := range g.Nodes() {
		cp := n.Attributes()
		cp.Meta = maps.Clone(n.Meta)
		if c := n.Comments(); c != nil {
			cp.Meta[MetaComment] = slices.Clone(c)
		}
		_ = out.AddNode(cp)
	}
	for _, e := range g.Edges() {
		_ = out.AddEdge(e.Source, e.Target)
	}
	return out
}

// relabel returns a mapping from current node ids to next, next+1, ... in
// insertion order, and the first id not handed out.
func (g *Graph) relabel(next int) (map[int]int, int) {
	m := make(map[int]int, len(g.nodes))
	for _, n := range g.Nodes() {
		m[n.ID] = next
		next++
	}
	return m, next
}

// Renumber rewrites node ids to next, next+1, ... in insertion order and
// returns the first unused id. Comment and branchpoint records follow their
// nodes.
func (g *Graph) Renumber(next int) int {
	mapping, after := g.relabel(next)
	nodes := g.Nodes()
	edges := g.Edges()

	*g = *rebuilt(g)
	for _, n := range nodes {
		n.ID = mapping[n.ID]
		retarget(n)
		_ = g.AddNode(*n)
	}
	for _, e := range edges {
		_ = g.AddEdge(mapping[e.Source], mapping[e.Target])
	}
	return after
}

func rebuilt(g *Graph) *Graph {
	out := New(g.ID, g.Name)
	out.Color = g.Color
	return out
}

// retarget points the node's comment and branchpoint records at its
// current id.
func retarget(n *Node) {
	if cs := n.Comments(); cs != nil {
		out := make([]nml.Comment, len(cs))
		for i, c := range cs {
			out[i] = nml.Comment{Node: n.ID, Content: c.Content}
		}
		n.Meta[MetaComment] = out
	}
	if b, ok := n.Branchpoint(); ok {
		n.Meta[MetaBranchpoint] = nml.Branchpoint{ID: n.ID, Time: b.Time}
	}
}
