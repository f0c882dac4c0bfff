package nml

// Vec3 is a three component vector (positions, rotations, scale factors).
type Vec3 [3]float64

// Color is an RGBA color with components in the range [0, 1].
type Color [4]float64

// DefaultColor is assigned to trees whose source carries no color attributes.
var DefaultColor = Color{0, 0, 0, 1}

// BoundingBox is an axis aligned integer box given by its top-left corner
// and its extent.
type BoundingBox struct {
	TopLeftX int `json:"topLeftX"`
	TopLeftY int `json:"topLeftY"`
	TopLeftZ int `json:"topLeftZ"`
	Width    int `json:"width"`
	Height   int `json:"height"`
	Depth    int `json:"depth"`
}

// Parameters holds the document level settings of an annotation.
//
// Name and Scale are required. Every pointer field is optional: nil means
// the corresponding tag is absent from the file and will not be written.
type Parameters struct {
	Name            string       `json:"name"`
	Scale           Vec3         `json:"scale"`
	Offset          *Vec3        `json:"offset,omitempty"`
	Time            *int64       `json:"time,omitempty"`
	EditPosition    *Vec3        `json:"editPosition,omitempty"`
	EditRotation    *Vec3        `json:"editRotation,omitempty"`
	ZoomLevel       *float64     `json:"zoomLevel,omitempty"`
	TaskBoundingBox *BoundingBox `json:"taskBoundingBox,omitempty"`
	UserBoundingBox *BoundingBox `json:"userBoundingBox,omitempty"`
}

// Node is a single skeleton point. IDs are unique within the owning tree
// only; different trees of one document may reuse ids.
type Node struct {
	ID            int      `json:"id"`
	Position      Vec3     `json:"position"`
	Radius        *float64 `json:"radius,omitempty"`
	Rotation      *Vec3    `json:"rotation,omitempty"`
	InVp          *int     `json:"inVp,omitempty"`
	InMag         *int     `json:"inMag,omitempty"`
	BitDepth      *int     `json:"bitDepth,omitempty"`
	Interpolation *bool    `json:"interpolation,omitempty"`
	Time          *int64   `json:"time,omitempty"`
}

// Edge connects two nodes of the same tree. Edges are undirected; Source
// and Target are kept apart so output order is stable.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Tree is one skeleton ("thing" in the file format). A nil GroupID means
// the tree is not part of any group.
type Tree struct {
	ID      int    `json:"id"`
	Color   Color  `json:"color"`
	Name    string `json:"name"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
	GroupID *int   `json:"groupId,omitempty"`
}

// WithNodes returns a copy of t with its nodes replaced.
func (t Tree) WithNodes(nodes []Node) Tree {
	t.Nodes = nodes
	return t
}

// WithEdges returns a copy of t with its edges replaced.
func (t Tree) WithEdges(edges []Edge) Tree {
	t.Edges = edges
	return t
}

// Group organizes trees hierarchically. Groups form a forest: each group
// owns its children and is never shared between parents.
type Group struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Children []Group `json:"children,omitempty"`
}

// Branchpoint marks a node id as a branch point.
type Branchpoint struct {
	ID   int    `json:"id"`
	Time *int64 `json:"time,omitempty"`
}

// Comment attaches text to a node id.
type Comment struct {
	Node    int     `json:"node"`
	Content *string `json:"content,omitempty"`
}

// Volume references a volume annotation stored next to the skeleton.
type Volume struct {
	ID            int     `json:"id"`
	Location      string  `json:"location"`
	FallbackLayer *string `json:"fallbackLayer,omitempty"`
}

// NML is the root aggregate of one skeleton annotation file.
//
// Values returned by [Parse] are never mutated by this module. Code that
// derives a modified annotation uses the With* helpers, which return a
// shallow copy with one field replaced, or [NML.Clone] for a deep copy.
type NML struct {
	Parameters   Parameters    `json:"parameters"`
	Trees        []Tree        `json:"trees"`
	Branchpoints []Branchpoint `json:"branchpoints"`
	Comments     []Comment     `json:"comments"`
	Groups       []Group       `json:"groups"`
	Volume       *Volume       `json:"volume,omitempty"`
}

// WithParameters returns a copy of n with its parameters replaced.
func (n NML) WithParameters(p Parameters) NML {
	n.Parameters = p
	return n
}

// WithTrees returns a copy of n with its trees replaced.
func (n NML) WithTrees(trees []Tree) NML {
	n.Trees = trees
	return n
}

// WithBranchpoints returns a copy of n with its branchpoints replaced.
func (n NML) WithBranchpoints(bps []Branchpoint) NML {
	n.Branchpoints = bps
	return n
}

// WithComments returns a copy of n with its comments replaced.
func (n NML) WithComments(comments []Comment) NML {
	n.Comments = comments
	return n
}

// WithGroups returns a copy of n with its group forest replaced.
func (n NML) WithGroups(groups []Group) NML {
	n.Groups = groups
	return n
}

// Ptr returns a pointer to v. It is a convenience for filling optional fields.
func Ptr[T any](v T) *T { return &v }

// Clone returns a deep copy of n that shares no memory with the original.
func (n NML) Clone() NML {
	out := NML{
		Parameters: n.Parameters.clone(),
		Trees:      make([]Tree, len(n.Trees)),
		Groups:     cloneGroups(n.Groups),
	}
	for i, t := range n.Trees {
		out.Trees[i] = t.Clone()
	}
	if n.Branchpoints != nil {
		out.Branchpoints = make([]Branchpoint, len(n.Branchpoints))
		for i, b := range n.Branchpoints {
			out.Branchpoints[i] = Branchpoint{ID: b.ID, Time: clonePtr(b.Time)}
		}
	}
	if n.Comments != nil {
		out.Comments = make([]Comment, len(n.Comments))
		for i, c := range n.Comments {
			out.Comments[i] = Comment{Node: c.Node, Content: clonePtr(c.Content)}
		}
	}
	if n.Volume != nil {
		v := *n.Volume
		v.FallbackLayer = clonePtr(v.FallbackLayer)
		out.Volume = &v
	}
	return out
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	out := t
	out.GroupID = clonePtr(t.GroupID)
	out.Nodes = make([]Node, len(t.Nodes))
	for i, nd := range t.Nodes {
		out.Nodes[i] = nd.Clone()
	}
	out.Edges = append([]Edge(nil), t.Edges...)
	return out
}

// Clone returns a deep copy of nd.
func (nd Node) Clone() Node {
	out := nd
	out.Radius = clonePtr(nd.Radius)
	out.Rotation = clonePtr(nd.Rotation)
	out.InVp = clonePtr(nd.InVp)
	out.InMag = clonePtr(nd.InMag)
	out.BitDepth = clonePtr(nd.BitDepth)
	out.Interpolation = clonePtr(nd.Interpolation)
	out.Time = clonePtr(nd.Time)
	return out
}

func (p Parameters) clone() Parameters {
	out := p
	out.Offset = clonePtr(p.Offset)
	out.Time = clonePtr(p.Time)
	out.EditPosition = clonePtr(p.EditPosition)
	out.EditRotation = clonePtr(p.EditRotation)
	out.ZoomLevel = clonePtr(p.ZoomLevel)
	out.TaskBoundingBox = clonePtr(p.TaskBoundingBox)
	out.UserBoundingBox = clonePtr(p.UserBoundingBox)
	return out
}

func cloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{ID: g.ID, Name: g.Name, Children: cloneGroups(g.Children)}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FlattenGroups returns every group of the forest in pre-order. The
// returned groups carry no children.
func FlattenGroups(groups []Group) []Group {
	var out []Group
	var walk func([]Group)
	walk = func(gs []Group) {
		for _, g := range gs {
			out = append(out, Group{ID: g.ID, Name: g.Name})
			walk(g.Children)
		}
	}
	walk(groups)
	return out
}
