package nml

import "math"

// Statistics summarizes an annotation.
type Statistics struct {
	Name         string      `json:"name" yaml:"name"`
	Trees        int         `json:"trees" yaml:"trees"`
	Nodes        int         `json:"nodes" yaml:"nodes"`
	Edges        int         `json:"edges" yaml:"edges"`
	Groups       int         `json:"groups" yaml:"groups"`
	GroupDepth   int         `json:"groupDepth" yaml:"groupDepth"`
	Branchpoints int         `json:"branchpoints" yaml:"branchpoints"`
	Comments     int         `json:"comments" yaml:"comments"`
	Bounds       *Bounds     `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	PerTree      []TreeStats `json:"perTree" yaml:"perTree"`
}

// Bounds is the axis aligned box spanned by all node positions.
type Bounds struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

// TreeStats summarizes one tree. Length is the sum of its edge lengths in
// physical units, i.e. with positions multiplied by the dataset scale.
type TreeStats struct {
	ID      int     `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Nodes   int     `json:"nodes" yaml:"nodes"`
	Edges   int     `json:"edges" yaml:"edges"`
	GroupID *int    `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Length  float64 `json:"length" yaml:"length"`
}

// Stats computes summary statistics for n.
func Stats(n NML) Statistics {
	s := Statistics{
		Name:         n.Parameters.Name,
		Trees:        len(n.Trees),
		Groups:       len(FlattenGroups(n.Groups)),
		GroupDepth:   groupDepth(n.Groups),
		Branchpoints: len(n.Branchpoints),
		Comments:     len(n.Comments),
		PerTree:      make([]TreeStats, 0, len(n.Trees)),
	}

	for _, t := range n.Trees {
		s.Nodes += len(t.Nodes)
		s.Edges += len(t.Edges)
		s.PerTree = append(s.PerTree, TreeStats{
			ID:      t.ID,
			Name:    t.Name,
			Nodes:   len(t.Nodes),
			Edges:   len(t.Edges),
			GroupID: t.GroupID,
			Length:  treeLength(t, n.Parameters.Scale),
		})
		for _, nd := range t.Nodes {
			s.Bounds = s.Bounds.extend(nd.Position)
		}
	}
	return s
}

func (b *Bounds) extend(p Vec3) *Bounds {
	if b == nil {
		return &Bounds{Min: p, Max: p}
	}
	for i := range p {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

func groupDepth(groups []Group) int {
	depth := 0
	for _, g := range groups {
		depth = max(depth, 1+groupDepth(g.Children))
	}
	return depth
}

func treeLength(t Tree, scale Vec3) float64 {
	pos := make(map[int]Vec3, len(t.Nodes))
	for _, nd := range t.Nodes {
		pos[nd.ID] = nd.Position
	}
	var total float64
	for _, e := range t.Edges {
		a, okA := pos[e.Source]
		b, okB := pos[e.Target]
		if !okA || !okB {
			continue
		}
		total += Distance(a, b, scale)
	}
	return total
}

// Distance returns the euclidean distance between a and b after scaling
// each axis by the matching component of scale.
func Distance(a, b, scale Vec3) float64 {
	var sum float64
	for i := range a {
		d := (a[i] - b[i]) * scale[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
