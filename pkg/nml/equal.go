package nml

// Equal reports whether a and b hold the same annotation. Optional fields
// are compared by presence and value; a nil slice equals an empty one.
func Equal(a, b NML) bool {
	if !a.Parameters.Equal(b.Parameters) {
		return false
	}
	if !sliceEqual(a.Trees, b.Trees, Tree.Equal) {
		return false
	}
	if !sliceEqual(a.Branchpoints, b.Branchpoints, func(x, y Branchpoint) bool {
		return x.ID == y.ID && ptrEqual(x.Time, y.Time)
	}) {
		return false
	}
	if !sliceEqual(a.Comments, b.Comments, func(x, y Comment) bool {
		return x.Node == y.Node && ptrEqual(x.Content, y.Content)
	}) {
		return false
	}
	if !sliceEqual(a.Groups, b.Groups, Group.Equal) {
		return false
	}
	if (a.Volume == nil) != (b.Volume == nil) {
		return false
	}
	if a.Volume != nil {
		va, vb := a.Volume, b.Volume
		if va.ID != vb.ID || va.Location != vb.Location || !ptrEqual(va.FallbackLayer, vb.FallbackLayer) {
			return false
		}
	}
	return true
}

// Equal reports whether p and o are identical.
func (p Parameters) Equal(o Parameters) bool {
	return p.Name == o.Name &&
		p.Scale == o.Scale &&
		ptrEqual(p.Offset, o.Offset) &&
		ptrEqual(p.Time, o.Time) &&
		ptrEqual(p.EditPosition, o.EditPosition) &&
		ptrEqual(p.EditRotation, o.EditRotation) &&
		ptrEqual(p.ZoomLevel, o.ZoomLevel) &&
		ptrEqual(p.TaskBoundingBox, o.TaskBoundingBox) &&
		ptrEqual(p.UserBoundingBox, o.UserBoundingBox)
}

// Equal reports whether t and o are identical, including node and edge order.
func (t Tree) Equal(o Tree) bool {
	return t.ID == o.ID &&
		t.Color == o.Color &&
		t.Name == o.Name &&
		ptrEqual(t.GroupID, o.GroupID) &&
		sliceEqual(t.Nodes, o.Nodes, Node.Equal) &&
		sliceEqual(t.Edges, o.Edges, func(x, y Edge) bool { return x == y })
}

// Equal reports whether nd and o are identical.
func (nd Node) Equal(o Node) bool {
	return nd.ID == o.ID &&
		nd.Position == o.Position &&
		ptrEqual(nd.Radius, o.Radius) &&
		ptrEqual(nd.Rotation, o.Rotation) &&
		ptrEqual(nd.InVp, o.InVp) &&
		ptrEqual(nd.InMag, o.InMag) &&
		ptrEqual(nd.BitDepth, o.BitDepth) &&
		ptrEqual(nd.Interpolation, o.Interpolation) &&
		ptrEqual(nd.Time, o.Time)
}

// Equal reports whether g and o describe the same subtree.
func (g Group) Equal(o Group) bool {
	return g.ID == o.ID && g.Name == o.Name && sliceEqual(g.Children, o.Children, Group.Equal)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sliceEqual[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}
