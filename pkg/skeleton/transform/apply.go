package transform

import (
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// apply runs fn on the graph view of n and converts the result back
// without renumbering. The volume reference is carried over unchanged.
func apply(n nml.NML, fn func(skeleton.GroupedGraphs) error) (nml.NML, error) {
	gg, params, err := skeleton.ToGraph(n)
	if err != nil {
		return nml.NML{}, err
	}
	if err := fn(gg); err != nil {
		return nml.NML{}, err
	}
	out := skeleton.FromGraph(gg, params, false)
	if n.Volume != nil {
		out.Volume = n.Clone().Volume
	}
	return out, nil
}
