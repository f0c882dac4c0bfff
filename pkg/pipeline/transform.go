package pipeline

import (
	"context"
	"time"

	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/observability"
	"github.com/scalableminds/wknml/pkg/skeleton"
	"github.com/scalableminds/wknml/pkg/skeleton/transform"
)

// stage is one graph transform. run returns how many nodes or trees it
// added or removed.
type stage struct {
	name  string
	run   func(gg skeleton.GroupedGraphs) (int, error)
	count func(c *Changes) *int
}

func (o *Options) stages(params nml.Parameters) []stage {
	var out []stage
	if o.Split {
		out = append(out, stage{
			name:  "split",
			run:   func(gg skeleton.GroupedGraphs) (int, error) { return transform.SplitComponents(gg), nil },
			count: func(c *Changes) *int { return &c.SplitTrees },
		})
	}
	if o.MaxEdgeLength > 0 {
		out = append(out, stage{
			name: "max_edge_length",
			run: func(gg skeleton.GroupedGraphs) (int, error) {
				return transform.EnsureMaxEdgeLength(gg, o.MaxEdgeLength)
			},
			count: func(c *Changes) *int { return &c.AddedNodes },
		})
	}
	if o.SimplifyLength > 0 {
		out = append(out, stage{
			name: "simplify",
			run: func(gg skeleton.GroupedGraphs) (int, error) {
				return transform.ApproximateMinimalEdgeLength(gg, o.SimplifyLength, o.SimplifyAngle)
			},
			count: func(c *Changes) *int { return &c.RemovedNodes },
		})
	}
	if o.Merge {
		scale := o.Scale
		if scale == (nml.Vec3{}) {
			scale = params.Scale
		}
		out = append(out, stage{
			name:  "merge",
			run:   func(gg skeleton.GroupedGraphs) (int, error) { return transform.MergeNearest(gg, scale), nil },
			count: func(c *Changes) *int { return &c.MergedTrees },
		})
	}
	return out
}

// applyTransforms runs the requested stages on n. Without any transform or
// renumbering n is returned as is.
func applyTransforms(ctx context.Context, n nml.NML, opts Options) (nml.NML, Changes, error) {
	var changes Changes
	if !opts.HasTransforms() {
		return n, changes, nil
	}

	gg, params, err := skeleton.ToGraph(n)
	if err != nil {
		return nml.NML{}, changes, err
	}

	hooks := observability.Pipeline()
	for _, s := range opts.stages(params) {
		if err := ctx.Err(); err != nil {
			return nml.NML{}, changes, err
		}
		nodes := 0
		for _, g := range gg.Graphs() {
			nodes += g.NodeCount()
		}
		hooks.OnTransformStart(ctx, s.name, nodes)
		start := time.Now()
		changed, err := s.run(gg)
		hooks.OnTransformComplete(ctx, s.name, changed, time.Since(start), err)
		if err != nil {
			return nml.NML{}, changes, err
		}
		*s.count(&changes) = changed
		if opts.Logger != nil {
			opts.Logger.Debug("applied transform", "name", s.name, "changed", changed, "duration", time.Since(start))
		}
	}

	var fromOpts []skeleton.Option
	if r := opts.rng(); r != nil {
		fromOpts = append(fromOpts, skeleton.WithRand(r))
	}
	out := skeleton.FromGraph(gg, params, opts.Reglobalize, fromOpts...)
	if n.Volume != nil {
		v := *n.Volume
		if n.Volume.FallbackLayer != nil {
			v.FallbackLayer = nml.Ptr(*n.Volume.FallbackLayer)
		}
		out.Volume = &v
	}
	return out, changes, nil
}
