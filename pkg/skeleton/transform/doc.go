// Package transform provides graph transformations over the skeleton graph
// view.
//
// # Overview
//
// Every function in this package works on [skeleton.GroupedGraphs] and
// mutates the graphs in place. Callers that need the original afterwards
// should [skeleton.GroupedGraphs.Clone] first. Positions are used as stored;
// only [MergeNearest] applies a physical scale.
//
// # Edge Subdivision
//
// [EnsureMaxEdgeLength] breaks every edge longer than a threshold into a
// chain of equally long segments:
//
//	Before: 1 ────────── 2        (length 10, max 2)
//	After:  1 ─ 3 ─ 4 ─ 5 ─ 6 ─ 2 (four interior nodes)
//
// Interior nodes take their attributes from the first endpoint and get ids
// from one counter shared by all trees, seeded above the largest existing
// id, so no two trees receive the same new id.
//
// # Simplification
//
// [ApproximateMinimalEdgeLength] removes nearly collinear degree-2 nodes
// whose neighbors are close together. Candidates are fixed before the first
// removal; nodes that only reach degree 2 as a result of a removal are not
// considered in the same call.
//
// # Merging and Splitting
//
// [MergeNearest] joins all trees of a group into one by repeatedly attaching
// the smallest tree to its nearest neighbor. [SplitComponents] does the
// opposite for trees that are not connected, turning each connected
// component into a tree of its own.
//
// # Annotation Helpers
//
// Each graph transform has a counterpart operating on a whole nml.NML that
// converts to the graph view, applies the transform and converts back
// without renumbering.
package transform
