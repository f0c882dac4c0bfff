// Package skeleton provides a mutable graph view of NML annotations.
//
// # Overview
//
// The nml package models an annotation as immutable records. Graph
// algorithms such as edge subdivision or tree merging are easier to write
// against adjacency structures, so this package converts each tree into an
// undirected attribute [Graph] and back:
//
//	gg, params, err := skeleton.ToGraph(n)
//	if err != nil {
//	    return err
//	}
//	// mutate gg, e.g. with the [transform] subpackage
//	out := skeleton.FromGraph(gg, params, true)
//
// # Buckets
//
// [ToGraph] flattens the group forest and buckets the tree graphs by group
// name ([GroupedGraphs]). Only names survive; the hierarchy is lost in this
// direction and [FromGraph] synthesizes a flat group list from the bucket
// names.
//
// # Node Metadata
//
// Node attributes that are part of the format are plain struct fields.
// Document level comments and branchpoints are projected onto nodes and
// kept in [Node.Meta] under [MetaComment] and [MetaBranchpoint], so they
// follow their node through transforms and renumbering.
//
// # Reglobalization
//
// Transforms may introduce node ids that collide across trees. Passing
// reglobalize to FromGraph renumbers trees and nodes into contiguous
// 1-based ranges. The counter is threaded through the conversion as a plain
// value; there is no package level state.
//
// [transform]: github.com/scalableminds/wknml/pkg/skeleton/transform
package skeleton
