// Package render draws skeleton annotations with Graphviz.
//
// # Overview
//
// Each tree becomes an undirected cluster of small filled circles in the
// tree's color. Node positions are projected onto one of the axis planes
// and pinned, so the drawing shows the actual shape of the tracing rather
// than a computed layout. Trees in the same group share a cluster box
// labeled with the group name.
//
// # Usage
//
//	gg, params, err := skeleton.ToGraph(n)
//	dot := render.ToDOT(gg, params, render.Options{Plane: render.PlaneXY})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [Render] wraps these steps and selects the output by format name:
//
//	png, err := render.Render(ctx, n, render.FormatPNG, render.Options{})
//
// # Annotations
//
// Branchpoints are drawn larger with a double outline. Comments become
// external labels next to their node.
//
// # Dependencies
//
// Layout and rasterization run in-process through
// [github.com/goccy/go-graphviz]; no Graphviz installation is required.
package render
