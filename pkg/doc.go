// Package pkg provides the libraries behind wknml, a toolkit for webKnossos
// NML skeleton annotations.
//
// # Overview
//
// An NML file describes neuron tracings as trees of nodes and edges,
// organized by a hierarchy of groups. The pkg directory is organized into
// three areas:
//
//  1. Format: [nml] (XML model, parser, writer) and [io] (JSON encoding)
//  2. Graph: [skeleton] (graph view) and [skeleton/transform] (split,
//     subdivide, simplify, merge)
//  3. Infrastructure: [pipeline], [cache], [store], [render], [server]
//     and [observability]
//
// # Architecture
//
// The typical data flow:
//
//	NML XML or JSON
//	      ↓
//	[nml] / [io] package (parse)
//	      ↓
//	[skeleton] package (graph view + transforms)
//	      ↓
//	[nml] / [io] / [render] package (write or draw)
//
// # Quick Start
//
// Subdivide long edges and write the result:
//
//	n, err := nml.ReadFile("tracing.nml")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(nil, nil, nil)
//	out, _, err := runner.Transform(ctx, n, pipeline.Options{MaxEdgeLength: 50})
//	if err != nil {
//	    return err
//	}
//	err = nml.WriteFile("subdivided.nml", out)
//
// # Main Packages
//
// [nml] - Typed model of the format with a lossless round trip: parsing and
// writing a document yields a structurally equal document.
//
// [skeleton] - Converts trees into undirected attribute graphs bucketed by
// group name and back, optionally renumbering all ids.
//
// [pipeline] - Load, transform and write stages shared by the CLI and the
// HTTP API, with content-hash caching of both parse and transform results.
//
// [cache] - Byte caches: null, file (CLI) and Redis (servers).
//
// [store] - Annotation archive in memory or MongoDB.
//
// [render] - Graphviz drawings with node positions projected onto an axis
// plane.
//
// [server] - HTTP API over the pipeline and the archive.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/nml/...        # Specific package
//	go test -run Example         # Examples only
//
// [nml]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/nml
// [io]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/io
// [skeleton]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/skeleton
// [skeleton/transform]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/skeleton/transform
// [pipeline]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/cache
// [store]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/store
// [render]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/render
// [server]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/server
// [observability]: https://pkg.go.dev/github.com/scalableminds/wknml/pkg/observability
package pkg
