// Package io provides JSON import and export for NML annotations.
//
// # Overview
//
// The XML format is the interchange format of webKnossos. This package
// offers a second, lossless encoding of the same [nml.NML] value as JSON.
// It is used for:
//
//   - Cache entries of parsed annotations (compact, fast to decode)
//   - The `convert --to json` command and the HTTP convert endpoint
//   - Integration with tools that prefer JSON over XML
//
// # JSON Format
//
// The JSON shape follows the field tags of the nml types:
//
//	{
//	  "parameters": {"name": "cortex", "scale": [11.24, 11.24, 25]},
//	  "trees": [
//	    {
//	      "id": 1, "color": [1, 0, 0, 1], "name": "axon",
//	      "nodes": [{"id": 1, "position": [0, 0, 0], "radius": 2}],
//	      "edges": []
//	    }
//	  ],
//	  "branchpoints": [],
//	  "comments": [{"node": 1, "content": "soma"}],
//	  "groups": [{"id": 1, "name": "cells", "children": []}]
//	}
//
// Optional fields are omitted when absent and stay absent after import,
// so converting XML → JSON → XML reproduces the original document.
//
// # Import
//
// Use [ImportJSON] to read from a file path, or [ReadJSON] to read from any
// io.Reader. Decoding errors carry the errors.ErrCodeInvalidFormat code.
//
// # Export
//
// Use [ExportJSON] to write to a file, or [WriteJSON] to write to any
// io.Writer. [MarshalJSON] produces the compact form used by the cache.
//
// [nml.NML]: github.com/scalableminds/wknml/pkg/nml.NML
package io
