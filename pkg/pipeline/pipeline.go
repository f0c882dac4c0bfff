// Package pipeline runs the load → transform → write sequence shared by the
// CLI and the HTTP API.
//
// # Stages
//
//  1. Load: parse NML XML or the JSON encoding. Parsed documents are cached
//     by content hash, so repeated requests for the same upload skip the
//     XML lexer.
//  2. Transform: convert to the graph view and apply, in this order,
//     component splitting, maximum edge length subdivision, simplification
//     and group-wise merging, then convert back, optionally renumbering
//     all ids. Results are cached by content hash and options.
//  3. Write: serialize to NML or JSON.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    MaxEdgeLength: 50,
//	    Reglobalize:   true,
//	}
//	result, err := runner.Execute(ctx, data, opts)
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Output)
//
// Stages can also be run on their own:
//
//	n, err := runner.Load(ctx, data, pipeline.FormatNML)
//	out, changes, err := runner.Transform(ctx, n, opts)
package pipeline

import (
	"bytes"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/scalableminds/wknml/pkg/cache"
	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
)

// Document encodings.
const (
	FormatNML  = "nml"
	FormatJSON = "json"
)

// ValidFormats is the set of supported document encodings.
var ValidFormats = map[string]bool{
	FormatNML:  true,
	FormatJSON: true,
}

// DefaultSimplifyAngle is used when simplification is requested without an
// angle threshold. It is in radians.
const DefaultSimplifyAngle = 0.1

// Options configures a pipeline run. Zero values disable the respective
// transform. The struct doubles as the JSON body of API requests.
type Options struct {
	// InputFormat is detected from the content when empty.
	InputFormat string `json:"input_format,omitempty"`
	// OutputFormat defaults to FormatNML.
	OutputFormat string `json:"output_format,omitempty"`

	Split          bool    `json:"split,omitempty"`
	MaxEdgeLength  float64 `json:"max_edge_length,omitempty"`
	SimplifyLength float64 `json:"simplify_length,omitempty"`
	SimplifyAngle  float64 `json:"simplify_angle,omitempty"`
	Merge          bool    `json:"merge,omitempty"`
	// Scale weights the merge distance per axis. Zero means the dataset
	// scale from the document parameters.
	Scale       nml.Vec3 `json:"scale,omitzero"`
	Reglobalize bool     `json:"reglobalize,omitempty"`

	// Seed makes colors of uncolored trees reproducible. Zero uses the
	// global random source.
	Seed uint64 `json:"seed,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result is the outcome of [Runner.Execute].
type Result struct {
	NML       nml.NML
	Output    []byte
	Stats     nml.Statistics
	Changes   Changes
	CacheInfo CacheInfo
}

// Changes counts what the transforms did.
type Changes struct {
	SplitTrees   int `json:"split_trees"`
	AddedNodes   int `json:"added_nodes"`
	RemovedNodes int `json:"removed_nodes"`
	MergedTrees  int `json:"merged_trees"`
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	ParseHit     bool `json:"parse_hit"`
	TransformHit bool `json:"transform_hit"`
}

// ValidateFormat checks that format is a supported encoding.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return wkerrors.New(wkerrors.ErrCodeInvalidFormat, "unsupported format %q (want nml or json)", format)
	}
	return nil
}

// DetectFormat guesses the encoding from the first non-blank byte.
func DetectFormat(data []byte) (string, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	switch {
	case len(trimmed) == 0:
		return "", wkerrors.New(wkerrors.ErrCodeInvalidInput, "empty document")
	case trimmed[0] == '<':
		return FormatNML, nil
	case trimmed[0] == '{':
		return FormatJSON, nil
	}
	return "", wkerrors.New(wkerrors.ErrCodeInvalidFormat, "cannot detect document format")
}

// ValidateAndSetDefaults checks the thresholds and fills in defaults. It is
// idempotent. InputFormat may stay empty; it is resolved per document.
func (o *Options) ValidateAndSetDefaults() error {
	if o.InputFormat != "" {
		if err := ValidateFormat(o.InputFormat); err != nil {
			return err
		}
	}
	if o.OutputFormat == "" {
		o.OutputFormat = FormatNML
	}
	if err := ValidateFormat(o.OutputFormat); err != nil {
		return err
	}

	if o.MaxEdgeLength != 0 {
		if err := wkerrors.ValidatePositive("max_edge_length", o.MaxEdgeLength); err != nil {
			return err
		}
	}
	if o.SimplifyLength != 0 {
		if err := wkerrors.ValidatePositive("simplify_length", o.SimplifyLength); err != nil {
			return err
		}
		if o.SimplifyAngle == 0 {
			o.SimplifyAngle = DefaultSimplifyAngle
		}
		if err := wkerrors.ValidateAngle("simplify_angle", o.SimplifyAngle); err != nil {
			return err
		}
	} else if o.SimplifyAngle != 0 {
		return wkerrors.New(wkerrors.ErrCodeInvalidInput, "simplify_angle requires simplify_length")
	}
	if o.Scale != (nml.Vec3{}) {
		for i, v := range o.Scale {
			if err := wkerrors.ValidatePositive(fmt.Sprintf("scale[%d]", i), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasTransforms reports whether any transform or renumbering is requested.
func (o *Options) HasTransforms() bool {
	return o.Split || o.MaxEdgeLength > 0 || o.SimplifyLength > 0 || o.Merge || o.Reglobalize
}

// TransformKeyOpts returns the options that identify a transform result.
func (o *Options) TransformKeyOpts() cache.TransformKeyOpts {
	return cache.TransformKeyOpts{
		Split:          o.Split,
		MaxEdgeLength:  o.MaxEdgeLength,
		SimplifyLength: o.SimplifyLength,
		SimplifyAngle:  o.SimplifyAngle,
		Merge:          o.Merge,
		Scale:          o.Scale,
		Reglobalize:    o.Reglobalize,
		Seed:           o.Seed,
	}
}

func (o *Options) rng() *rand.Rand {
	if o.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(o.Seed, o.Seed))
}
