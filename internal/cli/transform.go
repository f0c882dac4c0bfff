package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/pipeline"
)

// transformOpts holds the command-line flags for the transform command.
type transformOpts struct {
	output  string
	to      string
	scale   string // comma separated merge scale, e.g. "11.24,11.24,25"
	noCache bool
	opts    pipeline.Options
}

// transformCommand creates the transform command.
//
// Transforms run in a fixed order: split, max edge length, simplify, merge.
// Values from the [transform] section of the config apply to flags that
// are not given.
func (c *CLI) transformCommand() *cobra.Command {
	var t transformOpts

	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Split, subdivide, simplify or merge skeleton trees",
		Example: `  wknml transform tracing.nml --split --reglobalize -o fixed.nml
  wknml transform tracing.nml --max-edge-length 50
  wknml transform tracing.nml --simplify-length 200 --simplify-angle 0.1
  wknml transform tracing.nml --merge --scale 11.24,11.24,25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.transformOptions(cmd, &t); err != nil {
				return err
			}
			return c.runTransform(cmd, args[0], &t)
		},
	}

	cmd.Flags().StringVarP(&t.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&t.to, "to", "", "output format: nml or json (default from -o, then nml)")
	cmd.Flags().BoolVar(&t.opts.Split, "split", false, "split trees into connected components")
	cmd.Flags().Float64Var(&t.opts.MaxEdgeLength, "max-edge-length", 0, "subdivide edges longer than this (voxels)")
	cmd.Flags().Float64Var(&t.opts.SimplifyLength, "simplify-length", 0, "remove degree-2 nodes while the joined edge stays below this (voxels)")
	cmd.Flags().Float64Var(&t.opts.SimplifyAngle, "simplify-angle", 0, "maximum bend in radians a removed node may straighten (default 0.1)")
	cmd.Flags().BoolVar(&t.opts.Merge, "merge", false, "merge trees of each group into one tree by nearest nodes")
	cmd.Flags().StringVar(&t.scale, "scale", "", "merge distance scale x,y,z (default: dataset scale)")
	cmd.Flags().BoolVar(&t.opts.Reglobalize, "reglobalize", false, "renumber trees and nodes into contiguous ranges")
	cmd.Flags().Uint64Var(&t.opts.Seed, "seed", 0, "random seed for colors of uncolored trees")
	cmd.Flags().BoolVar(&t.noCache, "no-cache", false, "disable caching")

	return cmd
}

// transformOptions merges flags with config defaults and validates them.
func (c *CLI) transformOptions(cmd *cobra.Command, t *transformOpts) error {
	c.Config.applyTransformDefaults(&t.opts, cmd.Flags().Changed)
	if t.scale != "" {
		s, err := wkerrors.ParseTriple("scale", t.scale)
		if err != nil {
			return err
		}
		t.opts.Scale = nml.Vec3(s)
	}

	t.opts.OutputFormat = t.to
	if t.opts.OutputFormat == "" {
		t.opts.OutputFormat = outputFormat(t.output)
	}
	if err := t.opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if !t.opts.HasTransforms() {
		return fmt.Errorf("no transform selected (use --split, --max-edge-length, --simplify-length, --merge or --reglobalize)")
	}
	return nil
}

func (c *CLI) runTransform(cmd *cobra.Command, input string, t *transformOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, t.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}
	t.opts.InputFormat = inputFormat(input)
	t.opts.Logger = logger

	prog := newProgress(logger, input)
	result, err := runner.Execute(ctx, data, t.opts)
	if err != nil {
		return err
	}
	prog.done("Transformed", result.Stats.Trees, result.Stats.Nodes)
	logChanges(logger, result.Changes)

	if err := writeOutput(cmd, t.output, result.Output); err != nil {
		return err
	}
	if t.output != "" {
		printSuccess("Wrote %s", t.output)
		printSummary(result.Stats.Trees, result.Stats.Nodes, result.Changes, result.CacheInfo.TransformHit)
		printNextStep("Inspect", "wknml info "+t.output)
	}
	return nil
}
