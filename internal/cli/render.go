package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file path (derived from the input if empty)
	format  string  // output format: "svg", "png" or "dot"
	plane   string  // projection plane: "xy", "xz" or "yz"
	width   float64 // extent of the longer side in points
	labels  bool    // draw node ids
	trees   []int   // restrict to these tree ids
	noCache bool
}

// renderCommand creates the render command for drawing skeletons.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: render.FormatSVG, plane: string(render.PlaneXY)}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw skeleton trees as SVG, PNG or Graphviz DOT",
		Long: `Draw the trees of an annotation projected onto one plane.

Node positions are scaled by the dataset scale and pinned, so the drawing
keeps the physical proportions of the tracing. Each group becomes a
Graphviz cluster; branchpoints are drawn with a double outline and
comments as external labels.`,
		Example: `  wknml render tracing.nml
  wknml render tracing.nml --format png --plane xz -o tracing.png
  wknml render tracing.nml --tree 3 --tree 7 --labels`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !render.ValidFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'svg', 'png' or 'dot')", opts.format)
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, png or dot")
	cmd.Flags().StringVar(&opts.plane, "plane", opts.plane, "projection plane: xy, xz or yz")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "size of the longer side in points (default 800)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "draw node ids")
	cmd.Flags().IntSliceVar(&opts.trees, "tree", nil, "only draw these tree ids (repeatable)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ropts := render.Options{
		Plane:  render.Plane(strings.ToLower(opts.plane)),
		Width:  opts.width,
		Labels: opts.labels,
		Trees:  opts.trees,
	}
	if err := ropts.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	n, err := loadDocument(cmd, runner, input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s: %d trees", input, len(n.Trees))

	var data []byte
	if opts.format == render.FormatDOT {
		data, err = render.Render(ctx, n, opts.format, ropts)
	} else {
		spinner := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s of %s...", strings.ToUpper(opts.format), plural(len(n.Trees), "tree")))
		spinner.Start()
		data, err = render.Render(ctx, n, opts.format, ropts)
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	logger.Debugf("Generated %s: %d bytes", opts.format, len(data))

	path := renderPath(opts.output, input, opts.format)
	if err := writeOutput(cmd, path, data); err != nil {
		return err
	}
	if path != "" {
		printSuccess("Rendered %s", input)
		printFile(path)
	}
	return nil
}

// renderPath derives the output path. Without -o the input name gets the
// format extension; standard input renders to standard output.
func renderPath(output, input, format string) string {
	if output != "" || input == stdinPath {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}
