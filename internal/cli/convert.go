package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/pipeline"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output  string
		to      string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Re-serialize an annotation as canonical NML or JSON",
		Long: `Read an annotation and write it in canonical form.

The input format follows the file extension (.nml or .json) and falls back
to content detection. The output format defaults to the extension of -o,
then to NML.`,
		Example: `  wknml convert tracing.nml -o tracing.json
  wknml convert tracing.json --to nml > tracing.nml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = outputFormat(output)
			}
			if err := pipeline.ValidateFormat(to); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			result, err := runner.Execute(cmd.Context(), data, pipeline.Options{
				InputFormat:  inputFormat(args[0]),
				OutputFormat: to,
			})
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, output, result.Output); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Converted %s", args[0])
				printSummary(result.Stats.Trees, result.Stats.Nodes, pipeline.Changes{}, result.CacheInfo.ParseHit)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&to, "to", "", "output format: nml or json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// outputFormat derives the document encoding from an output path.
func outputFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return pipeline.FormatJSON
	}
	return pipeline.FormatNML
}
