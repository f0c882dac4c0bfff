package cli

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/pipeline"
)

// errRoundTrip reports a document that does not survive write and reparse.
var errRoundTrip = errors.New("round trip mismatch")

// checkReport is the outcome of checking one file.
type checkReport struct {
	Path     string
	Format   string
	Trees    int
	Nodes    int
	Duration time.Duration
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Verify that annotations survive a write/parse round trip",
		Long: `Parse each file, write it back as NML, and parse the result again.

The check fails if the reparsed document differs from the original, or if
writing it a second time does not reproduce the first output byte for byte.
Use "-" to read from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			failed := 0
			for _, path := range args {
				report, err := checkFile(cmd, path)
				if err != nil {
					failed++
					printError("%s: %s", path, wkerrors.UserMessage(err))
					logger.Debug("check failed", "path", path, "error", err)
					continue
				}
				printSuccess("%s", report.Path)
				printDetail("%s · %d trees · %d nodes · %s", report.Format, report.Trees, report.Nodes, report.Duration.Round(time.Millisecond))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed the check", failed, len(args))
			}
			return nil
		},
	}
}

// checkFile runs the round trip on one file.
func checkFile(cmd *cobra.Command, path string) (checkReport, error) {
	start := time.Now()
	data, err := readInput(cmd, path)
	if err != nil {
		return checkReport{}, err
	}
	first, format, err := pipeline.Decode(data, inputFormat(path))
	if err != nil {
		return checkReport{}, err
	}
	if err := checkRoundTrip(first); err != nil {
		return checkReport{}, err
	}

	stats := nml.Stats(first)
	return checkReport{
		Path:     path,
		Format:   format,
		Trees:    stats.Trees,
		Nodes:    stats.Nodes,
		Duration: time.Since(start),
	}, nil
}

// checkRoundTrip writes n, reparses it and compares both the document and
// the second serialization.
func checkRoundTrip(n nml.NML) error {
	out, err := nml.Marshal(n)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	second, err := nml.Parse(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	if !nml.Equal(n, second) {
		return fmt.Errorf("%w: reparsed document differs", errRoundTrip)
	}
	again, err := nml.Marshal(second)
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}
	if !bytes.Equal(out, again) {
		return fmt.Errorf("%w: second write differs from the first", errRoundTrip)
	}
	return nil
}
