package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/pipeline"
	"github.com/scalableminds/wknml/pkg/store"
)

// storeCommand creates the archive management command.
func (c *CLI) storeCommand() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Archive annotations in MongoDB",
		Long: `Push annotations to the MongoDB archive and fetch them back by id.

The connection is taken from the [store] section of the config file or
from --mongo-uri.`,
	}

	cmd.PersistentFlags().StringVar(&uri, "mongo-uri", "", "MongoDB connection string (overrides [store] mongo_uri)")

	cmd.AddCommand(c.storePushCommand(&uri))
	cmd.AddCommand(c.storePullCommand(&uri))
	cmd.AddCommand(c.storeListCommand(&uri))
	cmd.AddCommand(c.storeRemoveCommand(&uri))

	return cmd
}

// storePushCommand creates the "store push" subcommand.
func (c *CLI) storePushCommand(uri *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Archive an annotation and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			n, err := loadDocument(cmd, runner, args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = archiveName(args[0], n.Parameters.Name)
			}

			spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Connecting to archive...")
			spinner.Start()
			s, err := c.openStore(ctx, *uri)
			if err != nil {
				spinner.StopWithError("Archive unavailable")
				return err
			}
			defer s.Close(ctx)

			spinner.SetMessage(fmt.Sprintf("Archiving %s (%s)...", name, plural(len(n.Trees), "tree")))
			a, err := s.Put(ctx, name, n)
			if err != nil {
				spinner.StopWithError("Archiving %s failed", name)
				return err
			}
			spinner.StopWithSuccess("Archived %s", a.Name)
			loggerFromContext(ctx).Debug("archived", "id", a.ID, "hash", a.Hash, "size", a.Size)
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "archive name (default: experiment name, then file name)")

	return cmd
}

// storePullCommand creates the "store pull" subcommand.
func (c *CLI) storePullCommand(uri *string) *cobra.Command {
	var output, to string

	cmd := &cobra.Command{
		Use:   "pull <id>",
		Short: "Fetch an archived annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if to == "" {
				to = outputFormat(output)
			}
			if err := pipeline.ValidateFormat(to); err != nil {
				return err
			}

			s, err := c.openStore(ctx, *uri)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			n, a, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := pipeline.Encode(n, to)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, output, data); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Pulled %s", a.Name)
				printSummary(a.Trees, a.Nodes, pipeline.Changes{}, false)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&to, "to", "", "output format: nml or json")

	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand(uri *string) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived annotations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx, *uri)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			list, err := s.List(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				printInfo("Archive is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), annotationTable(list, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

// storeRemoveCommand creates the "store rm" subcommand.
func (c *CLI) storeRemoveCommand(uri *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove archived annotations",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx, *uri)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			for _, id := range args {
				if err := s.Delete(ctx, id); err != nil {
					return fmt.Errorf("remove %s: %w", id, err)
				}
				printSuccess("Removed %s", id)
			}
			return nil
		},
	}
}

// archiveName picks a default name: the experiment name, else the file
// name without extension.
func archiveName(path, experiment string) string {
	if experiment != "" {
		return experiment
	}
	if path == stdinPath {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// annotationTable renders archive entries as a table.
func annotationTable(list []store.Annotation, now time.Time) string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			strconv.Itoa(a.Trees),
			strconv.Itoa(a.Nodes),
			formatRelativeTime(a.CreatedAt, now),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Trees", "Nodes", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 4:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// formatRelativeTime renders t relative to now for recent times and as a
// date otherwise.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
