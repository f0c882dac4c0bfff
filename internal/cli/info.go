package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scalableminds/wknml/pkg/nml"
)

// Output formats of the info command.
const (
	infoText = "text"
	infoJSON = "json"
	infoYAML = "yaml"
)

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		format  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize the trees, groups and extent of an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != infoText && format != infoJSON && format != infoYAML {
				return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'yaml')", format)
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			n, err := loadDocument(cmd, runner, args[0])
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), nml.Stats(n), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", infoText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// writeInfo renders stats in the requested format.
func writeInfo(w io.Writer, s nml.Statistics, format string) error {
	switch format {
	case infoJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case infoYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err := io.WriteString(w, infoTextView(s))
	return err
}

// infoTextView renders a summary block followed by a per-tree table.
func infoTextView(s nml.Statistics) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	line := func(key, value string) string {
		return keyStyle.Render(key) + " " + StyleValue.Render(value) + "\n"
	}

	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	out := StyleTitle.Render(name) + "\n\n"
	out += line("Trees", strconv.Itoa(s.Trees))
	out += line("Nodes", strconv.Itoa(s.Nodes))
	out += line("Edges", strconv.Itoa(s.Edges))
	out += line("Groups", fmt.Sprintf("%d (depth %d)", s.Groups, s.GroupDepth))
	out += line("Branchpoints", strconv.Itoa(s.Branchpoints))
	out += line("Comments", strconv.Itoa(s.Comments))
	if s.Bounds != nil {
		out += line("Bounds", fmt.Sprintf("%s – %s", formatVec(s.Bounds.Min), formatVec(s.Bounds.Max)))
	}
	if len(s.PerTree) == 0 {
		return out
	}

	rows := make([][]string, 0, len(s.PerTree))
	for _, t := range s.PerTree {
		group := "—"
		if t.GroupID != nil {
			group = strconv.Itoa(*t.GroupID)
		}
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Name,
			strconv.Itoa(t.Nodes),
			strconv.Itoa(t.Edges),
			group,
			strconv.FormatFloat(t.Length, 'f', 1, 64),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Nodes", "Edges", "Group", "Length").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return StyleNumber
		})

	return out + "\n" + t.Render() + "\n"
}

func formatVec(v nml.Vec3) string {
	return fmt.Sprintf("(%s, %s, %s)", nml.FormatFloat(v[0]), nml.FormatFloat(v[1]), nml.FormatFloat(v[2]))
}
