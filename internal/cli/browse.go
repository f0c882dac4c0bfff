package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/nml"
)

// List styles
var (
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	detailBox     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	detailKeyText = lipgloss.NewStyle().Foreground(colorGray).Width(13)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse the trees of an annotation interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			n, err := loadDocument(cmd, runner, args[0])
			if err != nil {
				return err
			}
			if len(n.Trees) == 0 {
				printInfo("%s has no trees", args[0])
				return nil
			}

			p := tea.NewProgram(NewTreeListModel(n),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// =============================================================================
// TreeListModel - Interactive tree browser
// =============================================================================

// treeDetail is the precomputed detail pane content of one tree.
type treeDetail struct {
	tree         nml.TreeStats
	color        nml.Color
	group        string
	comments     int
	branchpoints int
}

// TreeListModel is the bubbletea model for browsing trees.
type TreeListModel struct {
	Title  string
	Trees  []treeDetail
	Cursor int
	Height int
	Offset int
}

// NewTreeListModel creates a tree list model for n.
func NewTreeListModel(n nml.NML) TreeListModel {
	stats := nml.Stats(n)

	groups := make(map[int]string)
	for _, g := range nml.FlattenGroups(n.Groups) {
		groups[g.ID] = g.Name
	}

	// comments and branchpoints count for the first tree holding the node
	owner := make(map[int]int)
	for i, t := range n.Trees {
		for _, nd := range t.Nodes {
			if _, ok := owner[nd.ID]; !ok {
				owner[nd.ID] = i
			}
		}
	}
	comments := make([]int, len(n.Trees))
	for _, cm := range n.Comments {
		if i, ok := owner[cm.Node]; ok {
			comments[i]++
		}
	}
	branchpoints := make([]int, len(n.Trees))
	for _, bp := range n.Branchpoints {
		if i, ok := owner[bp.ID]; ok {
			branchpoints[i]++
		}
	}

	trees := make([]treeDetail, len(n.Trees))
	for i, t := range n.Trees {
		group := "—"
		if t.GroupID != nil {
			group = groups[*t.GroupID]
			if group == "" {
				group = "#" + strconv.Itoa(*t.GroupID)
			}
		}
		trees[i] = treeDetail{
			tree:         stats.PerTree[i],
			color:        t.Color,
			group:        group,
			comments:     comments[i],
			branchpoints: branchpoints[i],
		}
	}

	title := n.Parameters.Name
	if title == "" {
		title = "Trees"
	}
	return TreeListModel{Title: title, Trees: trees, Height: 15}
}

func (m TreeListModel) Init() tea.Cmd {
	return nil
}

func (m TreeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Trees))
		case "end", "G":
			m.move(len(m.Trees))
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the list, and scrolls the
// window so the cursor stays visible.
func (m *TreeListModel) move(delta int) {
	m.Cursor = max(0, min(len(m.Trees)-1, m.Cursor+delta))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TreeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Trees) == 0 {
		b.WriteString(listDimStyle.Render("  no trees"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), " ", m.detailView()))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

func (m TreeListModel) listView() string {
	end := min(m.Offset+m.Height, len(m.Trees))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Trees[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.Itoa(d.tree.ID), d.tree.Name, strconv.Itoa(d.tree.Nodes), d.group})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Nodes", "Group").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	return t.Render()
}

func (m TreeListModel) detailView() string {
	d := m.Trees[m.Cursor]
	line := func(key, value string) string {
		return detailKeyText.Render(key) + " " + StyleValue.Render(value)
	}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colorHex(d.color))).Render("██")

	lines := []string{
		StyleHighlight.Render(d.tree.Name),
		"",
		line("Tree", strconv.Itoa(d.tree.ID)),
		line("Color", swatch+" "+colorHex(d.color)),
		line("Group", d.group),
		line("Nodes", strconv.Itoa(d.tree.Nodes)),
		line("Edges", strconv.Itoa(d.tree.Edges)),
		line("Length", strconv.FormatFloat(d.tree.Length, 'f', 1, 64)),
		line("Comments", strconv.Itoa(d.comments)),
		line("Branchpoints", strconv.Itoa(d.branchpoints)),
	}
	return detailBox.Render(strings.Join(lines, "\n"))
}

// colorHex formats the RGB channels of c as #rrggbb.
func colorHex(c nml.Color) string {
	channel := func(v float64) int {
		return int(max(0, min(1, v))*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c[0]), channel(c[1]), channel(c[2]))
}
