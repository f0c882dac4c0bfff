package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scalableminds/wknml/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the experiment name.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight renders the selected tree.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber renders counts and coordinates in info tables.
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleAdded   = lipgloss.NewStyle().Foreground(colorGreen)
	styleRemoved = lipgloss.NewStyle().Foreground(colorRed)
	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// status line markers
var (
	markSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	markError   = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	markWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
)

// =============================================================================
// Status lines
// =============================================================================

func printStatus(mark, format string, args ...any) {
	fmt.Println(mark + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { printStatus(markSuccess, format, args...) }

func printError(format string, args ...any) { printStatus(markError, format, args...) }

func printWarning(format string, args ...any) {
	printStatus(markWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) { printStatus(markInfo, format, args...) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path an output was written to.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Annotation summary
// =============================================================================

// printSummary prints the size of a written annotation, what the transforms
// changed, and whether the result came from the cache.
func printSummary(trees, nodes int, ch pipeline.Changes, cached bool) {
	fmt.Println("  " + summaryLine(trees, nodes, ch, cached))
}

// summaryLine joins the summary parts with dimmed separators. Zero change
// counts are left out.
func summaryLine(trees, nodes int, ch pipeline.Changes, cached bool) string {
	parts := []string{
		StyleDim.Render(plural(trees, "tree")),
		StyleDim.Render(plural(nodes, "node")),
	}
	if ch.SplitTrees > 0 {
		parts = append(parts, styleAdded.Render(fmt.Sprintf("%d split", ch.SplitTrees)))
	}
	if ch.AddedNodes > 0 {
		parts = append(parts, styleAdded.Render(fmt.Sprintf("+%d nodes", ch.AddedNodes)))
	}
	if ch.RemovedNodes > 0 {
		parts = append(parts, styleRemoved.Render(fmt.Sprintf("-%d nodes", ch.RemovedNodes)))
	}
	if ch.MergedTrees > 0 {
		parts = append(parts, styleRemoved.Render(fmt.Sprintf("%d merged", ch.MergedTrees)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
