package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/scalableminds/wknml/pkg/pipeline"
)

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		name    string
		trees   int
		nodes   int
		changes pipeline.Changes
		cached  bool
		want    string
	}{
		{"plain", 12, 3400, pipeline.Changes{}, false, "12 trees · 3400 nodes · fresh"},
		{"singular", 1, 1, pipeline.Changes{}, true, "1 tree · 1 node · cached"},
		{
			"all changes", 5, 40,
			pipeline.Changes{SplitTrees: 2, AddedNodes: 4, RemovedNodes: 3, MergedTrees: 1}, false,
			"5 trees · 40 nodes · 2 split · +4 nodes · -3 nodes · 1 merged · fresh",
		},
		{"added only", 1, 6, pipeline.Changes{AddedNodes: 4}, true, "1 tree · 6 nodes · +4 nodes · cached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ansi.Strip(summaryLine(tt.trees, tt.nodes, tt.changes, tt.cached))
			if got != tt.want {
				t.Errorf("summaryLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	for n, want := range map[int]string{0: "0 trees", 1: "1 tree", 2: "2 trees"} {
		if got := plural(n, "tree"); !strings.EqualFold(got, want) {
			t.Errorf("plural(%d) = %q, want %q", n, got, want)
		}
	}
}
