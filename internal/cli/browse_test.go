package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/scalableminds/wknml/pkg/nml"
)

func TestNewTreeListModel(t *testing.T) {
	m := NewTreeListModel(parseDoc(t, testDoc))

	if m.Title != "cells" {
		t.Errorf("Title = %q", m.Title)
	}
	if len(m.Trees) != 2 {
		t.Fatalf("got %d trees, want 2", len(m.Trees))
	}

	axon, dendrite := m.Trees[0], m.Trees[1]
	if axon.group != "neurons" || dendrite.group != "—" {
		t.Errorf("groups = %q, %q", axon.group, dendrite.group)
	}
	if axon.branchpoints != 1 || axon.comments != 0 {
		t.Errorf("axon: %d branchpoints, %d comments", axon.branchpoints, axon.comments)
	}
	if dendrite.branchpoints != 0 || dendrite.comments != 1 {
		t.Errorf("dendrite: %d branchpoints, %d comments", dendrite.branchpoints, dendrite.comments)
	}
	if axon.tree.Length != 10 {
		t.Errorf("axon length = %v, want 10", axon.tree.Length)
	}
}

func TestTreeListModelNavigation(t *testing.T) {
	var model tea.Model = NewTreeListModel(parseDoc(t, testDoc))
	key := func(k tea.KeyMsg) {
		model, _ = model.Update(k)
	}
	cursor := func() int { return model.(TreeListModel).Cursor }

	key(tea.KeyMsg{Type: tea.KeyDown})
	if cursor() != 1 {
		t.Errorf("after down: cursor = %d, want 1", cursor())
	}
	key(tea.KeyMsg{Type: tea.KeyDown})
	if cursor() != 1 {
		t.Errorf("cursor moved past the last tree: %d", cursor())
	}
	key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	if cursor() != 0 {
		t.Errorf("after k: cursor = %d, want 0", cursor())
	}
	key(tea.KeyMsg{Type: tea.KeyEnd})
	if cursor() != 1 {
		t.Errorf("after end: cursor = %d, want 1", cursor())
	}

	view := model.View()
	for _, want := range []string{"cells", "dendrite", "[2/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestTreeListModelScrolling(t *testing.T) {
	trees := make([]nml.Tree, 20)
	for i := range trees {
		trees[i] = nml.Tree{ID: i + 1, Color: nml.DefaultColor}
	}
	m := NewTreeListModel(nml.NML{Trees: trees})

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if h := model.(TreeListModel).Height; h != 5 {
		t.Fatalf("Height = %d, want the minimum of 5", h)
	}
	for range 7 {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	got := model.(TreeListModel)
	if got.Cursor != 7 || got.Offset != 3 {
		t.Errorf("cursor %d offset %d, want 7 and 3", got.Cursor, got.Offset)
	}
}

func TestColorHex(t *testing.T) {
	tests := []struct {
		color nml.Color
		want  string
	}{
		{nml.Color{1, 0, 0, 1}, "#ff0000"},
		{nml.Color{0, 0.5, 1, 1}, "#0080ff"},
		{nml.Color{2, -1, 0, 1}, "#ff0000"},
	}
	for _, tt := range tests {
		if got := colorHex(tt.color); got != tt.want {
			t.Errorf("colorHex(%v) = %q, want %q", tt.color, got, tt.want)
		}
	}
}
