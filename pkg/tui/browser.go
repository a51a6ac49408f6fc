// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the interactive browser over scan results.
//
// # Description
//
// This package implements the results browser using bubbletea. It
// renders the displayed entry's children, lets the user descend into a
// selected directory or climb back to the parent (both are store
// lookups by path key), and keeps a footer with the current subtree's
// entry count and total size.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the
// bubbletea event loop. Do not access browser state from multiple
// goroutines.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/AleutianAI/trawl/pkg/inventory"
)

// =============================================================================
// Model
// =============================================================================

// Browser is the bubbletea model for navigating a loaded inventory.
type Browser struct {
	inv *inventory.Inventory

	// Navigation state
	cursor int
	offset int

	// Terminal dimensions
	width  int
	height int
	ready  bool

	// Cached aggregates of the displayed subtree, refreshed on
	// navigation.
	count int64
	size  int64

	statusErr error
	quitting  bool

	// Styles
	titleStyle  lipgloss.Style
	dirStyle    lipgloss.Style
	fileStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	footerStyle lipgloss.Style
}

// NewBrowser creates a browser over a loaded inventory.
//
// Inputs:
//   - inv: A store-backed inventory that has already been loaded.
//
// Outputs:
//   - Browser: Ready-to-use model for tea.NewProgram.
func NewBrowser(inv *inventory.Inventory) Browser {
	b := Browser{
		inv:         inv,
		titleStyle:  lipgloss.NewStyle().Bold(true),
		dirStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		fileStyle:   lipgloss.NewStyle(),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		footerStyle: lipgloss.NewStyle().Faint(true),
	}
	b.refreshStats()
	return b
}

// Init implements tea.Model.
func (b Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.ready = true
		b.clampScroll()
		return b, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			b.quitting = true
			return b, tea.Quit

		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
			b.clampScroll()
			return b, nil

		case "down", "j":
			if b.cursor < b.inv.ChildrenLen()-1 {
				b.cursor++
			}
			b.clampScroll()
			return b, nil

		case "enter", "right", "l":
			b.descend()
			return b, nil

		case "backspace", "left", "h", "u":
			b.ascend()
			return b, nil
		}
	}
	return b, nil
}

// descend re-points the inventory at the selected child, if it is a
// directory.
func (b *Browser) descend() {
	children := b.inv.Children()
	if b.cursor >= len(children) {
		return
	}
	key := children[b.cursor]

	child, ok, err := b.inv.ChildEntry(key)
	if err != nil || !ok || !child.IsDir() {
		return
	}
	if err := b.inv.ReplaceFromStorage(key); err != nil {
		b.statusErr = err
		return
	}
	b.cursor = 0
	b.offset = 0
	b.refreshStats()
}

// ascend re-points the inventory at the parent entry, if any.
func (b *Browser) ascend() {
	parent, ok := b.inv.Parent()
	if !ok {
		return
	}
	if err := b.inv.ReplaceFromStorage(parent); err != nil {
		b.statusErr = err
		return
	}
	b.cursor = 0
	b.offset = 0
	b.refreshStats()
}

func (b *Browser) refreshStats() {
	count, err := b.inv.CountEntries()
	if err != nil {
		b.statusErr = err
		return
	}
	size, err := b.inv.CalculateSize()
	if err != nil {
		b.statusErr = err
		return
	}
	b.count = count
	b.size = size
	b.statusErr = nil
}

// visibleRows returns how many list rows fit between title and footer.
func (b *Browser) visibleRows() int {
	rows := b.height - 4
	if !b.ready || rows < 1 {
		return 10
	}
	return rows
}

func (b *Browser) clampScroll() {
	rows := b.visibleRows()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+rows {
		b.offset = b.cursor - rows + 1
	}
}

// =============================================================================
// View
// =============================================================================

// View implements tea.Model.
func (b Browser) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(b.titleStyle.Render(b.inv.Path()))
	sb.WriteString("\n\n")

	children := b.inv.Children()
	if len(children) == 0 {
		sb.WriteString(b.footerStyle.Render("  (empty)"))
		sb.WriteString("\n")
	}

	rows := b.visibleRows()
	end := b.offset + rows
	if end > len(children) {
		end = len(children)
	}

	for i := b.offset; i < end; i++ {
		line := b.renderChild(children[i])
		if i == b.cursor {
			sb.WriteString(b.cursorStyle.Render("> "))
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(b.footerStyle.Render(fmt.Sprintf(
		"%d entries · %s · ↑/↓ move · enter open · backspace up · q quit",
		b.count, humanize.IBytes(uint64(b.size)),
	)))
	if b.statusErr != nil {
		sb.WriteString("\n")
		sb.WriteString(b.footerStyle.Render("error: " + b.statusErr.Error()))
	}
	return sb.String()
}

// renderChild formats one list row: directories blue with a trailing
// slash, files with their size.
func (b Browser) renderChild(key string) string {
	child, ok, err := b.inv.ChildEntry(key)
	if err != nil || !ok {
		return b.footerStyle.Render(key + " (missing)")
	}
	if child.IsDir() {
		return b.dirStyle.Render(child.Name + "/")
	}
	return b.fileStyle.Render(fmt.Sprintf("%s  %s", child.Name, humanize.IBytes(uint64(child.Size))))
}
