// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/trawl/pkg/inventory"
)

// loadedBrowser builds root/{aaa/, bbb.txt} and returns a browser over
// the loaded inventory.
func loadedBrowser(t *testing.T) (Browser, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "aaa"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aaa", "inner.bin"), make([]byte, 4), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbb.txt"), make([]byte, 6), 0o644))

	inv, err := inventory.NewWithStore(dir, inventory.Options{Workers: 2})
	require.NoError(t, err)
	_, err = inv.Load(context.Background())
	require.NoError(t, err)

	return NewBrowser(inv), dir
}

func key(s string) tea.Msg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "backspace" {
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestCursorMovement verifies up/down clamp at the list bounds.
func TestCursorMovement(t *testing.T) {
	b, _ := loadedBrowser(t)

	m, _ := b.Update(key("j"))
	b = m.(Browser)
	assert.Equal(t, 1, b.cursor)

	// Clamped at the last child.
	m, _ = b.Update(key("j"))
	b = m.(Browser)
	assert.Equal(t, 1, b.cursor)

	m, _ = b.Update(key("k"))
	b = m.(Browser)
	assert.Equal(t, 0, b.cursor)

	m, _ = b.Update(key("k"))
	b = m.(Browser)
	assert.Equal(t, 0, b.cursor)
}

// TestDescendAndAscend verifies enter/backspace navigate the store.
func TestDescendAndAscend(t *testing.T) {
	b, dir := loadedBrowser(t)

	// Children are in discovery order; find the directory row.
	for i, c := range b.inv.Children() {
		if filepath.Base(c) == "aaa" {
			b.cursor = i
		}
	}

	m, _ := b.Update(key("enter"))
	b = m.(Browser)
	assert.Equal(t, filepath.Join(dir, "aaa"), b.inv.Path())
	assert.Equal(t, 0, b.cursor)
	assert.Equal(t, int64(1), b.count)
	assert.Equal(t, int64(4), b.size)

	m, _ = b.Update(key("backspace"))
	b = m.(Browser)
	assert.Equal(t, dir, b.inv.Path())
	assert.Equal(t, int64(2), b.count)
	assert.Equal(t, int64(10), b.size)

	// Ascending from the root is a no-op.
	m, _ = b.Update(key("backspace"))
	b = m.(Browser)
	assert.Equal(t, dir, b.inv.Path())
}

// TestEnterOnFileIsNoop verifies descending into a file does nothing.
func TestEnterOnFileIsNoop(t *testing.T) {
	b, dir := loadedBrowser(t)

	for i, c := range b.inv.Children() {
		if filepath.Base(c) == "bbb.txt" {
			b.cursor = i
		}
	}

	m, _ := b.Update(key("enter"))
	b = m.(Browser)
	assert.Equal(t, dir, b.inv.Path())
}

// TestQuit verifies q produces tea.Quit.
func TestQuit(t *testing.T) {
	b, _ := loadedBrowser(t)

	m, cmd := b.Update(key("q"))
	b = m.(Browser)
	assert.True(t, b.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// TestViewRendersChildren smoke-tests the rendered frame.
func TestViewRendersChildren(t *testing.T) {
	b, _ := loadedBrowser(t)
	m, _ := b.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	b = m.(Browser)

	view := b.View()
	assert.Contains(t, view, "aaa/")
	assert.Contains(t, view, "bbb.txt")
	assert.Contains(t, view, "2 entries")
}
