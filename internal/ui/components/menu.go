// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// Menu is a small vertical option list with a cursor.
type Menu struct {
	Title  string
	Items  []string
	Cursor int
}

// Move shifts the cursor by delta, wrapping around.
func (m *Menu) Move(delta int) {
	n := len(m.Items)
	if n == 0 {
		return
	}
	m.Cursor = ((m.Cursor+delta)%n + n) % n
}

// Selected returns the item under the cursor.
func (m Menu) Selected() string {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return ""
	}
	return m.Items[m.Cursor]
}

// View renders the menu box.
func (m Menu) View(theme *styles.Theme) string {
	rows := make([]string, 0, len(m.Items)+1)
	if m.Title != "" {
		rows = append(rows, theme.SidebarTitle.Render(m.Title))
	}
	for i, item := range m.Items {
		if i == m.Cursor {
			rows = append(rows, theme.MenuItemSelected.Render(item))
		} else {
			rows = append(rows, theme.MenuItem.Render(item))
		}
	}
	return theme.MenuBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
