// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
	"github.com/jeranaias/guru-tui/internal/util"
)

// NewChatLabel is the first row of the session list.
const NewChatLabel = "+ New Chat"

// Sidebar renders the session list. Row 0 is the new chat action; rows
// 1..n are sessions in store order.
type Sidebar struct {
	Sessions []model.Session
	ActiveID string
	Cursor   int
	Focused  bool
	Width    int
	Height   int
}

// Rows returns the number of selectable rows.
func (s Sidebar) Rows() int {
	return len(s.Sessions) + 1
}

// SessionAt returns the session under row, if row is a session row.
func (s Sidebar) SessionAt(row int) (model.Session, bool) {
	i := row - 1
	if i < 0 || i >= len(s.Sessions) {
		return model.Session{}, false
	}
	return s.Sessions[i], true
}

// View renders the list, scrolled so the cursor stays visible.
func (s Sidebar) View(theme *styles.Theme) string {
	width := s.Width
	if width <= 0 {
		width = styles.SidebarWidth
	}
	inner := width - 3 // right border plus padding
	if inner < 8 {
		inner = 8
	}

	rows := make([]string, 0, s.Rows())
	rows = append(rows, s.renderRow(0, NewChatLabel, false, inner, theme))
	for i, sess := range s.Sessions {
		label := util.TruncateWidth(sess.Title, inner-2)
		rows = append(rows, s.renderRow(i+1, label, sess.ID == s.ActiveID, inner, theme))
	}

	visible := s.Height - 2
	if visible > 0 && len(rows) > visible {
		start := s.Cursor - visible + 1
		if start < 0 {
			start = 0
		}
		rows = rows[start : start+visible]
	}

	title := theme.SidebarTitle.Render("Chats")
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, rows...)...)

	style := theme.Sidebar.Width(width - 1)
	if s.Height > 0 {
		style = style.Height(s.Height)
	}
	return style.Render(body)
}

func (s Sidebar) renderRow(row int, label string, active bool, width int, theme *styles.Theme) string {
	marker := "  "
	if active {
		marker = "▸ "
	}
	text := util.PadRight(marker+label, width)

	switch {
	case s.Focused && row == s.Cursor:
		return theme.SessionItemSelected.Render(text)
	case active:
		return theme.SessionItemActive.Render(text)
	default:
		return theme.SessionItem.Render(text)
	}
}

// SessionSummary is a one-line description used by the CLI session list.
func SessionSummary(s model.Session, width int) string {
	count := len(s.Messages)
	noun := "messages"
	if count == 1 {
		noun = "message"
	}
	line := s.Title + " (" + itoa(count) + " " + noun + ")"
	return util.TruncateWidth(strings.TrimSpace(line), width)
}
