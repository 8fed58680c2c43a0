// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// MessageView renders one chat message.
type MessageView struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	// FirstCodeIndex numbers this message's code blocks.
	FirstCodeIndex int
}

// Render renders the header line, any attachment note and the body. It
// returns the number of code blocks the body contained.
func (v MessageView) Render(md *Markdown, theme *styles.Theme) (string, int) {
	header := theme.MessageHeader.Render(v.Message.Role.DisplayName())
	if v.ShowTimestamp && !v.Message.Timestamp.IsZero() {
		header += " " + theme.Timestamp.Render(v.Message.TimeLabel())
	}

	width := v.Width
	if width < 24 {
		width = 24
	}

	var parts []string
	if note := AttachmentNote(v.Message); note != "" {
		parts = append(parts, theme.AttachmentNote.Render(note))
	}

	blocks := 0
	switch v.Message.Role {
	case model.RoleUser:
		if v.Message.Content != "" {
			body := lipgloss.NewStyle().Width(width - 10).Render(v.Message.Content)
			parts = append(parts, theme.UserBubble.Render(body))
		}
	default:
		md.SetWidth(width - 8)
		var body string
		body, blocks = md.Render(v.Message.Content, v.FirstCodeIndex)
		parts = append(parts, theme.AssistantBubble.Render(body))
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, parts...)...), blocks
}
