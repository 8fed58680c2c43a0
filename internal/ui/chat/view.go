// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/components"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// View renders the current screen.
func (m Model) View() string {
	if m.state == StateAuth {
		return m.renderAuth()
	}
	return m.renderChat()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) showSidebar() bool {
	return m.sidebarOpen && m.theme.GetLayoutMode() != styles.LayoutNarrow
}

func (m Model) mainWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	if m.showSidebar() {
		w -= styles.SidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// refresh re-renders the active session into the viewport and resizes it to
// whatever the surrounding chrome leaves.
func (m *Model) refresh() {
	width := m.mainWidth()
	m.viewport.Width = width

	height := m.height
	if height <= 0 {
		height = 24
	}
	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderComposer()) +
		lipgloss.Height(m.renderStatus())
	if banner := m.renderBanner(); banner != "" {
		chrome += lipgloss.Height(banner)
	}
	if m.toasts.HasToasts() {
		chrome += lipgloss.Height(components.RenderToastStack(m.toasts.Toasts(), width))
	}
	vh := height - chrome
	if vh < 3 {
		vh = 3
	}
	m.viewport.Height = vh

	atBottom := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.renderMessages(width))
	if atBottom || m.ctrl.Loading() {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m Model) renderChat() string {
	width := m.mainWidth()

	var body string
	switch {
	case m.showHelp:
		body = lipgloss.NewStyle().Width(width).Height(m.viewport.Height).Padding(1, 2).
			Render(m.help.FullHelpView(m.keys.FullHelp()))
	case m.menu != nil:
		body = lipgloss.Place(width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.menu.View(m.theme))
	default:
		body = m.viewport.View()
	}

	column := []string{body}
	if m.toasts.HasToasts() {
		column = append(column, components.RenderToastStack(m.toasts.Toasts(), width))
	}
	if banner := m.renderBanner(); banner != "" {
		column = append(column, banner)
	}
	column = append(column, m.renderComposer())
	main := lipgloss.JoinVertical(lipgloss.Left, column...)

	if m.showSidebar() {
		sb := components.Sidebar{
			Sessions: m.store.Sessions(),
			ActiveID: m.store.ActiveID(),
			Cursor:   m.sidebarCursor,
			Focused:  m.focus == focusSidebar,
			Width:    styles.SidebarWidth,
			Height:   lipgloss.Height(main),
		}
		main = lipgloss.JoinHorizontal(lipgloss.Top, sb.View(m.theme), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), main, m.renderStatus())
}

func (m Model) renderHeader() string {
	user, _ := m.store.User()
	return components.Header{User: user, ModelName: m.modelName, Width: m.width}.View(m.theme)
}

func (m *Model) renderMessages(width int) string {
	sess := m.store.Active()
	wrap := width - 2
	if m.cfg.UI.WordWrap > 0 && m.cfg.UI.WordWrap < wrap {
		wrap = m.cfg.UI.WordWrap
	}

	m.codeBlocks = nil
	parts := make([]string, 0, len(sess.Messages)+1)
	for _, msg := range sess.Messages {
		view := components.MessageView{
			Message:        msg,
			Width:          wrap,
			ShowTimestamp:  m.cfg.UI.ShowTimestamps,
			FirstCodeIndex: len(m.codeBlocks) + 1,
		}
		rendered, _ := view.Render(m.markdown, m.theme)
		if msg.Role == model.RoleAssistant {
			m.codeBlocks = append(m.codeBlocks, components.ExtractCodeBlocks(msg.Content, len(m.codeBlocks)+1)...)
		}
		parts = append(parts, rendered)
	}
	if m.ctrl.Loading() && m.thinking.IsActive() {
		parts = append(parts, m.thinking.View())
	}
	return strings.Join(parts, "\n\n")
}

// renderBanner shows the last request error, if any.
func (m Model) renderBanner() string {
	text := m.ctrl.Error()
	if text == "" {
		return ""
	}
	banner := m.theme.ErrorBanner.Width(m.mainWidth()).Render(styles.StatusIndicators.Error + " " + text)
	cause := m.ctrl.Cause()
	if errors.Is(cause, gemini.ErrInvalidAPIKey) || errors.Is(cause, gemini.ErrNotConfigured) {
		banner += "\n" + m.theme.ErrorHint.Render(APIKeyHint)
	}
	return banner
}

func (m Model) renderComposer() string {
	var lines []string
	if chip := components.AttachmentChip(m.staged, m.theme); chip != "" {
		lines = append(lines, chip)
	}
	if m.promptKind != promptNone {
		lines = append(lines, m.theme.PathPrompt.Render(m.prompt.View()))
	} else {
		lines = append(lines, m.input.View())
	}
	width := m.mainWidth() - 2
	if width < 10 {
		width = 10
	}
	return m.theme.InputContainer.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	var left string
	switch {
	case m.promptKind != promptNone:
		left = "Enter to confirm · Esc to cancel"
	case m.focus == focusSidebar:
		left = "↑/↓ move · Enter open · d delete · Tab back"
	default:
		left = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return m.theme.StatusBar.Width(width).Render(left)
}

// =============================================================================
// SIGN-IN SCREEN
// =============================================================================

func (m Model) renderAuth() string {
	rows := []string{
		m.theme.LoginTitle.Render("◆ " + components.BrandTitle),
		m.theme.HeaderUser.Render("Flutter ও Dart শেখার সহকারী · Your Flutter & Dart assistant"),
		"",
	}

	if m.deviceCode != nil {
		rows = append(rows,
			"Open "+m.theme.LinkStyle.Render(m.deviceCode.VerificationURI),
			"and enter the code",
			m.theme.LoginCode.Render(m.deviceCode.UserCode),
		)
		if !m.deviceCode.ExpiresAt.IsZero() {
			left := time.Until(m.deviceCode.ExpiresAt).Round(time.Minute)
			if left > 0 {
				rows = append(rows, m.theme.Timestamp.Render("expires in "+left.String()))
			}
		}
		rows = append(rows, "", m.theme.ShortcutDsc.Render("Esc to cancel"))
	} else {
		rows = append(rows, m.authMenu.View(m.theme))
	}

	if m.authMsg != "" {
		rows = append(rows, "", styles.RenderWarning(m.authMsg))
	}
	if m.loginErr != "" {
		rows = append(rows, "", m.theme.ErrorBanner.Render(m.loginErr))
	}

	box := m.theme.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
