// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
	"github.com/jeranaias/guru-tui/internal/util"
)

// BrandTitle is the application name shown in the header.
const BrandTitle = "Flutter AI Guru"

// GuestStatus is shown when the current user is a guest.
const GuestStatus = "Viewing as Guest"

// StatusLine describes who is signed in.
func StatusLine(u model.User) string {
	if u.IsGuest() {
		return GuestStatus
	}
	first := util.FirstName(u.Name)
	if first == "" {
		first = u.Email
	}
	return "Logged in as " + first
}

// Header renders the brand title on the left and the user status and model
// name on the right.
type Header struct {
	User      model.User
	ModelName string
	Width     int
}

// View renders the header line.
func (h Header) View(theme *styles.Theme) string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	brand := theme.HeaderBrand.Render("◆ " + BrandTitle)

	status := StatusLine(h.User)
	var right string
	if h.User.IsGuest() {
		right = theme.GuestBadge.Render(status)
	} else {
		right = theme.HeaderUser.Render(status)
	}
	if h.ModelName != "" && theme.GetLayoutMode() != styles.LayoutNarrow {
		right = theme.HeaderUser.Render(h.ModelName+" · ") + right
	}

	gap := width - 2 - lipgloss.Width(brand) - lipgloss.Width(right)
	if gap < 1 {
		// Drop the status before letting the line wrap.
		return theme.Header.Width(width).Render(brand)
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")
	return theme.Header.Width(width).Render(brand + spacer + right)
}
