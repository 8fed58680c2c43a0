// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// SidebarWidth is the fixed width of the session list, borders included.
const SidebarWidth = 30

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header and status line
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style
	GuestBadge  lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	ShortcutDsc lipgloss.Style

	// Messages
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	MessageHeader   lipgloss.Style
	Timestamp       lipgloss.Style
	AttachmentNote  lipgloss.Style

	// Composer
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	AttachmentChip lipgloss.Style
	PathPrompt     lipgloss.Style

	// Loading
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// Code blocks
	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeCopyBtn   lipgloss.Style

	// Banners
	ErrorBanner lipgloss.Style
	ErrorHint   lipgloss.Style

	// Session list
	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionItemActive   lipgloss.Style

	// Menus and sign-in
	MenuBox          lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemSelected lipgloss.Style
	LoginBox         lipgloss.Style
	LoginTitle       lipgloss.Style
	LoginCode        lipgloss.Style
	LinkStyle        lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(FlutterBlue)

	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.GuestBadge = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(FlutterBlue).
		Bold(true)

	t.ShortcutDsc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.MessageHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(FlutterBlue)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.AttachmentNote = lipgloss.NewStyle().
		Foreground(DartTeal).
		Italic(true)

	// Composer
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(FlutterBlue).
		Bold(true)

	t.AttachmentChip = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(DartTeal).
		Padding(0, 1)

	t.PathPrompt = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Loading
	t.Spinner = lipgloss.NewStyle().
		Foreground(FlutterBlue)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Code blocks
	t.CodeBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(DartTeal).
		Padding(0, 1).
		Bold(true)

	t.CodeCopyBtn = lipgloss.NewStyle().
		Foreground(FlutterBlue).
		Background(Overlay).
		Padding(0, 1)

	// Banners
	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		Bold(true).
		Padding(0, 1)

	t.ErrorHint = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true).
		PaddingLeft(1)

	// Session list
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		MarginBottom(1)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SessionItemSelected = lipgloss.NewStyle().
		Background(FlutterBlue).
		Foreground(TextInverse).
		Bold(true)

	t.SessionItemActive = lipgloss.NewStyle().
		Foreground(FlutterBlue).
		Bold(true)

	// Menus and sign-in
	t.MenuBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(FlutterBlue).
		Padding(0, 1)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.MenuItemSelected = lipgloss.NewStyle().
		Background(FlutterBlue).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(FlutterBlue).
		Padding(1, 4).
		Align(lipgloss.Center)

	t.LoginTitle = lipgloss.NewStyle().
		Foreground(FlutterBlue).
		Bold(true)

	t.LoginCode = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.LinkStyle = lipgloss.NewStyle().
		Foreground(DartTeal).
		Underline(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar hidden
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
