// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	Quit     key.Binding
	Help     key.Binding

	NewChat       key.Binding
	FocusSidebar  key.Binding
	ToggleSidebar key.Binding
	DeleteChat    key.Binding
	Options       key.Binding

	AttachImage     key.Binding
	AttachDocument  key.Binding
	ClearAttachment key.Binding
	CopyCode        key.Binding
	SignOut         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close / dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		FocusSidebar: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "switch focus"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "toggle chats"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete chat"),
		),
		Options: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "chat options"),
		),
		AttachImage: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "attach image"),
		),
		AttachDocument: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "attach file"),
		),
		ClearAttachment: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "remove attachment"),
		),
		CopyCode: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy code"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "sign out"),
		),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewChat, k.AttachImage, k.AttachDocument, k.Options, k.Help}
}

// FullHelp returns the bindings shown in the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NewChat, k.Options, k.SignOut},
		{k.AttachImage, k.AttachDocument, k.ClearAttachment, k.CopyCode},
		{k.FocusSidebar, k.ToggleSidebar, k.Up, k.Down, k.DeleteChat},
		{k.PageUp, k.PageDown, k.Cancel, k.Help, k.Quit},
	}
}
