// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main view of the guru TUI.

Model is a Bubble Tea model with two states. StateAuth shows the sign-in
screen (Google device sign-in or guest). StateChat shows the session list,
the active conversation and the composer.

All persistent state lives in session.Store and conversation.Controller;
Model only keeps UI-local state (focus, open menus, the staged attachment,
the composer text) and turns keys into named intents:

  - new, select and delete chat
  - send, attach image, attach document, clear attachment
  - export the active chat, copy a code block
  - sign out

A send runs the model request in a tea.Cmd and the result comes back as a
ReplyMsg, so the Update loop never blocks.

# Key Bindings

	Enter       send
	Ctrl+N      new chat
	Tab         focus session list / composer
	Ctrl+O      options for the active chat (delete, export)
	Ctrl+P      attach image
	Ctrl+F      attach document
	Ctrl+X      remove staged attachment
	Ctrl+Y      copy a code block
	Ctrl+B      toggle session list
	Ctrl+L      sign out
	F1          help
	Ctrl+C      quit
*/
package chat
