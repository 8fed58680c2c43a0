// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the guru TUI.

Components are pure renderers: they take plain values (sessions, messages,
the signed-in user, the staged attachment) and return strings. State lives in
the chat model, which owns the bubbletea loop.

  - Markdown renders assistant replies: prose through glamour, fenced code
    through CodeBlock with chroma highlighting, a language label and a
    numbered copy hint.
  - Sidebar renders the session list with the active session marked.
  - Header renders the brand line and the signed-in status.
  - ToastManager holds short-lived notices such as the recovery notice and
    copy confirmations.
  - ThinkingIndicator wraps the bubbles spinner shown while a reply is
    pending.
*/
package components
