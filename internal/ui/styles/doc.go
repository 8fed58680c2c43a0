// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the guru TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The palette follows the Flutter brand blues, with Rose for the
error banner and Amber for notices.

Theme groups the styles by screen region (header, messages, composer, code
blocks, session list, menus and the sign-in screen) and carries the detected
termenv color profile. GetLayoutMode drives the responsive layout: the
session list is hidden in LayoutNarrow.
*/
package styles
