// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the guru packages.
//
// # Key Functions
//
// Text:
//   - PrefixRunes: UTF-8 safe prefix used for session titles
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - FirstName: first whitespace-separated word of a display name
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// # Usage
//
//	title := util.PrefixRunes(input, 30)
//	label := util.TruncateWidth(title, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
