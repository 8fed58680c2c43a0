// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat sessions to files.
//
// # Supported Formats
//
//   - Markdown: Human-readable transcript with attachment notes
//   - JSON: The session exactly as it is persisted, attachments included
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "."
//	path, err := export.ExportSession(session, "md", opts)
package export
