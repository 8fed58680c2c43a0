// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// AttachmentChip renders the staged attachment above the composer, or ""
// when nothing is staged.
func AttachmentChip(staged *attach.Staged, theme *styles.Theme) string {
	if staged == nil || staged.Empty() {
		return ""
	}
	icon := "📎 "
	if staged.Kind() == attach.KindImage {
		icon = "🖼 "
	}
	return theme.AttachmentChip.Render(icon+staged.Label()) + " " +
		theme.ShortcutDsc.Render("ctrl+x to remove")
}

// AttachmentNote describes the attachment carried by a sent message.
func AttachmentNote(m model.Message) string {
	switch {
	case m.File != nil:
		return "📎 " + m.File.Name + " (" + attach.FormatFileSize(m.File.Size) + ")"
	case m.Image != nil:
		return "🖼 Image attached"
	default:
		return ""
	}
}
