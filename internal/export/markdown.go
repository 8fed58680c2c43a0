// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown. Attachments are noted by
// name, type and size; their content is not inlined.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown format.
func (e *MarkdownExporter) Export(s *model.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(s.Messages) == 0 {
		return nil, fmt.Errorf("session has no messages")
	}

	var sb strings.Builder
	exported := e.options.now()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(s.Title)))
		sb.WriteString(fmt.Sprintf("session: %s\n", s.ID))
		sb.WriteString(fmt.Sprintf("updated: %s\n", s.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(s.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", exported.Format(time.RFC3339)))
		sb.WriteString("generator: guru-tui\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(s.Title)))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(s.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(s.Messages)))
		if n := countAttachments(s.Messages); n > 0 {
			sb.WriteString(fmt.Sprintf("- **Attachments**: %d\n", n))
		}
		sb.WriteString("\n---\n\n")
	}

	for i, msg := range s.Messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, msg.TimeLabel()))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		if note := attachmentNote(msg); note != "" {
			sb.WriteString(note)
			sb.WriteString("\n\n")
		}
		if content := strings.TrimSpace(msg.Content); content != "" {
			sb.WriteString(content)
			sb.WriteString("\n\n")
		}

		if i < len(s.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Flutter AI Guru on %s*\n",
		exported.Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func attachmentNote(msg model.Message) string {
	switch {
	case msg.File != nil:
		return fmt.Sprintf("> 📎 `%s` (%s, %s)", msg.File.Name, msg.File.MimeType, attach.FormatFileSize(msg.File.Size))
	case msg.Image != nil:
		return fmt.Sprintf("> 🖼 image (%s)", msg.Image.MimeType)
	default:
		return ""
	}
}

func countAttachments(msgs []model.Message) int {
	n := 0
	for _, m := range msgs {
		if m.HasAttachment() {
			n++
		}
	}
	return n
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
