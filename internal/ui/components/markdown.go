// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders assistant replies. Prose goes through glamour; fenced
// code goes through CodeBlock so every block gets a label and a copy number.
// A Markdown is not safe for concurrent use.
type Markdown struct {
	width     int
	codeStyle string

	renderer *glamour.TermRenderer
	rendered int // width the renderer was built for
}

// NewMarkdown creates a renderer for the given wrap width and chroma style.
func NewMarkdown(width int, codeStyle string) *Markdown {
	if codeStyle == "" {
		codeStyle = DefaultCodeStyle
	}
	return &Markdown{width: width, codeStyle: codeStyle}
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt lazily.
func (m *Markdown) SetWidth(width int) {
	m.width = width
}

// SetCodeStyle changes the chroma style for code blocks.
func (m *Markdown) SetCodeStyle(style string) {
	if style == "" {
		style = DefaultCodeStyle
	}
	m.codeStyle = style
}

// CodeStyle returns the chroma style name in use.
func (m *Markdown) CodeStyle() string {
	return m.codeStyle
}

func (m *Markdown) prose(text string) string {
	width := m.width
	if width < 20 {
		width = 20
	}
	if m.renderer == nil || m.rendered != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			return text
		}
		m.renderer = r
		m.rendered = width
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Render renders text and numbers its code blocks from firstIndex. It
// returns the rendered string and the number of code blocks it contained.
func (m *Markdown) Render(text string, firstIndex int) (string, int) {
	var parts []string
	count := 0
	for _, seg := range SplitFences(text) {
		if seg.Code == nil {
			parts = append(parts, m.prose(seg.Prose))
			continue
		}
		cb := *seg.Code
		cb.Index = firstIndex + count
		cb.Style = m.codeStyle
		cb.MaxWidth = m.width
		parts = append(parts, cb.Render())
		count++
	}
	return strings.Join(parts, "\n"), count
}
