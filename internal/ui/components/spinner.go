// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// ThinkingIndicator is the spinner shown while a reply is pending.
type ThinkingIndicator struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
}

// NewThinkingIndicator creates an idle indicator.
func NewThinkingIndicator() ThinkingIndicator {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.FlutterBlue)
	return ThinkingIndicator{spinner: s, message: "Guru is thinking"}
}

// Start activates the indicator and returns its first tick.
func (t *ThinkingIndicator) Start() tea.Cmd {
	t.active = true
	t.startTime = time.Now()
	return t.spinner.Tick
}

// Stop deactivates the indicator.
func (t *ThinkingIndicator) Stop() {
	t.active = false
}

// IsActive reports whether the indicator is running.
func (t ThinkingIndicator) IsActive() bool {
	return t.active
}

// Update advances the animation. Ticks are dropped once stopped.
func (t ThinkingIndicator) Update(msg tea.Msg) (ThinkingIndicator, tea.Cmd) {
	if !t.active {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the spinner, message and elapsed seconds.
func (t ThinkingIndicator) View() string {
	if !t.active {
		return ""
	}
	text := lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true).Render(t.message + "...")
	out := t.spinner.View() + " " + text
	if !t.startTime.IsZero() {
		secs := int(time.Since(t.startTime).Seconds())
		out += lipgloss.NewStyle().Foreground(styles.TextMuted).Render(" (" + strconv.Itoa(secs) + "s)")
	}
	return out
}
