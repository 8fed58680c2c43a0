// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHelpers_IncludeIndicator(t *testing.T) {
	assert.True(t, strings.Contains(RenderSuccess("saved"), StatusIndicators.Success))
	assert.True(t, strings.Contains(RenderError("failed"), StatusIndicators.Error))
	assert.True(t, strings.Contains(RenderWarning("careful"), StatusIndicators.Warning))
	assert.True(t, strings.Contains(RenderInfo("note"), StatusIndicators.Info))
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme := &Theme{}
		theme.SetSize(tt.width, 30)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestNewTheme_StylesRender(t *testing.T) {
	theme := NewTheme()
	assert.Contains(t, theme.HeaderBrand.Render("Flutter AI Guru"), "Flutter AI Guru")
	assert.Contains(t, theme.ErrorBanner.Render("boom"), "boom")
}
