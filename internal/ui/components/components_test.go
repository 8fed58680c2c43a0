// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

const reply = "Here is a widget:\n\n```dart\nvoid main() => runApp(MyApp());\n```\n\nAnd the config:\n\n```yaml\nname: app\n```\nDone."

func TestSplitFences(t *testing.T) {
	segs := SplitFences(reply)
	require.Len(t, segs, 5)

	assert.Contains(t, segs[0].Prose, "Here is a widget")
	require.NotNil(t, segs[1].Code)
	assert.Equal(t, "dart", segs[1].Code.Language)
	assert.Equal(t, "void main() => runApp(MyApp());", segs[1].Code.Code)
	assert.Contains(t, segs[2].Prose, "And the config")
	require.NotNil(t, segs[3].Code)
	assert.Equal(t, "yaml", segs[3].Code.Language)
	assert.Equal(t, "Done.", strings.TrimSpace(segs[4].Prose))
}

func TestSplitFences_UnclosedFenceRunsToEnd(t *testing.T) {
	segs := SplitFences("intro\n```\nline one\nline two")
	require.Len(t, segs, 2)
	require.NotNil(t, segs[1].Code)
	assert.Equal(t, "line one\nline two", segs[1].Code.Code)
	assert.Equal(t, PlainLanguageLabel, segs[1].Code.Label())
}

func TestExtractCodeBlocks_Numbering(t *testing.T) {
	blocks := ExtractCodeBlocks(reply, 3)
	require.Len(t, blocks, 2)
	assert.Equal(t, 3, blocks[0].Index)
	assert.Equal(t, 4, blocks[1].Index)

	assert.Empty(t, ExtractCodeBlocks("no code here", 1))
}

func TestCodeBlock_RenderShowsLabelAndCopyHint(t *testing.T) {
	cb := NewCodeBlock("Dart", "print('hi');")
	cb.Index = 2
	out := cb.Render()
	assert.Contains(t, out, "dart")
	assert.Contains(t, out, "copy #2")

	cb.Index = 0
	assert.NotContains(t, cb.Render(), "copy #")
}

func TestCodeBlock_Copy(t *testing.T) {
	var got string
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	writeClipboard = func(s string) error {
		got = s
		return nil
	}

	cb := NewCodeBlock("dart", "final x = 1;")
	require.NoError(t, cb.Copy())
	assert.Equal(t, "final x = 1;", got)

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	assert.Error(t, cb.Copy())
}

func TestValidCodeStyle(t *testing.T) {
	assert.True(t, ValidCodeStyle("monokai"))
	assert.False(t, ValidCodeStyle("no-such-style"))
}

func TestMarkdown_RenderCountsBlocks(t *testing.T) {
	md := NewMarkdown(80, "")
	assert.Equal(t, DefaultCodeStyle, md.CodeStyle())

	out, n := md.Render(reply, 1)
	assert.Equal(t, 2, n)
	assert.Contains(t, out, "copy #1")
	assert.Contains(t, out, "copy #2")
}

func TestStatusLine(t *testing.T) {
	guest := model.User{ID: "guest_1", Name: "Guest User"}
	assert.Equal(t, GuestStatus, StatusLine(guest))

	user := model.User{ID: "123", Name: "Rahim Uddin", Email: "r@example.com"}
	assert.Equal(t, "Logged in as Rahim", StatusLine(user))

	noName := model.User{ID: "123", Email: "r@example.com"}
	assert.Equal(t, "Logged in as r@example.com", StatusLine(noName))
}

func TestHeader_View(t *testing.T) {
	theme := styles.NewTheme()
	theme.SetSize(120, 40)
	out := Header{User: model.User{ID: "guest_1"}, ModelName: "gemini", Width: 120}.View(theme)
	assert.Contains(t, out, BrandTitle)
	assert.Contains(t, out, GuestStatus)
}

func TestSidebar(t *testing.T) {
	theme := styles.NewTheme()
	now := time.Now()
	a := model.NewSession(now)
	a.Title = "Widgets"
	b := model.NewSession(now)
	b.Title = strings.Repeat("very long title ", 5)

	sb := Sidebar{Sessions: []model.Session{a, b}, ActiveID: a.ID, Cursor: 1, Focused: true, Width: 30}
	assert.Equal(t, 3, sb.Rows())

	got, ok := sb.SessionAt(1)
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)
	_, ok = sb.SessionAt(0)
	assert.False(t, ok)

	out := sb.View(theme)
	assert.Contains(t, out, NewChatLabel)
	assert.Contains(t, out, "Widgets")
	assert.Contains(t, out, "…")
}

func TestSessionSummary(t *testing.T) {
	s := model.NewSession(time.Now())
	assert.Equal(t, "New Chat (1 message)", SessionSummary(s, 80))
}

func TestToastManager(t *testing.T) {
	now := time.Now()
	m := NewToastManager()
	m.now = func() time.Time { return now }

	id := m.Add(ToastKindStatus, "copied")
	m.Add(ToastKindWarning, "recovered")
	require.True(t, m.HasToasts())
	assert.Equal(t, "recovered", m.Toasts()[0].Message)

	now = now.Add(DefaultToastDuration)
	assert.True(t, m.Tick())
	require.Len(t, m.Toasts(), 1)
	assert.Equal(t, ToastKindWarning, m.Toasts()[0].Kind)

	m.Remove(id)
	now = now.Add(WarningToastDuration)
	assert.False(t, m.Tick())
}

func TestToastManager_KeepsNewest(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < maxToasts+2; i++ {
		m.Add(ToastKindStatus, "n")
	}
	assert.Len(t, m.Toasts(), maxToasts)
}

func TestRenderToastStack(t *testing.T) {
	assert.Empty(t, RenderToastStack(nil, 80))
	out := RenderToastStack([]Toast{NewToast(ToastKindError, "boom", time.Now())}, 80)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, styles.StatusIndicators.Error)
}

func TestAttachmentChipAndNote(t *testing.T) {
	theme := styles.NewTheme()
	var staged attach.Staged
	assert.Empty(t, AttachmentChip(&staged, theme))
	assert.Empty(t, AttachmentChip(nil, theme))

	staged.SetDocument(&model.File{Name: "main.dart", Size: 2048})
	assert.Contains(t, AttachmentChip(&staged, theme), "main.dart (2 KB)")

	msg := model.NewUserMessage("see", nil, &model.File{Name: "main.dart", Size: 1536})
	assert.Equal(t, "📎 main.dart (1.5 KB)", AttachmentNote(msg))
	img := model.NewUserMessage("", &model.Image{MimeType: "image/png"}, nil)
	assert.Equal(t, "🖼 Image attached", AttachmentNote(img))
	assert.Empty(t, AttachmentNote(model.NewAssistantMessage("hi")))
}

func TestMessageView(t *testing.T) {
	theme := styles.NewTheme()
	md := NewMarkdown(80, "")

	user := model.NewUserMessage("How do I center a widget?", nil, nil)
	out, n := MessageView{Message: user, Width: 80, ShowTimestamp: true}.Render(md, theme)
	assert.Equal(t, 0, n)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, user.TimeLabel())

	guru := model.NewAssistantMessage(reply)
	out, n = MessageView{Message: guru, Width: 80, FirstCodeIndex: 1}.Render(md, theme)
	assert.Equal(t, 2, n)
	assert.Contains(t, out, "Guru")
}

func TestMenu(t *testing.T) {
	m := Menu{Items: []string{"Delete chat", "Export"}}
	assert.Equal(t, "Delete chat", m.Selected())
	m.Move(1)
	assert.Equal(t, "Export", m.Selected())
	m.Move(1)
	assert.Equal(t, "Delete chat", m.Selected())
	m.Move(-1)
	assert.Equal(t, "Export", m.Selected())
	assert.Contains(t, m.View(styles.NewTheme()), "Export")
}

func TestThinkingIndicator(t *testing.T) {
	ti := NewThinkingIndicator()
	assert.Empty(t, ti.View())
	cmd := ti.Start()
	assert.NotNil(t, cmd)
	assert.True(t, ti.IsActive())
	assert.Contains(t, ti.View(), "thinking")
	ti.Stop()
	assert.Empty(t, ti.View())
}
