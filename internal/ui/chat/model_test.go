// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/storage"
	"github.com/jeranaias/guru-tui/internal/ui/components"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeGateway struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (g *fakeGateway) Generate(context.Context, string, []model.Message, []gemini.Attachment) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.reply, g.err
}

type fakeProvider struct {
	configured bool
	available  bool
	user       model.User
	err        error
}

func (p *fakeProvider) Available() bool  { return p.available }
func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) DeviceLogin(_ context.Context, prompt func(auth.DeviceCode)) (model.User, error) {
	prompt(auth.DeviceCode{UserCode: "ABCD-EFGH", VerificationURI: "https://www.google.com/device"})
	return p.user, p.err
}

type fakeSampler struct {
	got *gemini.Sampling
}

func (s *fakeSampler) SetSampling(v gemini.Sampling) { s.got = &v }

// =============================================================================
// HELPERS
// =============================================================================

type harness struct {
	store *session.Store
	gw    *fakeGateway
	opts  Options
}

func newHarness(t *testing.T, kv storage.KV) *harness {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryStore()
	}
	store := session.Open(kv)
	gw := &fakeGateway{reply: "Use a `Center` widget."}
	cfg := config.Default()
	cfg.Auth.ReadinessIntervalMS = 1
	cfg.Auth.ReadinessAttempts = 3
	return &harness{
		store: store,
		gw:    gw,
		opts: Options{
			Store:      store,
			Controller: conversation.NewController(store, gw, nil),
			Config:     cfg,
			ExportDir:  t.TempDir(),
		},
	}
}

func (h *harness) model() Model {
	m := New(styles.NewTheme(), h.opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func (h *harness) signedIn(t *testing.T) Model {
	t.Helper()
	require.NoError(t, h.store.SaveUser(auth.Guest(time.Now())))
	m := h.model()
	require.Equal(t, StateChat, m.State())
	return m
}

// runCmd executes cmd and any batched commands, returning the messages that
// arrive within a second.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(time.Second):
		return nil
	}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// sendAndFinish submits the composer and feeds the reply back.
func sendAndFinish(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, tea.KeyEnter)
	reply, ok := find[ReplyMsg](runCmd(cmd))
	require.True(t, ok, "expected a ReplyMsg")
	m, _ = update(t, m, reply)
	return m
}

func toastTexts(m Model) []string {
	var out []string
	for _, t := range m.Toasts() {
		out = append(out, t.Message)
	}
	return out
}

// =============================================================================
// SIGN-IN
// =============================================================================

func TestNew_StartsOnSignInWithoutUser(t *testing.T) {
	h := newHarness(t, nil)
	m := h.model()
	assert.Equal(t, StateAuth, m.State())
	assert.Contains(t, m.View(), authGoogle)
	assert.Contains(t, m.View(), authGuest)
}

func TestNew_StoredUserGoesStraightToChat(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	assert.Contains(t, m.View(), components.GuestStatus)
	assert.Contains(t, m.View(), Placeholder)
}

func TestSignIn_Guest(t *testing.T) {
	h := newHarness(t, nil)
	m := h.model()

	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)

	assert.Equal(t, StateChat, m.State())
	u, ok := h.store.User()
	require.True(t, ok)
	assert.True(t, u.IsGuest())
	assert.Equal(t, auth.GuestName, u.Name)
}

func TestSignIn_GoogleNotConfigured(t *testing.T) {
	h := newHarness(t, nil)
	m := h.model()

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, StateAuth, m.State())
	assert.Equal(t, NotConfiguredText, m.AuthMessage())
}

func TestSignIn_ProviderNeverReady(t *testing.T) {
	h := newHarness(t, nil)
	h.opts.Provider = &fakeProvider{configured: true}
	m := h.model()

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Equal(t, ConnectingText, m.AuthMessage())

	ready, ok := find[ProviderReadyMsg](runCmd(cmd))
	require.True(t, ok)
	assert.ErrorIs(t, ready.Err, auth.ErrProviderUnavailable)

	m, _ = update(t, m, ready)
	assert.Equal(t, ProviderDownText, m.AuthMessage())
	assert.Equal(t, StateAuth, m.State())
	assert.Contains(t, m.View(), ProviderDownText)
}

func TestSignIn_GoogleDeviceFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.opts.Provider = &fakeProvider{
		configured: true,
		available:  true,
		user:       model.User{ID: "1234", Name: "Rahim Uddin", Email: "rahim@example.com"},
	}
	m := h.model()

	m, cmd := press(t, m, tea.KeyEnter)
	ready, ok := find[ProviderReadyMsg](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, ready.Err)

	m, cmd = update(t, m, ready)
	code, ok := find[LoginCodeMsg](runCmd(cmd))
	require.True(t, ok)

	m, cmd = update(t, m, code)
	assert.Contains(t, m.View(), "ABCD-EFGH")

	result, ok := find[LoginResultMsg](runCmd(cmd))
	require.True(t, ok)
	m, _ = update(t, m, result)

	assert.Equal(t, StateChat, m.State())
	assert.Contains(t, m.View(), "Logged in as Rahim")
}

func TestSignIn_DeviceFlowFailureShowsBanner(t *testing.T) {
	h := newHarness(t, nil)
	h.opts.Provider = &fakeProvider{configured: true, available: true, err: errors.New("access_denied")}
	m := h.model()

	// Ignored while no sign-in is in progress.
	m, cmd := update(t, m, ProviderReadyMsg{})
	assert.Nil(t, cmd)

	m, _ = press(t, m, tea.KeyEnter)
	m, cmd = update(t, m, ProviderReadyMsg{})
	code, ok := find[LoginCodeMsg](runCmd(cmd))
	require.True(t, ok)
	m, cmd = update(t, m, code)
	result, ok := find[LoginResultMsg](runCmd(cmd))
	require.True(t, ok)
	m, _ = update(t, m, result)

	assert.Equal(t, StateAuth, m.State())
	assert.Equal(t, LoginFailedText, m.LoginError())
	assert.Contains(t, m.View(), LoginFailedText)
}

func TestSignOut_KeepsSessions(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	m, _ = press(t, m, tea.KeyCtrlN)
	require.Len(t, h.store.Sessions(), 2)

	m, _ = press(t, m, tea.KeyCtrlL)
	assert.Equal(t, StateAuth, m.State())
	_, ok := h.store.User()
	assert.False(t, ok)
	assert.Len(t, h.store.Sessions(), 2)
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_SuccessAppendsUserThenAssistant(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m = typeText(t, m, "How do I center a widget?")
	m = sendAndFinish(t, m)

	active := h.store.Active()
	require.Len(t, active.Messages, 3)
	assert.Equal(t, model.RoleUser, active.Messages[1].Role)
	assert.Equal(t, "How do I center a widget?", active.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, active.Messages[2].Role)
	assert.Equal(t, "Use a `Center` widget.", active.Messages[2].Content)
	assert.Equal(t, "How do I center a widget?", active.Title)

	assert.Empty(t, m.InputValue())
	assert.True(t, m.Staged().Empty())
	assert.False(t, h.opts.Controller.Loading())
}

func TestSend_FailureShowsBannerAndHint(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.err = gemini.ErrInvalidAPIKey
	m := h.signedIn(t)

	m = typeText(t, m, "hello")
	m = sendAndFinish(t, m)

	active := h.store.Active()
	require.Len(t, active.Messages, 2)
	assert.False(t, h.opts.Controller.Loading())

	view := m.View()
	assert.Contains(t, view, conversation.GenericError)
	assert.Contains(t, view, APIKeyHint)

	m, _ = press(t, m, tea.KeyEsc)
	assert.NotContains(t, m.View(), conversation.GenericError)
}

func TestSend_OtherFailureHasNoKeyHint(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.err = errors.New("connection reset")
	m := h.signedIn(t)

	m = typeText(t, m, "hello")
	m = sendAndFinish(t, m)

	assert.Contains(t, m.View(), conversation.GenericError)
	assert.NotContains(t, m.View(), APIKeyHint)
}

func TestSend_EmptyIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m = typeText(t, m, "   ")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Len(t, h.store.Active().Messages, 1)
	assert.Zero(t, h.gw.calls)
}

func TestSend_WhileLoadingIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m = typeText(t, m, "first")
	m, _ = press(t, m, tea.KeyEnter)
	require.True(t, h.opts.Controller.Loading())

	m = typeText(t, m, "second")
	m, _ = press(t, m, tea.KeyEnter)

	assert.Len(t, h.store.Active().Messages, 2)
	assert.Contains(t, toastTexts(m), BusyText)
	assert.Equal(t, "second", m.InputValue())
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestNewChatAndDeleteViaOptions(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	first := h.store.ActiveID()

	m, _ = press(t, m, tea.KeyCtrlN)
	require.Len(t, h.store.Sessions(), 2)
	second := h.store.ActiveID()
	assert.NotEqual(t, first, second)

	m, _ = press(t, m, tea.KeyCtrlO)
	require.True(t, m.MenuOpen())
	m, _ = press(t, m, tea.KeyEnter) // Delete chat

	assert.False(t, m.MenuOpen())
	require.Len(t, h.store.Sessions(), 1)
	assert.Equal(t, first, h.store.ActiveID())
}

func TestDeleteLastChatLeavesFreshSession(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	old := h.store.ActiveID()

	m, _ = press(t, m, tea.KeyCtrlO)
	m, _ = press(t, m, tea.KeyEnter)

	sessions := h.store.Sessions()
	require.Len(t, sessions, 1)
	assert.NotEqual(t, old, sessions[0].ID)
	assert.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, model.WelcomeMessageID, sessions[0].Messages[0].ID)
}

func TestSidebar_SelectAndDelete(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	m, _ = press(t, m, tea.KeyCtrlN)
	sessions := h.store.Sessions()
	require.Len(t, sessions, 2)

	// New chats go to the top, so the older one is on row 2.
	target := sessions[1].ID
	require.NotEqual(t, target, h.store.ActiveID())

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, target, h.store.ActiveID())

	m, _ = press(t, m, tea.KeyTab)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Len(t, h.store.Sessions(), 1)
	assert.NotEqual(t, target, h.store.ActiveID())
}

func TestToggleSidebar(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)
	open := m.SidebarOpen()
	m, _ = press(t, m, tea.KeyCtrlB)
	assert.Equal(t, !open, m.SidebarOpen())
}

func TestExportActiveChat(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m, _ = press(t, m, tea.KeyCtrlO)
	m, _ = press(t, m, tea.KeyDown)
	m, cmd := press(t, m, tea.KeyEnter)

	done, ok := find[ExportDoneMsg](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, ".md", filepath.Ext(done.Path))
	_, err := os.Stat(done.Path)
	require.NoError(t, err)

	m, _ = update(t, m, done)
	assert.Contains(t, toastTexts(m), "Exported to "+done.Path)
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func TestAttachDocument(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	path := filepath.Join(t.TempDir(), "main.dart")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}\n"), 0o600))

	m, _ = press(t, m, tea.KeyCtrlF)
	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Empty(t, m.InputValue(), "path prompt must not leak into the composer")

	loaded, ok := find[AttachmentLoadedMsg](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	m, _ = update(t, m, loaded)

	require.Equal(t, attach.KindDocument, m.Staged().Kind())
	assert.Contains(t, m.View(), "main.dart (15 B)")

	// Attachment-only submission.
	m = sendAndFinish(t, m)
	active := h.store.Active()
	require.Len(t, active.Messages, 3)
	require.NotNil(t, active.Messages[1].File)
	assert.Equal(t, conversation.FileTitle, active.Title)
	assert.True(t, m.Staged().Empty())
}

func TestAttachDocument_Unsupported(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m, _ = press(t, m, tea.KeyCtrlF)
	m = typeText(t, m, "/tmp/setup.exe")
	m, cmd := press(t, m, tea.KeyEnter)

	loaded, ok := find[AttachmentLoadedMsg](runCmd(cmd))
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, attach.ErrUnsupportedDocument)
	m, _ = update(t, m, loaded)

	assert.True(t, m.Staged().Empty())
	require.NotEmpty(t, m.Toasts())
	assert.Equal(t, components.ToastKindError, m.Toasts()[0].Kind)
}

func TestAttachImage_ThenClear(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m, _ = update(t, m, AttachmentLoadedMsg{Kind: attach.KindImage, Image: &model.Image{Data: "aGk=", MimeType: "image/png"}})
	require.Equal(t, attach.KindImage, m.Staged().Kind())
	assert.Contains(t, m.View(), "Image attached")

	m, _ = press(t, m, tea.KeyCtrlX)
	assert.True(t, m.Staged().Empty())
}

func TestPromptEscCancels(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m, _ = press(t, m, tea.KeyCtrlP)
	m = typeText(t, m, "cat.png")
	m, cmd := press(t, m, tea.KeyEsc)
	assert.Nil(t, cmd)
	assert.True(t, m.Staged().Empty())
	assert.Empty(t, m.InputValue())
}

// =============================================================================
// CODE BLOCKS
// =============================================================================

func TestCopyCode_NoBlocks(t *testing.T) {
	h := newHarness(t, nil)
	m := h.signedIn(t)

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Contains(t, toastTexts(m), NoCodeBlocksText)
}

func TestCodeBlocksAreNumbered(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.reply = "Try:\n```dart\nprint('a');\n```\nor\n```dart\nprint('b');\n```"
	m := h.signedIn(t)

	m = typeText(t, m, "print")
	m = sendAndFinish(t, m)

	blocks := m.CodeBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Index)
	assert.Equal(t, "print('b');", blocks[1].Code)

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Equal(t, promptCopy, m.promptKind)
	assert.Equal(t, "2", m.prompt.Value())

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, promptNone, m.promptKind)
}

// =============================================================================
// CONFIG AND NOTICES
// =============================================================================

func TestConfigReloaded_AppliesSampling(t *testing.T) {
	t.Cleanup(config.ResetGlobalForTesting)
	h := newHarness(t, nil)
	sampler := &fakeSampler{}
	h.opts.Sampler = sampler
	m := h.signedIn(t)

	cfg := config.Default()
	cfg.Gemini.Temperature = 0.2
	cfg.UI.CodeStyle = "dracula"
	m, _ = update(t, m, ConfigReloadedMsg{Config: cfg})

	require.NotNil(t, sampler.got)
	assert.Equal(t, 0.2, sampler.got.Temperature)
	assert.Equal(t, "dracula", m.markdown.CodeStyle())
	assert.Same(t, cfg, m.Config())
	assert.Contains(t, toastTexts(m), ConfigReloadedText)
}

func TestRecoveryNoticeShownOnce(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(session.ChatsKey, []byte("{not json")))
	h := newHarness(t, kv)
	m := h.signedIn(t)

	assert.Contains(t, toastTexts(m), session.RecoveryNotice)
	assert.Empty(t, h.store.TakeRecoveryNotice())
}

func TestSamplingFor(t *testing.T) {
	s := SamplingFor(config.Default())
	assert.Equal(t, gemini.DefaultSampling(), s)
}
