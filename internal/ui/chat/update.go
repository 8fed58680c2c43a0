// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/export"
	"github.com/jeranaias/guru-tui/internal/ui/components"
	"github.com/jeranaias/guru-tui/internal/util"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.cancelLogin != nil {
				m.cancelLogin()
			}
			return m, tea.Quit
		}
		if m.state == StateAuth {
			return m.handleAuthKey(msg)
		}
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case ProviderReadyMsg:
		return m.handleProviderReady(msg)

	case LoginCodeMsg:
		code := msg.Code
		m.deviceCode = &code
		m.authMsg = ""
		return m, nextLoginEvent(msg.events)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case AttachmentLoadedMsg:
		return m.handleAttachmentLoaded(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.logger.Error("export failed", zap.Error(msg.Err))
			return m, m.toast(components.ToastKindError, "Export failed: "+msg.Err.Error())
		}
		return m, m.toast(components.ToastKindSuccess, "Exported to "+msg.Path)

	case ConfigReloadedMsg:
		return m.applyConfig(msg.Config)

	case components.ToastTickMsg:
		if m.toasts.Tick() {
			return m, components.ToastTickCmd()
		}
		m.ticking = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		if m.thinking.IsActive() {
			m.refresh()
		}
		return m, cmd
	}

	if m.state == StateChat && m.promptKind == promptNone && m.menu == nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// toast shows a notice and makes sure expiry is ticking.
func (m *Model) toast(kind components.ToastKind, text string) tea.Cmd {
	m.toasts.Add(kind, text)
	if m.ticking {
		return nil
	}
	m.ticking = true
	return components.ToastTickCmd()
}

// =============================================================================
// SIGN-IN
// =============================================================================

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.cancelLogin != nil {
			m.cancelLogin()
			m.cancelLogin = nil
		}
		m.deviceCode = nil
		m.authBusy = false
		return m, nil
	case m.authBusy:
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.authMenu.Move(-1)
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.FocusSidebar):
		m.authMenu.Move(1)
	case key.Matches(msg, m.keys.Submit):
		switch m.authMenu.Selected() {
		case authGoogle:
			return m.signInWithGoogle()
		case authGuest:
			return m.signInAsGuest()
		}
	}
	return m, nil
}

func (m Model) signInWithGoogle() (tea.Model, tea.Cmd) {
	m.loginErr = ""
	if m.provider == nil || !m.provider.Configured() {
		m.authMsg = NotConfiguredText
		return m, nil
	}
	m.authBusy = true
	m.authMsg = ConnectingText
	return m, waitProvider(m.provider, m.cfg.ReadinessInterval(), m.cfg.Auth.ReadinessAttempts)
}

func (m Model) signInAsGuest() (tea.Model, tea.Cmd) {
	if err := m.store.SaveUser(auth.Guest(m.now())); err != nil {
		m.logger.Warn("failed to save guest user", zap.Error(err))
	}
	return m.enterChat()
}

func (m Model) handleProviderReady(msg ProviderReadyMsg) (tea.Model, tea.Cmd) {
	if !m.authBusy {
		// Cancelled while waiting.
		return m, nil
	}
	if msg.Err != nil {
		m.logger.Warn("identity provider not ready", zap.Error(msg.Err))
		m.authBusy = false
		m.authMsg = ProviderDownText
		return m, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelLogin = cancel
	return m, startLogin(ctx, m.provider)
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	m.authBusy = false
	m.deviceCode = nil
	if m.cancelLogin != nil {
		m.cancelLogin()
		m.cancelLogin = nil
	}
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			m.authMsg = ""
			return m, nil
		}
		m.logger.Error("sign-in failed", zap.Error(msg.Err))
		m.authMsg = ""
		m.loginErr = LoginFailedText
		if errors.Is(msg.Err, auth.ErrProviderUnavailable) {
			m.authMsg = ProviderDownText
		}
		return m, nil
	}
	if err := m.store.SaveUser(msg.User); err != nil {
		m.logger.Warn("failed to save user", zap.Error(err))
	}
	return m.enterChat()
}

func (m Model) enterChat() (tea.Model, tea.Cmd) {
	m.state = StateChat
	m.authMsg = ""
	m.loginErr = ""
	m.authMenu.Cursor = 0
	m.focus = focusInput
	m.input.Focus()
	m.refresh()
	return m, textinput.Blink
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	if err := m.store.ClearUser(); err != nil {
		m.logger.Warn("failed to clear user", zap.Error(err))
	}
	m.state = StateAuth
	m.menu = nil
	m.promptKind = promptNone
	m.showHelp = false
	return m, nil
}

// =============================================================================
// CHAT KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptKind != promptNone {
		return m.handlePromptKey(msg)
	}
	if m.menu != nil {
		return m.handleMenuKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		return m.newChat()
	case key.Matches(msg, m.keys.Options):
		m.menu = &components.Menu{
			Title: m.store.Active().Title,
			Items: []string{optDelete, optExportMD, optExportJSON, optCancel},
		}
		return m, nil
	case key.Matches(msg, m.keys.AttachImage):
		return m.openPrompt(promptImage, "")
	case key.Matches(msg, m.keys.AttachDocument):
		return m.openPrompt(promptDocument, "")
	case key.Matches(msg, m.keys.ClearAttachment):
		m.staged.Clear()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.CopyCode):
		if len(m.codeBlocks) == 0 {
			return m, m.toast(components.ToastKindStatus, NoCodeBlocksText)
		}
		return m.openPrompt(promptCopy, strconv.Itoa(len(m.codeBlocks)))
	case key.Matches(msg, m.keys.SignOut):
		return m.signOut()
	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.setFocus(focusInput)
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.FocusSidebar):
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
		} else {
			m.sidebarOpen = true
			m.setFocus(focusSidebar)
			m.sidebarCursor = m.activeRow()
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		if m.ctrl.Error() != "" {
			m.ctrl.DismissError()
			m.refresh()
			return m, nil
		}
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
			m.refresh()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.send()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := len(m.store.Sessions()) + 1
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sidebarCursor < rows-1 {
			m.sidebarCursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if m.sidebarCursor == 0 {
			return m.newChat()
		}
		sessions := m.store.Sessions()
		return m.selectChat(sessions[m.sidebarCursor-1].ID)
	case key.Matches(msg, m.keys.DeleteChat):
		if m.sidebarCursor == 0 {
			return m, nil
		}
		sessions := m.store.Sessions()
		return m.deleteChat(sessions[m.sidebarCursor-1].ID)
	}
	m.refresh()
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.menu = nil
	case key.Matches(msg, m.keys.Up):
		m.menu.Move(-1)
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.FocusSidebar):
		m.menu.Move(1)
	case key.Matches(msg, m.keys.Submit):
		choice := m.menu.Selected()
		m.menu = nil
		switch choice {
		case optDelete:
			return m.deleteChat(m.store.ActiveID())
		case optExportMD:
			return m, m.exportActive("md")
		case optExportJSON:
			return m, m.exportActive("json")
		}
	}
	return m, nil
}

func (m Model) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.promptKind = kind
	switch kind {
	case promptImage:
		m.prompt.Prompt = "Image path: "
		m.prompt.Placeholder = "~/Pictures/screenshot.png"
	case promptDocument:
		m.prompt.Prompt = "File path: "
		m.prompt.Placeholder = strings.Join(attach.DocumentExtensions, " ")
	case promptCopy:
		m.prompt.Prompt = "Copy code block #"
		m.prompt.Placeholder = ""
	}
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.input.Blur()
	m.refresh()
	return m, m.prompt.Focus()
}

func (m Model) closePrompt() Model {
	m.promptKind = promptNone
	m.prompt.Blur()
	m.prompt.SetValue("")
	if m.focus == focusInput {
		m.input.Focus()
	}
	m.refresh()
	return m
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.closePrompt(), nil
	case key.Matches(msg, m.keys.Submit):
		kind := m.promptKind
		value := strings.TrimSpace(m.prompt.Value())
		m = m.closePrompt()
		if value == "" {
			return m, nil
		}
		switch kind {
		case promptImage:
			return m, loadAttachment(attach.KindImage, util.ExpandPath(value))
		case promptDocument:
			return m, loadAttachment(attach.KindDocument, util.ExpandPath(value))
		case promptCopy:
			return m.copyCode(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// =============================================================================
// INTENTS
// =============================================================================

func (m Model) newChat() (tea.Model, tea.Cmd) {
	if _, err := m.store.NewChat(); err != nil {
		m.logger.Warn("failed to save new chat", zap.Error(err))
	}
	m.setFocus(focusInput)
	m.sidebarCursor = m.activeRow()
	m.refresh()
	return m, nil
}

func (m Model) selectChat(id string) (tea.Model, tea.Cmd) {
	if err := m.store.Select(id); err != nil {
		m.logger.Warn("failed to select chat", zap.String("session", id), zap.Error(err))
		return m, nil
	}
	m.setFocus(focusInput)
	m.refresh()
	return m, nil
}

func (m Model) deleteChat(id string) (tea.Model, tea.Cmd) {
	if err := m.store.Delete(id); err != nil {
		m.logger.Warn("failed to delete chat", zap.String("session", id), zap.Error(err))
	}
	rows := len(m.store.Sessions()) + 1
	if m.sidebarCursor >= rows {
		m.sidebarCursor = rows - 1
	}
	m.refresh()
	return m, nil
}

func (m Model) send() (tea.Model, tea.Cmd) {
	turn, err := m.ctrl.Begin(m.input.Value(), m.staged)
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		return m, nil
	case errors.Is(err, conversation.ErrBusy):
		return m, m.toast(components.ToastKindStatus, BusyText)
	case err != nil:
		m.logger.Error("submission rejected", zap.Error(err))
		return m, nil
	}

	m.input.Reset()
	cmd := m.thinking.Start()
	m.refresh()
	return m, tea.Batch(cmd, runTurn(m.ctrl, turn, m.cfg.Timeout()))
}

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.ctrl.Fail(msg.Turn, msg.Err)
	} else {
		m.ctrl.Complete(msg.Turn, msg.Reply)
	}
	m.thinking.Stop()
	m.refresh()
	return m, nil
}

func (m Model) handleAttachmentLoaded(msg AttachmentLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("attachment rejected", zap.Error(msg.Err))
		text := "Could not attach file: " + msg.Err.Error()
		if errors.Is(msg.Err, attach.ErrUnsupportedDocument) {
			text = "Unsupported file type. Allowed: " + strings.Join(attach.DocumentExtensions, " ")
		}
		return m, m.toast(components.ToastKindError, text)
	}
	if msg.Image != nil {
		m.staged.SetImage(msg.Image)
	} else if msg.File != nil {
		m.staged.SetDocument(msg.File)
	}
	m.refresh()
	return m, nil
}

func (m Model) copyCode(value string) (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(strings.TrimPrefix(value, "#"))
	if err != nil || n < 1 || n > len(m.codeBlocks) {
		return m, m.toast(components.ToastKindWarning, "No code block #"+value)
	}
	if err := m.codeBlocks[n-1].Copy(); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		return m, m.toast(components.ToastKindError, "Clipboard unavailable: "+err.Error())
	}
	return m, m.toast(components.ToastKindSuccess, "Copied code block #"+strconv.Itoa(n))
}

func (m Model) exportActive(format string) tea.Cmd {
	sess := m.store.Active()
	opts := export.DefaultOptions()
	opts.OutputDir = m.exportDir
	opts.IncludeTimestamps = m.cfg.UI.ShowTimestamps
	opts.Now = m.now
	return func() tea.Msg {
		path, err := export.ExportSession(&sess, format, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (m Model) applyConfig(cfg *config.Config) (tea.Model, tea.Cmd) {
	if cfg == nil {
		return m, waitForConfig(m.updates)
	}
	config.SetGlobal(cfg)
	m.cfg = cfg
	m.markdown.SetCodeStyle(cfg.UI.CodeStyle)
	if m.sampler != nil {
		m.sampler.SetSampling(SamplingFor(cfg))
	}
	m.logger.Info("configuration reloaded",
		zap.String("code_style", cfg.UI.CodeStyle),
		zap.Float64("temperature", cfg.Gemini.Temperature))
	m.refresh()
	return m, tea.Batch(m.toast(components.ToastKindStatus, ConfigReloadedText), waitForConfig(m.updates))
}

// activeRow is the sidebar row of the active session.
func (m Model) activeRow() int {
	active := m.store.ActiveID()
	for i, s := range m.store.Sessions() {
		if s.ID == active {
			return i + 1
		}
	}
	return 0
}
