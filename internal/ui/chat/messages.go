// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ReplyMsg carries the outcome of one model request.
type ReplyMsg struct {
	Turn  *conversation.Turn
	Reply string
	Err   error
}

// ProviderReadyMsg reports whether the identity provider became usable.
type ProviderReadyMsg struct {
	Err error
}

// loginEvents carries the device code and the final result of a sign-in.
type loginEvents struct {
	codes  chan auth.DeviceCode
	result chan loginResult
}

type loginResult struct {
	user model.User
	err  error
}

// LoginCodeMsg asks the user to enter a device code.
type LoginCodeMsg struct {
	Code   auth.DeviceCode
	events *loginEvents
}

// LoginResultMsg ends a sign-in attempt.
type LoginResultMsg struct {
	User model.User
	Err  error
}

// AttachmentLoadedMsg carries a file read for the staged attachment.
type AttachmentLoadedMsg struct {
	Kind  attach.Kind
	Image *model.Image
	File  *model.File
	Err   error
}

// ExportDoneMsg reports a finished session export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// ConfigReloadedMsg delivers a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMANDS
// =============================================================================

// runTurn calls the gateway off the UI goroutine.
func runTurn(ctrl *conversation.Controller, turn *conversation.Turn, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := ctrl.Run(ctx, turn)
		return ReplyMsg{Turn: turn, Reply: reply, Err: err}
	}
}

// waitProvider waits for the identity provider with bounded polling.
func waitProvider(p auth.Prober, interval time.Duration, attempts int) tea.Cmd {
	return func() tea.Msg {
		return ProviderReadyMsg{Err: auth.WaitReady(context.Background(), p, interval, attempts)}
	}
}

// startLogin runs the device flow in the background and returns the first
// event it produces.
func startLogin(ctx context.Context, p LoginProvider) tea.Cmd {
	ev := &loginEvents{
		codes:  make(chan auth.DeviceCode, 1),
		result: make(chan loginResult, 1),
	}
	go func() {
		user, err := p.DeviceLogin(ctx, func(c auth.DeviceCode) {
			ev.codes <- c
		})
		ev.result <- loginResult{user: user, err: err}
	}()
	return nextLoginEvent(ev)
}

func nextLoginEvent(ev *loginEvents) tea.Cmd {
	return func() tea.Msg {
		// The code is always sent before the result.
		select {
		case c := <-ev.codes:
			return LoginCodeMsg{Code: c, events: ev}
		default:
		}
		select {
		case c := <-ev.codes:
			return LoginCodeMsg{Code: c, events: ev}
		case r := <-ev.result:
			return LoginResultMsg{User: r.user, Err: r.err}
		}
	}
}

// loadAttachment reads and encodes a file for staging.
func loadAttachment(kind attach.Kind, path string) tea.Cmd {
	return func() tea.Msg {
		img, f, err := attach.Load(kind, path)
		return AttachmentLoadedMsg{Kind: kind, Image: img, File: f, Err: err}
	}
}

// waitForConfig delivers the next reloaded config.
func waitForConfig(updates <-chan *config.Config) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-updates
		if !ok {
			return nil
		}
		return ConfigReloadedMsg{Config: cfg}
	}
}
