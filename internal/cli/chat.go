// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat on the active session.
//
// Command: chat
// Short:   Start an interactive chat in the terminal without the TUI
//
// Examples:
//
//	guru chat          Continue the active session
//	guru chat --new    Start a new session
//
// Interactive Commands (during chat):
//
//	/help, /h           Show available commands
//	/new                Start a new session
//	/image PATH         Attach an image to the next message
//	/file PATH          Attach a document to the next message
//	/detach             Drop the staged attachment
//	/history            Reprint the session
//	/sessions           List sessions
//	/switch ID|#        Switch to another session
//	/quit, /q           Exit chat
//	Ctrl+C              Cancel the current request, or exit at the prompt
//	Ctrl+D              Exit chat
//
// Turns are saved to the same store the TUI uses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/util"
)

// historyFileName holds typed chat lines between runs.
const historyFileName = "chat_history"

// =============================================================================
// INPUT
// =============================================================================

// LineReader reads one line of input after showing prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed reader and loads saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlashCommand)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, historyFileName)}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads a line and records non-empty input in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (c *ChatCLI) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

var slashCommands = []string{"/help", "/new", "/image ", "/file ", "/detach", "/history", "/sessions", "/switch ", "/quit"}

func completeSlashCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// chatREPL is the state of one chat run.
type chatREPL struct {
	app    *App
	in     LineReader
	out    io.Writer
	staged *attach.Staged
	render bool
}

// HandleChat runs the line-mode chat until the user quits.
func HandleChat(ctx context.Context, app *App, args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}
	if _, ok := app.Store.User(); !ok {
		return NewCommandError("chat", "start", "not signed in", errors.New("run guru login first"))
	}

	input := NewChatCLI()
	defer input.Close()

	return RunChat(ctx, app, input, args, IsStdoutTTY())
}

// RunChat drives the chat loop with an arbitrary line source.
func RunChat(ctx context.Context, app *App, in LineReader, args Args, render bool) error {
	r := &chatREPL{app: app, in: in, out: app.Out, staged: &attach.Staged{}, render: render}

	if args.NewSession {
		if _, err := app.Store.NewChat(); err != nil {
			app.Logger.Warn("failed to save new chat", zap.Error(err))
		}
	}
	if !args.Quiet {
		r.printWelcome()
	}

	for {
		line, err := r.in.Prompt(r.prompt())
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or end of scripted input.
			fmt.Fprintln(r.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		r.send(ctx, line)
	}
}

func (r *chatREPL) prompt() string {
	if label := r.staged.Label(); label != "" {
		return "[📎 " + label + "] › "
	}
	return "› "
}

func (r *chatREPL) printWelcome() {
	active := r.app.Store.Active()
	fmt.Fprintln(r.out, TitleStyle.Render("◆ Flutter AI Guru"))
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("%s · %s · /help for commands", active.Title, r.app.Config.Gemini.Model)))
	if !r.app.Gemini.IsConfigured() {
		fmt.Fprintln(r.out, WarningStyle.Render("No Gemini API key set. Replies will fail until GEMINI_API_KEY is set."))
	}
	fmt.Fprintln(r.out)
}

// send submits one turn. Ctrl+C cancels the request but not the chat.
func (r *chatREPL) send(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	turnCtx, cancel := context.WithTimeout(turnCtx, r.app.Config.Timeout())
	defer cancel()

	fmt.Fprintln(r.out, DimStyle.Render("Guru is thinking..."))
	reply, err := r.app.Controller.Submit(turnCtx, text, r.staged)
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		return
	case errors.Is(err, context.Canceled):
		r.app.Controller.DismissError()
		fmt.Fprintln(r.out, WarningStyle.Render("[Cancelled]"))
		return
	case err != nil:
		fmt.Fprintf(r.out, "%s %s\n", ErrorStyle.Render("[ERROR]"), conversation.GenericError)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(r.out, DimStyle.Render(hint))
		}
		r.app.Controller.DismissError()
		return
	}

	fmt.Fprintln(r.out, GuruStyle.Render("Guru")+" "+DimStyle.Render(reply.TimeLabel()))
	displayReply(r.out, reply.Content, r.render)
}

// command runs a slash command and reports whether the chat should end.
func (r *chatREPL) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		sess, err := r.app.Store.NewChat()
		if err != nil {
			r.app.Logger.Warn("failed to save new chat", zap.Error(err))
		}
		r.staged.Clear()
		fmt.Fprintln(r.out, SuccessStyle.Render("Started "+sess.Title))
	case "/image":
		r.attach(attach.KindImage, arg)
	case "/file", "/attach":
		r.attach(attach.KindDocument, arg)
	case "/detach":
		r.staged.Clear()
	case "/history":
		printTranscript(r.out, r.app.Store.Active(), r.render)
	case "/sessions":
		printSessionTable(r.out, r.app.Store.Sessions(), r.app.Store.ActiveID())
	case "/switch":
		sess, err := resolveSession(r.app.Store, arg)
		if err == nil {
			err = r.app.Store.Select(sess.ID)
		}
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
			return false
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("Switched to "+sess.Title))
	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[!]"), name)
	}
	return false
}

func (r *chatREPL) attach(kind attach.Kind, path string) {
	if path == "" {
		cmd := "/file"
		if kind == attach.KindImage {
			cmd = "/image"
		}
		fmt.Fprintf(r.out, "%s usage: %s PATH\n", WarningStyle.Render("[!]"), cmd)
		return
	}
	img, f, err := attach.Load(kind, util.ExpandPath(path))
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
		return
	}
	if img != nil {
		r.staged.SetImage(img)
	} else {
		r.staged.SetDocument(f)
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Attached "+r.staged.Label()))
}

const chatHelp = `Commands:
  /new                Start a new session
  /image PATH         Attach an image to the next message
  /file PATH          Attach a document to the next message
  /detach             Drop the staged attachment
  /history            Reprint the session
  /sessions           List sessions
  /switch ID|#        Switch to another session
  /quit               Exit`

// printTranscript writes every message of s.
func printTranscript(w io.Writer, s model.Session, render bool) {
	fmt.Fprintln(w, TitleStyle.Render(s.Title))
	fmt.Fprintln(w, Separator(40))
	for _, msg := range s.Messages {
		style := GuruStyle
		if msg.Role == model.RoleUser {
			style = UserStyle
		}
		fmt.Fprintln(w, style.Render(msg.Role.DisplayName())+" "+DimStyle.Render(msg.TimeLabel()))
		switch {
		case msg.File != nil:
			fmt.Fprintln(w, DimStyle.Render("📎 "+msg.File.Name+" ("+attach.FormatFileSize(msg.File.Size)+")"))
		case msg.Image != nil:
			fmt.Fprintln(w, DimStyle.Render("🖼 Image attached"))
		}
		if msg.Content != "" {
			displayReply(w, msg.Content, render)
		}
		fmt.Fprintln(w)
	}
}
