// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask
// Short:   Ask a single question
// Aliases: a
//
// Examples:
//
//	guru ask "How do I center a widget?"
//	guru ask -i screenshot.png "Why is this overflowing?"
//	guru ask -f lib/main.dart "Explain this file"
//	cat error.log | guru ask "What does this mean?"
//	guru ask --json "What is a StatefulWidget?"
//
// The question is not saved to any session.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
)

// MaxStdinQuestion caps a question piped on stdin.
const MaxStdinQuestion = 256 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders a reply for the terminal, returning it unchanged when
// glamour cannot be set up.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayReply writes a reply, rendered only when stdout is a terminal.
func displayReply(w io.Writer, reply string, tty bool) {
	if tty {
		fmt.Fprint(w, renderMarkdown(reply, GetTerminalWidth()))
		return
	}
	fmt.Fprintln(w, strings.TrimRight(reply, "\n"))
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// AskResult is the --json payload of ask.
type AskResult struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Model      string `json:"model"`
	Attachment string `json:"attachment,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// HandleAsk answers one question.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	question := strings.TrimSpace(args.Query)
	if question == "" && !IsTTY() {
		piped, err := io.ReadAll(io.LimitReader(app.In, MaxStdinQuestion))
		if err != nil {
			return NewCommandError("ask", "read", "could not read stdin", err)
		}
		question = strings.TrimSpace(string(piped))
	}

	img, file, err := loadAskAttachment(args)
	if err != nil {
		return err
	}
	if question == "" && img == nil && file == nil {
		return ErrMissingArgument("question", `guru ask "How do I add padding to a Column?"`)
	}

	ctx, cancel := context.WithTimeout(ctx, app.Config.Timeout())
	defer cancel()

	start := time.Now()
	app.Logger.Debug("ask", zap.Int("question_len", len(question)), zap.Bool("image", img != nil), zap.Bool("file", file != nil))
	answer, err := app.Gateway.Generate(ctx, question, nil, gemini.AttachmentsFor(img, file))
	if err != nil {
		app.Logger.Error("ask failed", zap.Error(err))
		return NewCommandError("ask", "generate", "the model request failed", err)
	}

	if args.JSON {
		result := AskResult{
			Question:   question,
			Answer:     answer,
			Model:      app.Config.Gemini.Model,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if file != nil {
			result.Attachment = file.Name
		} else if img != nil {
			result.Attachment = img.MimeType
		}
		return NewJSONResponse("ask", result).Write(app.Out)
	}

	displayReply(app.Out, answer, IsStdoutTTY())
	if !args.Quiet && IsStdoutTTY() {
		fmt.Fprintln(app.Out, DimStyle.Render(fmt.Sprintf("%s · %s", app.Config.Gemini.Model, time.Since(start).Round(100*time.Millisecond))))
	}
	return nil
}

func loadAskAttachment(args Args) (*model.Image, *model.File, error) {
	switch {
	case args.Image != "":
		img, _, err := attach.Load(attach.KindImage, args.Image)
		if err != nil {
			return nil, nil, NewCommandError("ask", "attach", "could not attach "+args.Image, err)
		}
		return img, nil, nil
	case args.File != "":
		_, f, err := attach.Load(attach.KindDocument, args.File)
		if err != nil {
			return nil, nil, NewCommandError("ask", "attach", "could not attach "+args.File, err)
		}
		return nil, f, nil
	default:
		return nil, nil, nil
	}
}
