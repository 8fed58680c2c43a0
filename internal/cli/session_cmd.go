// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Saved chat management.
//
// Command: sessions [subcommand]
// Short:   List, show, delete and export saved chats
// Aliases: session
//
// Subcommands:
//
//	list (default)      List saved chats, newest first
//	show <id|#>         Print a chat transcript
//	delete <id|#>       Delete a chat
//	export <id|#>       Write a chat to a Markdown or JSON file
//
// Examples:
//
//	guru sessions
//	guru sessions show 2
//	guru sessions delete 01J9Z... --confirm
//	guru sessions export 1 --format json --output ~/Desktop
//
// Sessions can be addressed by their 1-based position in the list or by ID.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/guru-tui/internal/export"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/util"
)

// SessionInfo is one row of sessions list --json.
type SessionInfo struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Active   bool   `json:"active"`
}

// HandleSessions dispatches the sessions subcommands.
func HandleSessions(app *App, args Args) error {
	p := NewArgParser(args.Raw)
	switch strings.ToLower(args.Subcommand) {
	case "", "list", "ls":
		return listSessions(app, args)
	case "show", "view":
		return showSession(app, args, p.Positional(1))
	case "delete", "rm":
		return deleteSession(app, args, p.Positional(1), p.BoolFlag("confirm") || p.BoolFlag("yes") || p.BoolFlag("y"))
	case "export":
		return exportSession(app, args, p.Positional(1), p.FlagOrDefault("format", "md"), p.FlagOrDefault("output", "."))
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand, "unknown sessions subcommand", "guru sessions list")
	}
}

func listSessions(app *App, args Args) error {
	sessions := app.Store.Sessions()
	activeID := app.Store.ActiveID()

	if args.JSON {
		rows := make([]SessionInfo, 0, len(sessions))
		for i, s := range sessions {
			rows = append(rows, SessionInfo{
				Index:    i + 1,
				ID:       s.ID,
				Title:    s.Title,
				Messages: len(s.Messages),
				Active:   s.ID == activeID,
			})
		}
		return NewJSONResponse("sessions list", rows).Write(app.Out)
	}

	printSessionTable(app.Out, sessions, activeID)
	return nil
}

// printSessionTable writes a numbered session list, marking the active one.
func printSessionTable(w io.Writer, sessions []model.Session, activeID string) {
	fmt.Fprintln(w, TitleStyle.Render("Sessions"))
	fmt.Fprintln(w, Separator(50))
	for i, s := range sessions {
		marker := "  "
		if s.ID == activeID {
			marker = SuccessStyle.Render("▸ ")
		}
		fmt.Fprintf(w, "%s%2d  %-32s %s\n", marker, i+1, util.TruncateWidth(s.Title, 32),
			DimStyle.Render(fmt.Sprintf("%d messages", len(s.Messages))))
	}
}

func showSession(app *App, args Args, ref string) error {
	sess, err := resolveSession(app.Store, ref)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("sessions show", sess).Write(app.Out)
	}
	printTranscript(app.Out, sess, IsStdoutTTY())
	return nil
}

func deleteSession(app *App, args Args, ref string, confirmed bool) error {
	sess, err := resolveSession(app.Store, ref)
	if err != nil {
		return err
	}

	ok, err := RequireConfirmation(fmt.Sprintf("delete %q", sess.Title), ConfirmationOptions{
		ConfirmFlag: confirmed,
		JSONMode:    args.JSON,
		In:          app.In,
		Out:         app.Out,
	})
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(app.Out, "Cancelled.")
		return nil
	}

	if err := app.Store.Delete(sess.ID); err != nil {
		return NewCommandError("sessions", "delete", "could not delete "+sess.Title, err)
	}
	if args.JSON {
		return NewJSONResponse("sessions delete", map[string]string{"id": sess.ID, "title": sess.Title}).Write(app.Out)
	}
	if !args.Quiet {
		fmt.Fprintln(app.Out, SuccessStyle.Render("Deleted "+sess.Title))
	}
	return nil
}

func exportSession(app *App, args Args, ref, format, dir string) error {
	sess, err := resolveSession(app.Store, ref)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.OutputDir = util.ExpandPath(dir)
	path, err := export.ExportSession(&sess, format, opts)
	if err != nil {
		return NewCommandError("sessions", "export", "could not export "+sess.Title, err)
	}

	if args.JSON {
		return NewJSONResponse("sessions export", map[string]string{"id": sess.ID, "path": path, "format": format}).Write(app.Out)
	}
	fmt.Fprintln(app.Out, path)
	return nil
}

// resolveSession finds a session by 1-based list position or by ID.
func resolveSession(store *session.Store, ref string) (model.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Session{}, ErrMissingArgument("session", "guru sessions show 1")
	}

	if n, err := strconv.Atoi(ref); err == nil {
		sessions := store.Sessions()
		if n >= 1 && n <= len(sessions) {
			return sessions[n-1], nil
		}
		return model.Session{}, NewNotFoundError("session", ref)
	}

	if sess, ok := store.Session(ref); ok {
		return sess, nil
	}
	return model.Session{}, NewNotFoundError("session", ref)
}
