// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Sign-in commands.
//
// Commands:
//
//	login [--guest]     Sign in with Google (device code) or as a guest
//	logout              Forget the signed-in user; saved chats are kept
//	whoami              Show the signed-in user
//
// Examples:
//
//	guru login
//	guru login --guest
//	guru whoami --json
package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/util"
)

// loginTimeout bounds the whole device flow, including the user's typing.
const loginTimeout = 10 * time.Minute

// WhoamiResult is the --json payload of whoami and login.
type WhoamiResult struct {
	SignedIn bool   `json:"signed_in"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Guest    bool   `json:"guest"`
}

func whoamiResult(u model.User, ok bool) WhoamiResult {
	if !ok {
		return WhoamiResult{}
	}
	return WhoamiResult{SignedIn: true, ID: u.ID, Name: u.Name, Email: u.Email, Guest: u.IsGuest()}
}

// HandleLogin signs the user in and saves the identity.
func HandleLogin(ctx context.Context, app *App, args Args) error {
	var user model.User
	if args.Guest {
		user = auth.Guest(time.Now())
	} else {
		u, err := googleLogin(ctx, app, args)
		if err != nil {
			return err
		}
		user = u
	}

	if err := app.Store.SaveUser(user); err != nil {
		return NewCommandError("login", "save", "could not save the signed-in user", err)
	}
	app.Logger.Info("signed in", zap.Bool("guest", user.IsGuest()))

	if args.JSON {
		return NewJSONResponse("login", whoamiResult(user, true)).Write(app.Out)
	}
	fmt.Fprintln(app.Out, SuccessStyle.Render("Logged in as "+util.FirstName(user.Name)))
	return nil
}

func googleLogin(ctx context.Context, app *App, args Args) (model.User, error) {
	if !app.StartProvider(ctx) {
		return model.User{}, NewCommandError("login", "google", "Google sign-in is not configured", auth.ErrNotConfigured)
	}

	cfg := app.Config
	if err := auth.WaitReady(ctx, app.Provider, cfg.ReadinessInterval(), cfg.Auth.ReadinessAttempts); err != nil {
		return model.User{}, NewCommandError("login", "google", "Google sign-in is unavailable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	user, err := app.Provider.DeviceLogin(ctx, func(c auth.DeviceCode) {
		if args.JSON {
			// Keep stdout a single JSON document.
			fmt.Fprintf(app.Err, "Visit %s and enter %s\n", c.VerificationURI, c.UserCode)
			return
		}
		fmt.Fprintln(app.Out, KeyValue("Visit", c.VerificationURI))
		fmt.Fprintln(app.Out, KeyValue("Enter code", TitleStyle.Render(c.UserCode)))
		fmt.Fprintln(app.Out, DimStyle.Render("Waiting for you to approve the sign-in..."))
	})
	if err != nil {
		app.Logger.Warn("device login failed", zap.Error(err))
		return model.User{}, NewCommandError("login", "google", "sign-in did not complete", err)
	}
	return user, nil
}

// HandleLogout removes the signed-in user.
func HandleLogout(app *App, args Args) error {
	u, ok := app.Store.User()
	if err := app.Store.ClearUser(); err != nil {
		return NewCommandError("logout", "clear", "could not sign out", err)
	}
	if args.JSON {
		return NewJSONResponse("logout", map[string]bool{"signed_out": ok}).Write(app.Out)
	}
	if !args.Quiet {
		if ok {
			fmt.Fprintln(app.Out, "Signed out "+util.FirstName(u.Name)+".")
		} else {
			fmt.Fprintln(app.Out, "Not signed in.")
		}
	}
	return nil
}

// HandleWhoami prints the signed-in user.
func HandleWhoami(app *App, args Args) error {
	u, ok := app.Store.User()
	if args.JSON {
		return NewJSONResponse("whoami", whoamiResult(u, ok)).Write(app.Out)
	}
	if !ok {
		fmt.Fprintln(app.Out, "Not signed in. Run: guru login")
		return nil
	}

	fmt.Fprintln(app.Out, KeyValue("Name", u.Name))
	if u.Email != "" {
		fmt.Fprintln(app.Out, KeyValue("Email", u.Email))
	}
	kind := "Google"
	if u.IsGuest() {
		kind = "Guest"
	}
	fmt.Fprintln(app.Out, KeyValue("Account", kind))
	return nil
}
