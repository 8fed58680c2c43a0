// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of guru.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags plus the raw command arguments
//   - App: Configuration, logger, store, gateway and identity provider wired
//     together for one process
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	app, err := cli.NewApp(args)
//	defer app.Close()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, app, args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default)
//   - ask: One-shot question with an optional image or document
//   - chat: Line-mode chat on the active session
//   - sessions: List, show, delete and export saved chats
//   - login, logout, whoami: Identity management
//   - config: Show, get, set and reset configuration values
//
// Commands that print data accept --json.
package cli
