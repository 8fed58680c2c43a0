// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for guru.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdSessions
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdSessions:
		return "sessions"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdWhoami:
		return "whoami"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// NeedsApp reports whether the command needs storage and the gateway.
func (c Command) NeedsApp() bool {
	switch c {
	case CmdConfig, CmdVersion, CmdHelp:
		return false
	default:
		return true
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool   // Output in JSON format
	Model   string // Overrides gemini.model

	// Command-specific
	Query      string
	Image      string // ask -i
	File       string // ask -f
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Guest      bool // login --guest
	NewSession bool // chat --new

	// Raw args (remaining after the command word)
	Raw []string
}

const usageText = `guru - Flutter AI Guru in your terminal

Ask questions about Flutter and Dart, attach screenshots or source files,
and keep every conversation on disk.

Usage:
  guru                              Start the TUI (default)
  guru ask [flags] "question"       Ask a single question
  guru chat [--new]                 Line-mode chat on the active session
  guru sessions [subcommand]        Manage saved chats
  guru login [--guest]              Sign in with Google or as a guest
  guru logout                       Forget the signed-in user
  guru whoami                       Show the signed-in user
  guru config [subcommand]          Configuration
  guru version                      Show version information
  guru help                         Show this help

Ask Flags:
  -i, --image PATH                  Attach an image (png, jpeg, webp, gif)
  -f, --file PATH                   Attach a document (.dart .yaml .json .pdf ...)

Session Commands:
  guru sessions list                List saved chats (default)
  guru sessions show <id|#>         Print a chat transcript
  guru sessions delete <id|#>       Delete a chat
    --confirm                       Skip the confirmation prompt
  guru sessions export <id|#>       Write a chat to a file
    --format md|json                Export format (default: md)
    --output DIR                    Output directory (default: .)

Config Commands:
  guru config show                  Show the effective configuration
  guru config get <key>             Print one value
  guru config set <key> <value>     Change a value in config.toml
  guru config reset                 Rewrite config.toml with defaults
  guru config path                  Print the config file path

Global Flags:
  --model NAME                      Use a different Gemini model
  --json                            Machine-readable output
  -q, --quiet                       Minimal output
  -v, --verbose                     Debug logging

Environment:
  GEMINI_API_KEY                    Gemini API key
  GURU_GOOGLE_CLIENT_ID             OAuth client for Google sign-in
  GURU_MODEL, GURU_STORAGE, GURU_DATA_DIR, GURU_LOG_LEVEL

TUI Keys:
  Enter send · Ctrl+N new chat · Tab focus chats · Ctrl+B toggle chats · Ctrl+O options
  Ctrl+P attach image · Ctrl+F attach file · Ctrl+Y copy code · F1 help

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "guru version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs, nil

	case "ask", "a":
		if err := parseAskArgs(&parsedArgs, remaining); err != nil {
			return CmdAsk, parsedArgs, err
		}
		return CmdAsk, parsedArgs, nil

	case "chat":
		p := NewArgParser(remaining)
		parsedArgs.NewSession = p.BoolFlag("new")
		return CmdChat, parsedArgs, nil

	case "sessions", "session":
		parsedArgs.Subcommand = NewArgParser(remaining).Subcommand()
		return CmdSessions, parsedArgs, nil

	case "login", "signin":
		parsedArgs.Guest = NewArgParser(remaining).BoolFlag("guest")
		return CmdLogin, parsedArgs, nil

	case "logout", "signout":
		return CmdLogout, parsedArgs, nil

	case "whoami":
		return CmdWhoami, parsedArgs, nil

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs, nil

	case "version", "--version":
		return CmdVersion, parsedArgs, nil

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs, nil

	default:
		err := NewValidationError("command", cmd, "unknown command")
		if suggestion := SuggestCommand(cmd); suggestion != "" {
			err = NewValidationErrorWithExample("command", cmd, "unknown command", "guru "+suggestion)
		}
		return CmdHelp, parsedArgs, err
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses the attachment flags and the question of ask.
func parseAskArgs(args *Args, remaining []string) error {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch arg {
		case "-i", "--image":
			if i+1 >= len(remaining) {
				return ErrMissingArgument("image", "guru ask -i screenshot.png \"what is wrong here?\"")
			}
			i++
			args.Image = remaining[i]
		case "-f", "--file":
			if i+1 >= len(remaining) {
				return ErrMissingArgument("file", "guru ask -f lib/main.dart \"explain this\"")
			}
			i++
			args.File = remaining[i]
		default:
			switch {
			case strings.HasPrefix(arg, "--image="):
				args.Image = strings.TrimPrefix(arg, "--image=")
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			default:
				query = append(query, arg)
			}
		}
	}

	if args.Image != "" && args.File != "" {
		return NewValidationError("attachment", "", "use either --image or --file, not both")
	}
	args.Query = strings.Join(query, " ")
	return nil
}

// parseConfigArgs parses config subcommands.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = strings.Join(p.PositionalFrom(2), " ")
}
