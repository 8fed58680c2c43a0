// guru - Flutter AI Guru in your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/cli"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/ui/chat"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// configDebounce coalesces editor save bursts into one reload.
const configDebounce = 250 * time.Millisecond

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		if !args.JSON {
			fmt.Fprintln(os.Stderr, "Run 'guru help' for usage.")
		}
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdConfig:
		return exit(cli.HandleConfig(args, os.Stdout), args)
	}

	app, err := cli.NewApp(args)
	if err != nil {
		return exit(err, args)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, app)
	case cli.CmdAsk:
		err = cli.HandleAsk(ctx, app, args)
	case cli.CmdChat:
		err = cli.HandleChat(ctx, app, args)
	case cli.CmdSessions:
		err = cli.HandleSessions(app, args)
	case cli.CmdLogin:
		err = cli.HandleLogin(ctx, app, args)
	case cli.CmdLogout:
		err = cli.HandleLogout(app, args)
	case cli.CmdWhoami:
		err = cli.HandleWhoami(app, args)
	}
	return exit(err, args)
}

func exit(err error, args cli.Args) int {
	if err == nil {
		return cli.ExitSuccess
	}
	cli.DisplayError(os.Stderr, err, args.JSON)
	return cli.GetExitCode(err)
}

// runTUI starts the full-screen interface.
func runTUI(ctx context.Context, app *cli.App) error {
	if err := cli.RequiresTTY("the TUI"); err != nil {
		return err
	}

	var updates <-chan *config.Config
	if app.ConfigPath != "" {
		if err := config.EnsureConfigDir(); err == nil {
			w, err := config.NewWatcher(app.ConfigPath, configDebounce, app.Logger)
			if err != nil {
				app.Logger.Warn("config watcher disabled", zap.Error(err))
			} else {
				defer w.Close()
				updates = w.Updates()
			}
		}
	}

	// Discovery runs for the life of the process.
	app.StartProvider(ctx)

	m := chat.New(styles.NewTheme(), chat.Options{
		Store:      app.Store,
		Controller: app.Controller,
		Provider:   app.Provider,
		Sampler:    app.Gemini,
		Config:     app.Config,
		Updates:    updates,
		Logger:     app.Logger,
		ModelName:  app.Config.Gemini.Model,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running guru: %w", err)
	}
	return nil
}
