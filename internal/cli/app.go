// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Process wiring shared by the TUI and the CLI commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/logging"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/storage"
	"github.com/jeranaias/guru-tui/internal/ui/chat"
)

// App holds the long-lived services of one guru process.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	KV         storage.KV
	Store      *session.Store
	Gemini     *gemini.Client
	Gateway    conversation.Gateway
	Controller *conversation.Controller
	Provider   *auth.GoogleProvider

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewApp loads configuration and opens storage. Global flags in args
// override the loaded settings.
func NewApp(args Args) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, NewCommandError("config", "load", "could not load configuration", err)
	}
	if args.Model != "" {
		cfg.Gemini.Model = args.Model
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}
	config.SetGlobal(cfg)

	logger := zap.NewNop()
	if logPath, err := cfg.LogPath(); err == nil {
		logger = logging.NewOrNop(logPath, cfg.Logging.Level)
	}

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, NewCommandError("storage", "open", "could not resolve data directory", err)
	}
	kv, err := storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, NewCommandError("storage", "open", "could not open "+cfg.Storage.Backend+" store", err)
	}

	path, _ := config.ConfigPath()
	app := Build(cfg, kv, logger)
	app.ConfigPath = path
	logger.Info("starting",
		zap.String("version", Version),
		zap.String("model", cfg.Gemini.Model),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("key", app.Gemini.KeyFingerprint()))
	return app, nil
}

// Build wires the services around an already opened store.
func Build(cfg *config.Config, kv storage.KV, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := session.Open(kv, session.WithLogger(logger))
	client := gemini.NewClient(cfg.Gemini.APIKey).
		WithBaseURL(cfg.Gemini.BaseURL).
		WithModel(cfg.Gemini.Model).
		WithTimeout(cfg.Timeout()).
		WithRequestsPerMinute(cfg.Gemini.RequestsPerMinute).
		WithSampling(chat.SamplingFor(cfg)).
		WithLogger(logger)

	provider := auth.NewGoogleProvider(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret).
		WithLogger(logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		KV:         kv,
		Store:      store,
		Gemini:     client,
		Gateway:    client,
		Controller: conversation.NewController(store, client, logger),
		Provider:   provider,
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
	}
}

// StartProvider begins identity provider discovery when a client is
// configured. It returns false otherwise.
func (a *App) StartProvider(ctx context.Context) bool {
	if !a.Provider.Configured() {
		return false
	}
	a.Provider.Start(ctx)
	return true
}

// Close flushes the logger and closes storage.
func (a *App) Close() error {
	var errs []error
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
