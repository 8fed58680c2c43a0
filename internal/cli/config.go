// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for guru.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//
//	show (default)      Display the effective configuration
//	get <key>           Print one value
//	set <key> <value>   Set a value in config.toml
//	reset               Reset config.toml to defaults
//	path                Show configuration file path
//
// Examples:
//
//	guru config
//	guru config show --json
//	guru config get gemini.model
//	guru config set gemini.model gemini-2.5-pro
//	guru config set gemini.temperature 0.4
//	guru config set ui.code_style dracula
//	guru config set storage.backend sqlite
//
// Secrets (gemini.api_key, auth.google_client_secret) are shown as a short
// fingerprint. Environment variables override the file; config set only
// writes the file.
package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jeranaias/guru-tui/internal/config"
)

// HandleConfig dispatches the config subcommands against the default path.
func HandleConfig(args Args, out io.Writer) error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "path", "could not resolve the config path", err)
	}
	return HandleConfigAt(path, args, out)
}

// HandleConfigAt dispatches the config subcommands against path.
func HandleConfigAt(path string, args Args, out io.Writer) error {
	switch strings.ToLower(args.Subcommand) {
	case "", "show", "list":
		return configShow(path, args, out)
	case "get":
		return configGet(path, args, out)
	case "set":
		return configSet(path, args, out)
	case "reset":
		return configReset(path, args, out)
	case "path":
		return configPath(path, args, out)
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand, "unknown config subcommand", "guru config show")
	}
}

// loadEffective loads the file plus environment overrides, as the app does.
func loadEffective(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := config.Default()
		if err := cfg.ApplyEnvOverrides(); err != nil {
			return nil, err
		}
		cfg.SetDefaults()
		return cfg, nil
	}
	return config.LoadFromPath(path)
}

// loadFileOnly loads the file without environment overrides so that set
// never writes an environment value back to disk.
func loadFileOnly(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func configShow(path string, args Args, out io.Writer) error {
	cfg, err := loadEffective(path)
	if err != nil {
		return NewCommandError("config", "load", "could not load "+path, err)
	}

	values := make(map[string]string, len(config.GetAllKeys()))
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		values[key] = displayValue(key, v)
	}

	if args.JSON {
		return NewJSONResponse("config show", map[string]interface{}{
			"path":   path,
			"values": values,
		}).Write(out)
	}

	fmt.Fprintln(out, TitleStyle.Render("Configuration"))
	fmt.Fprintln(out, DimStyle.Render(path))
	fmt.Fprintln(out, Separator(50))
	section := ""
	for _, key := range config.GetAllKeys() {
		if head, _, ok := strings.Cut(key, "."); ok && head != section {
			section = head
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("["+section+"]"))
		}
		fmt.Fprintln(out, KeyValue(key, values[key]))
	}
	return nil
}

func configGet(path string, args Args, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "guru config get gemini.model")
	}
	cfg, err := loadEffective(path)
	if err != nil {
		return NewCommandError("config", "load", "could not load "+path, err)
	}
	v, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return err
	}

	value := displayValue(args.ConfigKey, v)
	if args.JSON {
		return NewJSONResponse("config get", map[string]string{"key": args.ConfigKey, "value": value}).Write(out)
	}
	fmt.Fprintln(out, value)
	return nil
}

func configSet(path string, args Args, out io.Writer) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "guru config set gemini.model gemini-2.5-flash")
	}

	cfg, err := loadFileOnly(path)
	if err != nil {
		return NewCommandError("config", "load", "could not load "+path, err)
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveConfig(cfg, path); err != nil {
		return NewCommandError("config", "save", "could not write "+path, err)
	}

	shown := displayValue(args.ConfigKey, args.ConfigVal)
	if args.JSON {
		return NewJSONResponse("config set", map[string]string{"key": args.ConfigKey, "value": shown}).Write(out)
	}
	if !args.Quiet {
		fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, shown)
	}
	return nil
}

func configReset(path string, args Args, out io.Writer) error {
	if err := saveConfig(config.Default(), path); err != nil {
		return NewCommandError("config", "reset", "could not write "+path, err)
	}
	if args.JSON {
		return NewJSONResponse("config reset", map[string]string{"path": path}).Write(out)
	}
	fmt.Fprintf(out, "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	return nil
}

func configPath(path string, args Args, out io.Writer) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{"path": path, "exists": exists}).Write(out)
	}
	fmt.Fprintln(out, path)
	if !exists && !args.Quiet {
		fmt.Fprintln(out, DimStyle.Render("(file does not exist; defaults are in use)"))
	}
	return nil
}

// saveConfig writes cfg to path, creating its directory owner-only.
func saveConfig(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return config.SaveTOML(cfg, path)
}

// displayValue formats v, replacing secrets with a fingerprint.
func displayValue(key string, v interface{}) string {
	s := fmt.Sprint(v)
	if config.IsSecret(key) {
		return maskSecret(s)
	}
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskSecret identifies a credential without revealing any of it.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	sum := blake2b.Sum256([]byte(s))
	return "blake2b:" + hex.EncodeToString(sum[:4]) + "..."
}
