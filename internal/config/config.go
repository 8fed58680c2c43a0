// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete guru configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Gemini model gateway
	Gemini GeminiConfig `toml:"gemini" json:"gemini"`

	// Google sign-in
	Auth AuthConfig `toml:"auth" json:"auth"`

	// Local persistence
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`

	// Log file
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// GeminiConfig contains model gateway settings.
type GeminiConfig struct {
	// APIKey authenticates against the Generative Language API
	APIKey string `toml:"api_key" json:"api_key" env:"GEMINI_API_KEY"`
	// Model is the model name, e.g. "gemini-3-pro-preview"
	Model string `toml:"model" json:"model" env:"GURU_MODEL"`
	// BaseURL is the API root including the version segment
	BaseURL string `toml:"base_url" json:"base_url" env:"GURU_BASE_URL"`
	// Temperature, TopK, TopP and ThinkingBudget are sent as generationConfig
	Temperature    float64 `toml:"temperature" json:"temperature"`
	TopK           int     `toml:"top_k" json:"top_k"`
	TopP           float64 `toml:"top_p" json:"top_p"`
	ThinkingBudget int     `toml:"thinking_budget" json:"thinking_budget"`
	// TimeoutSecs bounds a single request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerMinute caps outgoing calls (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// AuthConfig contains Google sign-in settings.
type AuthConfig struct {
	// GoogleClientID is the OAuth client for the device flow; empty disables Google sign-in
	GoogleClientID     string `toml:"google_client_id" json:"google_client_id" env:"GURU_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `toml:"google_client_secret" json:"google_client_secret" env:"GURU_GOOGLE_CLIENT_SECRET"`
	// ReadinessIntervalMS and ReadinessAttempts bound the wait for the provider
	ReadinessIntervalMS int `toml:"readiness_interval_ms" json:"readiness_interval_ms"`
	ReadinessAttempts   int `toml:"readiness_attempts" json:"readiness_attempts"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// Backend is "file" or "sqlite"
	Backend string `toml:"backend" json:"backend" env:"GURU_STORAGE"`
	// Dir holds the stored records; empty means the config directory
	Dir string `toml:"dir" json:"dir" env:"GURU_DATA_DIR"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Sidebar shows the session list on start
	Sidebar bool `toml:"sidebar" json:"sidebar"`
	// WordWrap is the markdown wrap width (0 = terminal width)
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// CodeStyle is the chroma style used for code blocks
	CodeStyle string `toml:"code_style" json:"code_style"`
	// ShowTimestamps prints HH:MM next to message headers
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level" env:"GURU_LOG_LEVEL"`
	// File is the log path; empty means guru.log in the config directory
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Version: "1",
		Gemini: GeminiConfig{
			Model:             "gemini-3-pro-preview",
			BaseURL:           "https://generativelanguage.googleapis.com/v1beta",
			Temperature:       0.7,
			TopK:              40,
			TopP:              0.95,
			ThinkingBudget:    4000,
			TimeoutSecs:       120,
			RequestsPerMinute: 30,
		},
		Auth: AuthConfig{
			ReadinessIntervalMS: 100,
			ReadinessAttempts:   50,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Sidebar:        true,
			CodeStyle:      "monokai",
			ShowTimestamps: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSecs) * time.Second
}

// ReadinessInterval returns the identity provider polling interval.
func (c *Config) ReadinessInterval() time.Duration {
	return time.Duration(c.Auth.ReadinessIntervalMS) * time.Millisecond
}

// DataDir returns the directory for stored records.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	return ConfigDir()
}

// LogPath returns the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "guru.log"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the guru configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".guru"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens config files to 0600 since they hold keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.guru/config.toml, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) error {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# guru configuration file")
	fmt.Fprintln(file, "# Generated by guru - edit with care")
	fmt.Fprintln(file, "#")
	fmt.Fprintln(file, "# GEMINI_API_KEY and GURU_* environment variables override these values.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends  = map[string]bool{"file": true, "sqlite": true}
	validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	g := c.Gemini
	if strings.TrimSpace(g.Model) == "" {
		errs = append(errs, ValidationError{"gemini.model", "must not be empty"})
	}
	if u, err := url.Parse(g.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"gemini.base_url", fmt.Sprintf("invalid URL %q", g.BaseURL)})
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		errs = append(errs, ValidationError{"gemini.temperature", "must be between 0 and 2"})
	}
	if g.TopK < 1 {
		errs = append(errs, ValidationError{"gemini.top_k", "must be at least 1"})
	}
	if g.TopP <= 0 || g.TopP > 1 {
		errs = append(errs, ValidationError{"gemini.top_p", "must be in (0, 1]"})
	}
	if g.ThinkingBudget < -1 {
		errs = append(errs, ValidationError{"gemini.thinking_budget", "must be -1 (dynamic), 0 (off) or positive"})
	}
	if g.TimeoutSecs < 1 || g.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{"gemini.timeout_secs", "must be between 1 and 600"})
	}
	if g.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{"gemini.requests_per_minute", "must not be negative"})
	}

	if c.Auth.ReadinessIntervalMS < 1 {
		errs = append(errs, ValidationError{"auth.readiness_interval_ms", "must be positive"})
	}
	if c.Auth.ReadinessAttempts < 1 {
		errs = append(errs, ValidationError{"auth.readiness_attempts", "must be positive"})
	}

	if !validBackends[c.Storage.Backend] {
		errs = append(errs, ValidationError{"storage.backend", fmt.Sprintf("unknown backend %q (file, sqlite)", c.Storage.Backend)})
	}

	if c.UI.WordWrap != 0 && (c.UI.WordWrap < 20 || c.UI.WordWrap > 400) {
		errs = append(errs, ValidationError{"ui.word_wrap", "must be 0 or between 20 and 400"})
	}

	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty string and zero numeric fields that have no
// meaningful zero value.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = d.Gemini.BaseURL
	}
	if c.Gemini.TimeoutSecs == 0 {
		c.Gemini.TimeoutSecs = d.Gemini.TimeoutSecs
	}
	if c.Gemini.TopK == 0 {
		c.Gemini.TopK = d.Gemini.TopK
	}
	if c.Gemini.TopP == 0 {
		c.Gemini.TopP = d.Gemini.TopP
	}
	if c.Auth.ReadinessIntervalMS == 0 {
		c.Auth.ReadinessIntervalMS = d.Auth.ReadinessIntervalMS
	}
	if c.Auth.ReadinessAttempts == 0 {
		c.Auth.ReadinessAttempts = d.Auth.ReadinessAttempts
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = d.UI.CodeStyle
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Only variables that are set replace file values.
//
// Supported environment variables:
//   - GEMINI_API_KEY: gemini.api_key
//   - GURU_MODEL: gemini.model
//   - GURU_BASE_URL: gemini.base_url
//   - GURU_STORAGE: storage.backend
//   - GURU_DATA_DIR: storage.dir
//   - GURU_LOG_LEVEL: logging.level
//   - GURU_GOOGLE_CLIENT_ID, GURU_GOOGLE_CLIENT_SECRET: auth client
func (c *Config) ApplyEnvOverrides() error {
	return env.Parse(c)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned by Get and Set for keys that name no setting.
var ErrUnknownKey = errors.New("unknown config key")

// lookup walks a dot-separated key to its field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Get retrieves a configuration value using dot notation (e.g., "gemini.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.word_wrap").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// normalizeFieldName converts snake_case to the Go field name. Acronyms are
// matched case-insensitively, so "api_key" finds APIKey.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				switch strings.ToLower(strVal) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// secretKeys are redacted by String and by the config show command.
var secretKeys = map[string]bool{
	"gemini.api_key":            true,
	"auth.google_client_secret": true,
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"gemini.api_key",
		"gemini.model",
		"gemini.base_url",
		"gemini.temperature",
		"gemini.top_k",
		"gemini.top_p",
		"gemini.thinking_budget",
		"gemini.timeout_secs",
		"gemini.requests_per_minute",
		"auth.google_client_id",
		"auth.google_client_secret",
		"auth.readiness_interval_ms",
		"auth.readiness_attempts",
		"storage.backend",
		"storage.dir",
		"ui.sidebar",
		"ui.word_wrap",
		"ui.code_style",
		"ui.show_timestamps",
		"logging.level",
		"logging.file",
	}
}

// Clone creates a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON rendering of the config with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	if safe.Auth.GoogleClientSecret != "" {
		safe.Auth.GoogleClientSecret = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
