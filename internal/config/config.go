// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for rigchat.
//
// Configuration is read from TOML, layered over built-in defaults, and then
// overridden by environment variables. It is never written back.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/logger"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigchat configuration.
type Config struct {
	Chat  ChatConfig  `toml:"chat"`
	Cloud CloudConfig `toml:"cloud"`
	UI    UIConfig    `toml:"ui"`
	Log   LogConfig   `toml:"log"`
}

// ChatConfig controls how a turn is assembled.
type ChatConfig struct {
	// HistoryWindow is how many prior messages accompany each request.
	HistoryWindow int `toml:"history_window"`
	// ResponseLanguage is a BCP 47 tag, e.g. "id" or "en-GB".
	ResponseLanguage string `toml:"response_language"`
	// Persona is the system prompt. "{language}" is replaced with the
	// English name of ResponseLanguage.
	Persona string `toml:"persona"`
}

// CloudConfig contains the completion endpoint settings.
type CloudConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	// TimeoutSecs bounds each request, including reading the reply.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerMinute caps outbound requests. 0 = unlimited.
	RequestsPerMinute int `toml:"requests_per_minute"`
	// SiteName is sent as the X-Title attribution header.
	SiteName string `toml:"site_name"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	// SidebarWidth is the conversation list width in cells.
	SidebarWidth int `toml:"sidebar_width"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// File receives logs while the TUI owns the terminal. Empty means
	// rigchat.log in the config directory.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultPersona answers politely in the configured language.
const DefaultPersona = "You are a friendly and helpful AI assistant. Answer in {language}, politely and informatively."

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Chat: ChatConfig{
			HistoryWindow:    cloud.DefaultHistoryWindow,
			ResponseLanguage: "id",
			Persona:          DefaultPersona,
		},
		Cloud: CloudConfig{
			BaseURL:           cloud.DefaultOpenRouterURL,
			Model:             cloud.DefaultModel,
			Temperature:       cloud.DefaultTemperature,
			MaxTokens:         cloud.DefaultMaxTokens,
			TimeoutSecs:       int(cloud.DefaultTimeout / time.Second),
			RequestsPerMinute: 0,
			SiteName:          "rigchat",
		},
		UI: UIConfig{
			Theme:        "auto",
			SidebarWidth: 28,
		},
		Log: LogConfig{
			Level: logger.DefaultLevel,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.rigchat.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogFile returns the log path used when Log.File is empty.
func DefaultLogFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rigchat.log"), nil
}

// DotenvFiles lists the .env files consulted for the API key, in order.
func DotenvFiles() []string {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	return files
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads path, or the default config path when path is empty. A missing
// default file is not an error; a missing explicit path is. Environment
// overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep their
// current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.L().Warn("unknown config keys ignored", "path", path, "keys", strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults restores defaults for string fields set to "".
func (c *Config) fillDefaults() {
	d := Default()
	if c.Chat.ResponseLanguage == "" {
		c.Chat.ResponseLanguage = d.Chat.ResponseLanguage
	}
	if strings.TrimSpace(c.Chat.Persona) == "" {
		c.Chat.Persona = d.Chat.Persona
	}
	if c.Cloud.BaseURL == "" {
		c.Cloud.BaseURL = d.Cloud.BaseURL
	}
	if c.Cloud.Model == "" {
		c.Cloud.Model = d.Cloud.Model
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// ApplyEnvOverrides applies RIGCHAT_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("RIGCHAT_MODEL"); model != "" {
		c.Cloud.Model = model
	}
	if base := os.Getenv("RIGCHAT_BASE_URL"); base != "" {
		c.Cloud.BaseURL = base
	}
	if lang := os.Getenv("RIGCHAT_LANGUAGE"); lang != "" {
		c.Chat.ResponseLanguage = lang
	}
	if level := os.Getenv("RIGCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
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

// Validate checks every field and returns all problems at once as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Chat
	if c.Chat.HistoryWindow < 0 || c.Chat.HistoryWindow > 100 {
		add("chat.history_window", "must be between 0 and 100, got %d", c.Chat.HistoryWindow)
	}
	if _, err := ParseLanguage(c.Chat.ResponseLanguage); err != nil {
		add("chat.response_language", "%v", err)
	}

	// Cloud
	if u, err := url.Parse(c.Cloud.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("cloud.base_url", "must be an http(s) URL, got '%s'", c.Cloud.BaseURL)
	}
	if strings.TrimSpace(c.Cloud.Model) == "" {
		add("cloud.model", "must not be empty")
	}
	if c.Cloud.Temperature < 0 || c.Cloud.Temperature > 2 {
		add("cloud.temperature", "must be between 0 and 2, got %g", c.Cloud.Temperature)
	}
	if c.Cloud.MaxTokens < 1 || c.Cloud.MaxTokens > 32768 {
		add("cloud.max_tokens", "must be between 1 and 32768, got %d", c.Cloud.MaxTokens)
	}
	if c.Cloud.TimeoutSecs < 1 || c.Cloud.TimeoutSecs > 600 {
		add("cloud.timeout_secs", "must be between 1 and 600, got %d", c.Cloud.TimeoutSecs)
	}
	if c.Cloud.RequestsPerMinute < 0 {
		add("cloud.requests_per_minute", "must not be negative, got %d", c.Cloud.RequestsPerMinute)
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 80 {
		add("ui.sidebar_width", "must be between 12 and 80, got %d", c.UI.SidebarWidth)
	}

	// Log
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns Cloud.TimeoutSecs as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Cloud.TimeoutSecs) * time.Second
}

// SystemPrompt returns the persona with the response language's name
// substituted.
func (c *Config) SystemPrompt() string {
	return strings.ReplaceAll(c.Chat.Persona, "{language}", LanguageName(c.Chat.ResponseLanguage))
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the effective config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
