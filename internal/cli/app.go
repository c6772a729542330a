// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/rigchat/internal/chat"
	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/security"
	"github.com/jeranaias/rigchat/internal/session"
)

// Version information, set by main at startup.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Flags holds the persistent command-line flags. Set flags win over the
// config file and environment.
type Flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Model      string
}

// App represents the rigchat CLI application.
type App struct {
	Flags Flags

	Out io.Writer
	Err io.Writer
}

// NewApp creates a new rigchat CLI application writing to stdout/stderr.
func NewApp() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// Session is everything one run needs: config, credential, store and the
// turn controller.
type Session struct {
	Config     *config.Config
	Credential *security.Credential
	Store      *session.Store
	Client     *cloud.OpenRouterClient
	Controller *chat.Controller
}

// LoadConfig reads the config file and environment, then applies flags.
func (app *App) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(app.Flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if app.Flags.Model != "" {
		cfg.Cloud.Model = app.Flags.Model
	}
	if app.Flags.LogLevel != "" {
		cfg.Log.Level = app.Flags.LogLevel
	}
	if app.Flags.LogFile != "" {
		cfg.Log.File = app.Flags.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// setupLogging points the logger at cfg.Log.File. With no file configured,
// full-screen mode logs to the default file under the config directory and
// line mode logs to stderr.
func (app *App) setupLogging(cfg *config.Config, fullScreen bool) error {
	file := cfg.Log.File
	if file == "" && fullScreen {
		f, err := config.DefaultLogFile()
		if err != nil {
			return err
		}
		file = f
	}
	return logger.Configure(cfg.Log.Level, file)
}

// NewClient builds the completion client from cfg.
func NewClient(cfg *config.Config) *cloud.OpenRouterClient {
	return cloud.NewOpenRouterClient().
		WithBaseURL(cfg.Cloud.BaseURL).
		WithModel(cfg.Cloud.Model).
		WithSampling(cfg.Cloud.Temperature, cfg.Cloud.MaxTokens).
		WithTimeout(cfg.Timeout()).
		WithHistoryWindow(cfg.Chat.HistoryWindow).
		WithSystemPrompt(cfg.SystemPrompt()).
		WithSiteName(cfg.Cloud.SiteName).
		WithRateLimit(cfg.Cloud.RequestsPerMinute)
}

// NewSession wires a fresh in-memory session. The credential comes from
// OPENROUTER_API_KEY or a .env file when present.
func NewSession(cfg *config.Config) (*Session, error) {
	cred, err := security.CredentialFromEnv(config.DotenvFiles()...)
	if err != nil {
		return nil, err
	}
	store := session.New()
	client := NewClient(cfg)
	return &Session{
		Config:     cfg,
		Credential: cred,
		Store:      store,
		Client:     client,
		Controller: chat.NewController(store, client, cred, nil),
	}, nil
}

// prepare loads config, configures logging and builds a session.
func (app *App) prepare(fullScreen bool) (*Session, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := app.setupLogging(cfg, fullScreen); err != nil {
		return nil, err
	}
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("session started",
		"model", cfg.Cloud.Model,
		"language", cfg.Chat.ResponseLanguage,
		"key", s.Credential.Fingerprint(),
	)
	return s, nil
}

// ErrNotInteractive is returned when a prompt needs a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")
