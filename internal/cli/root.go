// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/security"
	"github.com/jeranaias/rigchat/internal/ui"
)

// CreateRootCommand creates and configures the root command. Without a
// subcommand it starts the full-screen chat.
func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rigchat",
		Short: "Terminal chat client for OpenRouter models",
		Long: `rigchat keeps several named conversations with an OpenRouter-compatible
chat completion endpoint. Conversations live in memory until you quit.

The API key is read from OPENROUTER_API_KEY, a .env file, or entered at
the prompt. It is never written to disk.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureColors()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTUI(cmd.Context())
		},
	}
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.Flags.ConfigPath, "config", "c", "", "Config file (default ~/.rigchat/config.toml)")
	flags.StringVar(&app.Flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&app.Flags.LogFile, "log-file", "", "Log file (default ~/.rigchat/rigchat.log in full-screen mode, stderr otherwise)")
	flags.StringVarP(&app.Flags.Model, "model", "m", "", "Model to use (overrides config)")

	app.addChatCommand(rootCmd)
	app.addConfigCommand(rootCmd)
	app.addVersionCommand(rootCmd)

	return rootCmd
}

// Execute runs the command tree against args.
func (app *App) Execute(ctx context.Context, args []string) error {
	root := app.CreateRootCommand()
	root.SetArgs(args)
	defer logger.Close()
	return root.ExecuteContext(ctx)
}

func (app *App) runTUI(ctx context.Context) error {
	s, err := app.prepare(true)
	if err != nil {
		return err
	}

	opts := ui.Options{
		Store:      s.Store,
		Controller: s.Controller,
		Credential: s.Credential,
		Config:     s.Config,
	}

	if path, err := app.configPath(); err == nil {
		if w, err := config.NewWatcher(path, config.DefaultDebounce); err != nil {
			logger.L().Debug("config watcher disabled", "err", err)
		} else {
			w.Start(ctx)
			defer w.Close()
			opts.Watcher = w
		}
	}

	return ui.Run(opts)
}

func (app *App) configPath() (string, error) {
	if app.Flags.ConfigPath != "" {
		return app.Flags.ConfigPath, nil
	}
	return config.ConfigPath()
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func (app *App) addChatCommand(rootCmd *cobra.Command) {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode chat session",
		Long: `Start an interactive line-mode chat. Type a message and press Enter.
Slash commands manage conversations: /new, /list, /switch, /delete, /key,
/export, /help and /quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.prepare(false)
			if err != nil {
				return err
			}
			if !IsTTY() && !s.Credential.IsSet() {
				return fmt.Errorf("no API key in %s: %w", security.CredentialEnvVar, ErrNotInteractive)
			}

			line := NewLineReader()
			defer line.Close()

			repl := NewREPL(s, line, cmd.OutOrStdout())
			repl.render = newMarkdownRenderer()
			return repl.Run(cmd.Context())
		},
	}
	rootCmd.AddCommand(chatCmd)
}

func (app *App) addConfigCommand(rootCmd *cobra.Command) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, environment
and flags are applied. The API key is shown masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cred, err := security.CredentialFromEnv(config.DotenvFiles()...)
			if err != nil {
				return err
			}
			path, _ := app.configPath()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# config file: %s\n", path)
			fmt.Fprintf(out, "# api key: %s\n\n", cred.Masked())
			fmt.Fprint(out, cfg.String())
			return nil
		},
	}
	rootCmd.AddCommand(configCmd)
}

func (app *App) addVersionCommand(rootCmd *cobra.Command) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			detailed, _ := cmd.Flags().GetBool("detailed")
			fmt.Fprintf(out, "rigchat %s\n", Version)
			if detailed {
				fmt.Fprintf(out, "  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
					GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
	rootCmd.AddCommand(versionCmd)
}
