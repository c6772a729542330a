// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigchat/internal/chat"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/util"
)

// NoticeOnlyConversation is printed when /delete targets the last
// conversation.
const NoticeOnlyConversation = "cannot delete the only conversation"

// LineReader is the line editor the REPL reads from. *liner.State
// satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// NewLineReader returns a liner editor with in-memory history only.
func NewLineReader() LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat loop.
type REPL struct {
	session *Session
	line    LineReader
	out     io.Writer

	// render formats assistant replies.
	render func(string) string

	// readKey reads the API key without echo.
	readKey func() (string, error)

	now func() time.Time
}

// NewREPL creates a REPL over s reading from line and printing to out.
func NewREPL(s *Session, line LineReader, out io.Writer) *REPL {
	return &REPL{
		session: s,
		line:    line,
		out:     out,
		render:  plainText,
		readKey: readPassword,
		now:     time.Now,
	}
}

// Run loops until /quit, Ctrl+D, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	if !r.session.Credential.IsSet() {
		r.promptKey()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.line.Prompt("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out, infoStyle.Render("Use /quit or Ctrl+D to exit."))
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.handleCommand(input); quit {
				return nil
			}
			continue
		}

		r.send(ctx, input)
	}
}

// send runs one turn. Ctrl+C while waiting cancels the request.
func (r *REPL) send(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(r.out, infoStyle.Render("Thinking..."))
	reply, err := r.session.Controller.Submit(turnCtx, text)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMissingCredential):
			fmt.Fprintln(r.out, warningStyle.Render(err.Error()+" (use /key)"))
		case errors.Is(err, chat.ErrEmptyInput):
		default:
			fmt.Fprintln(r.out, errorStyle.Render("Error: "+err.Error()))
		}
		return
	}

	fmt.Fprintln(r.out, welcomeStyle.Render(reply.Role.DisplayName()+":"))
	fmt.Fprint(r.out, r.render(reply.Content))
}

func (r *REPL) promptKey() {
	fmt.Fprint(r.out, promptStyle.Render("OpenRouter API key: "))
	key, err := r.readKey()
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return
	}
	if key == "" {
		fmt.Fprintln(r.out, warningStyle.Render("No key entered. Use /key to set one."))
		return
	}
	r.session.Credential.Set(key)
	logger.L().Info("credential set", "fingerprint", r.session.Credential.Fingerprint())
	fmt.Fprintln(r.out, commandStyle.Render("API key set "+r.session.Credential.Masked()))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand runs a slash command and reports whether to quit.
func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	store := r.session.Store

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		r.printHelp()

	case "/new", "/n":
		id := store.Create()
		fmt.Fprintf(r.out, "%s\n", commandStyle.Render("Started "+id))

	case "/list", "/ls":
		r.printList()

	case "/switch", "/s":
		if len(args) == 0 {
			fmt.Fprintln(r.out, warningStyle.Render("Usage: /switch <n|id>"))
			return false
		}
		id, err := r.resolve(args[0])
		if err == nil {
			err = store.Select(id)
		}
		if err != nil {
			fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			return false
		}
		fmt.Fprintln(r.out, commandStyle.Render("Switched to "+r.activeLabel()))

	case "/delete", "/d":
		id := store.ActiveID()
		if len(args) > 0 {
			var err error
			if id, err = r.resolve(args[0]); err != nil {
				fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
				return false
			}
		}
		deleted, err := store.Delete(id)
		switch {
		case err != nil:
			fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		case !deleted:
			fmt.Fprintln(r.out, warningStyle.Render(NoticeOnlyConversation))
		default:
			fmt.Fprintln(r.out, commandStyle.Render("Deleted "+id+"; active is "+r.activeLabel()))
		}

	case "/key", "/k":
		r.promptKey()

	case "/export", "/e":
		r.export(args)

	default:
		fmt.Fprintln(r.out, warningStyle.Render("Unknown command "+cmd+". Type /help."))
	}
	return false
}

// resolve maps a 1-based list position or a conversation id to an id.
func (r *REPL) resolve(arg string) (string, error) {
	entries := r.session.Store.List()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(entries) {
			return "", fmt.Errorf("no conversation #%d (have %d)", n, len(entries))
		}
		return entries[n-1].ID, nil
	}
	if _, err := r.session.Store.Get(arg); err != nil {
		return "", err
	}
	return arg, nil
}

func (r *REPL) export(args []string) {
	conv := r.session.Store.Active()
	if conv.IsEmpty() {
		fmt.Fprintln(r.out, warningStyle.Render("Nothing to export."))
		return
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		path = export.DefaultFilename(".", conv, ".md", r.now())
	}

	if err := export.WriteFile(conv, export.ForPath(path, nil), path); err != nil {
		logger.L().Error("export failed", "path", path, "err", err)
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return
	}
	fmt.Fprintln(r.out, commandStyle.Render("Exported to "+path))
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *REPL) activeLabel() string {
	conv := r.session.Store.Active()
	return fmt.Sprintf("%s (%s)", conv.ID, util.SingleLine(conv.DisplayTitle()))
}

func (r *REPL) printList() {
	for i, e := range r.session.Store.List() {
		line := fmt.Sprintf("%2d. %-10s %s  (%d messages)", i+1, e.ID, util.SingleLine(e.Title), e.MessageCount)
		if e.Active {
			fmt.Fprintln(r.out, activeStyle.Render("* "+line))
		} else {
			fmt.Fprintln(r.out, "  "+line)
		}
	}
}

func (r *REPL) printWelcome() {
	cfg := r.session.Config
	fmt.Fprintln(r.out, welcomeStyle.Render("rigchat "+Version))
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("Model: %s  Language: %s  Key: %s",
		cfg.Cloud.Model, cfg.Chat.ResponseLanguage, r.session.Credential.Masked())))
	fmt.Fprintln(r.out, infoStyle.Render("Type /help for commands."))
}

func (r *REPL) printHelp() {
	rows := [][2]string{
		{"/new", "start a new conversation"},
		{"/list", "list conversations"},
		{"/switch <n|id>", "make a conversation active"},
		{"/delete [n|id]", "delete a conversation (default: active)"},
		{"/key", "enter the OpenRouter API key"},
		{"/export [path]", "write the active conversation (.md or .json)"},
		{"/help", "show this help"},
		{"/quit", "exit"},
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "  %s %s\n", commandStyle.Render(fmt.Sprintf("%-16s", row[0])), row[1])
	}
}

