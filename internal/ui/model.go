// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/security"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// Submitter runs one conversational turn. *chat.Controller satisfies it.
type Submitter interface {
	Submit(ctx context.Context, text string) (model.Message, error)
}

// Options wires a Model to the rest of the application.
type Options struct {
	Store      *session.Store
	Controller Submitter
	Credential *security.Credential
	Config     *config.Config

	// Watcher is optional; nil disables live reload.
	Watcher *config.Watcher

	// ExportDir receives ctrl+e transcripts. Empty means the working directory.
	ExportDir string

	// Now is the clock for export file names. Nil means time.Now.
	Now func() time.Time
}

// =============================================================================
// STATUS
// =============================================================================

// StatusKind selects the status bar color.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusInfo
	StatusWarn
	StatusError
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	opts  Options
	theme *styles.Theme
	keys  KeyMap

	// Dimensions
	width  int
	height int

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	keyInput textinput.Model
	spinner  spinner.Model
	markdown *markdownCache

	// State from the store
	snap    session.Snapshot
	updates <-chan session.Snapshot
	unsub   func()

	// Turn in flight
	busy       bool
	busyConvID string
	ctx        context.Context
	cancel     context.CancelFunc

	editingKey bool

	status     string
	statusKind StatusKind

	sidebarWidth int
	modelName    string
}

// New creates the chat model and subscribes it to the store.
func New(opts Options) *Model {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Credential == nil {
		opts.Credential = security.NewCredential("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	theme := styles.NewTheme(opts.Config.UI.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt

	ki := textinput.New()
	ki.Prompt = "API key: "
	ki.Placeholder = "sk-or-..."
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '*'
	ki.CharLimit = 512
	ki.PromptStyle = theme.KeyPrompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.StatusWarn

	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		opts:         opts,
		theme:        theme,
		keys:         DefaultKeyMap(),
		viewport:     viewport.New(80, 20),
		input:        ti,
		keyInput:     ki,
		spinner:      sp,
		markdown:     newMarkdownCache(opts.Config.UI.Theme),
		snap:         opts.Store.Snapshot(),
		ctx:          ctx,
		cancel:       cancel,
		sidebarWidth: opts.Config.UI.SidebarWidth,
		modelName:    opts.Config.Cloud.Model,
	}
	m.updates, m.unsub = opts.Store.Subscribe()

	if opts.Credential.IsSet() {
		m.input.Focus()
	} else {
		m.startKeyEdit()
	}
	return m
}

// Init starts the subscription loops.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForSnapshot(m.updates),
		waitForConfig(m.opts.Watcher),
	)
}

// Close cancels the in-flight turn and drops the store subscription.
func (m *Model) Close() {
	m.cancel()
	if m.unsub != nil {
		m.unsub()
	}
}

// Busy reports whether a turn is in flight.
func (m *Model) Busy() bool {
	return m.busy
}

// Status returns the current status line and its kind.
func (m *Model) Status() (string, StatusKind) {
	return m.status, m.statusKind
}

// EditingKey reports whether the credential input has focus.
func (m *Model) EditingKey() bool {
	return m.editingKey
}

// Snapshot returns the store state last rendered.
func (m *Model) Snapshot() session.Snapshot {
	return m.snap
}

// Run starts the full-screen program and blocks until it quits.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) setStatus(kind StatusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m *Model) clearStatus() {
	m.setStatus(StatusNone, "")
}

func (m *Model) startKeyEdit() {
	m.editingKey = true
	m.keyInput.SetValue("")
	m.keyInput.Focus()
	m.input.Blur()
}

func (m *Model) stopKeyEdit() {
	m.editingKey = false
	m.keyInput.SetValue("")
	m.keyInput.Blur()
	m.input.Focus()
}
