// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/auth"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/ui/components"
	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the screen the model is showing.
type State int

const (
	StateAuth State = iota // Sign-in screen
	StateChat              // Conversation screen
)

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

type promptKind int

const (
	promptNone promptKind = iota
	promptImage
	promptDocument
	promptCopy
)

// User-facing text.
const (
	Placeholder        = "Ask Flutter AI Guru..."
	LoginFailedText    = "লগইন করার সময় সমস্যা হয়েছে।"
	APIKeyHint         = "Set GEMINI_API_KEY or gemini.api_key in ~/.guru/config.toml."
	ProviderDownText   = "Google sign-in is unavailable right now. Continue as guest or try again later."
	NotConfiguredText  = "Google sign-in is not configured. Set GURU_GOOGLE_CLIENT_ID to enable it."
	ConnectingText     = "Connecting to Google..."
	BusyText           = "Guru is still answering."
	NoCodeBlocksText   = "No code blocks in this chat."
	ConfigReloadedText = "Configuration reloaded."
)

// Menu entries.
const (
	authGoogle = "Sign in with Google"
	authGuest  = "Continue as Guest"

	optDelete     = "Delete chat"
	optExportMD   = "Export as Markdown"
	optExportJSON = "Export as JSON"
	optCancel     = "Cancel"
)

// LoginProvider signs a user in with Google.
type LoginProvider interface {
	auth.Prober
	Configured() bool
	DeviceLogin(ctx context.Context, prompt func(auth.DeviceCode)) (model.User, error)
}

// SamplingSetter accepts new generation settings, e.g. *gemini.Client.
type SamplingSetter interface {
	SetSampling(gemini.Sampling)
}

// SamplingFor converts the gemini section of cfg to request settings.
func SamplingFor(cfg *config.Config) gemini.Sampling {
	return gemini.Sampling{
		Temperature:    cfg.Gemini.Temperature,
		TopK:           cfg.Gemini.TopK,
		TopP:           cfg.Gemini.TopP,
		ThinkingBudget: cfg.Gemini.ThinkingBudget,
	}
}

// Options wires the model to the application.
type Options struct {
	Store      *session.Store
	Controller *conversation.Controller

	// Provider is nil when Google sign-in is unavailable.
	Provider LoginProvider
	// Sampler receives sampling changes on config reload.
	Sampler SamplingSetter

	Config  *config.Config
	Updates <-chan *config.Config
	Logger  *zap.Logger

	ModelName string
	ExportDir string
	Now       func() time.Time
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole TUI.
type Model struct {
	state State

	// Styling
	theme  *styles.Theme
	keys   KeyMap
	help   help.Model
	width  int
	height int

	// Application state
	store    *session.Store
	ctrl     *conversation.Controller
	provider LoginProvider
	sampler  SamplingSetter
	cfg      *config.Config
	updates  <-chan *config.Config
	logger   *zap.Logger

	modelName string
	exportDir string
	now       func() time.Time

	// UI components
	viewport viewport.Model
	input    textinput.Model
	prompt   textinput.Model
	thinking components.ThinkingIndicator
	toasts   *components.ToastManager
	markdown *components.Markdown
	ticking  bool

	// UI-local state
	staged        *attach.Staged
	focus         focus
	sidebarOpen   bool
	sidebarCursor int
	promptKind    promptKind
	menu          *components.Menu
	showHelp      bool
	codeBlocks    []components.CodeBlock

	// Sign-in state
	authMenu    components.Menu
	authMsg     string
	loginErr    string
	deviceCode  *auth.DeviceCode
	authBusy    bool
	cancelLogin context.CancelFunc
}

// New creates the model. It starts on the sign-in screen unless a user is
// already stored.
func New(theme *styles.Theme, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.CharLimit = 8192
	ti.Focus()

	pi := textinput.New()
	pi.CharLimit = 1024

	m := Model{
		state:       StateAuth,
		theme:       theme,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		store:       opts.Store,
		ctrl:        opts.Controller,
		provider:    opts.Provider,
		sampler:     opts.Sampler,
		cfg:         opts.Config,
		updates:     opts.Updates,
		logger:      opts.Logger.Named("tui"),
		modelName:   opts.ModelName,
		exportDir:   opts.ExportDir,
		now:         opts.Now,
		viewport:    viewport.New(80, 20),
		input:       ti,
		prompt:      pi,
		thinking:    components.NewThinkingIndicator(),
		toasts:      components.NewToastManager(),
		markdown:    components.NewMarkdown(80, opts.Config.UI.CodeStyle),
		staged:      &attach.Staged{},
		sidebarOpen: opts.Config.UI.Sidebar,
		authMenu:    components.Menu{Items: []string{authGoogle, authGuest}},
	}

	if _, ok := m.store.User(); ok {
		m.state = StateChat
	}
	if notice := m.store.TakeRecoveryNotice(); notice != "" {
		m.toasts.Add(components.ToastKindWarning, notice)
	}
	m.refresh()
	return m
}

// Init starts the cursor blink, the config watch and any pending toasts.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if cmd := waitForConfig(m.updates); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.toasts.HasToasts() {
		cmds = append(cmds, components.ToastTickCmd())
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the screen being shown.
func (m Model) State() State { return m.state }

// Staged returns the staged attachment.
func (m Model) Staged() *attach.Staged { return m.staged }

// InputValue returns the composer text.
func (m Model) InputValue() string { return m.input.Value() }

// SidebarOpen reports whether the session list is visible.
func (m Model) SidebarOpen() bool { return m.sidebarOpen }

// MenuOpen reports whether the options menu is visible.
func (m Model) MenuOpen() bool { return m.menu != nil }

// AuthMessage returns the inline message on the sign-in screen.
func (m Model) AuthMessage() string { return m.authMsg }

// LoginError returns the sign-in failure banner text.
func (m Model) LoginError() string { return m.loginErr }

// Toasts returns the visible toasts.
func (m Model) Toasts() []components.Toast { return m.toasts.Toasts() }

// CodeBlocks returns the code blocks of the visible session.
func (m Model) CodeBlocks() []components.CodeBlock { return m.codeBlocks }

// Config returns the configuration in effect.
func (m Model) Config() *config.Config { return m.cfg }
