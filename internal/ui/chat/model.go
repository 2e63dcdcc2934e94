// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/omnichat-tui/internal/config"
	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/search"
	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/storage"
	"github.com/jeranaias/omnichat-tui/internal/turn"
	"github.com/jeranaias/omnichat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving streaming response
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State

	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	// Collaborators
	client       *ollama.Client
	store        *storage.Store
	orchestrator *turn.Orchestrator

	// Conversation state
	session    *session.Session
	autoSearch bool

	// Active streaming turn
	activeTurn    *turn.Turn
	streamBuf     string
	streamSearch  bool
	pendingUser   string // user message awaiting persistence with the reply
	streamStarted time.Time

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// Transient display state
	notice      string
	noticeSet   time.Time
	lastError   *ErrorMsg
	systemLines []string // informational blocks appended after history

	// Ollama status
	ollamaUp bool

	// Cached /chats listing, indexed by the numbers shown to the user
	chatList []storage.ChatMeta
}

// New creates a new chat model.
func New(theme *styles.Theme, cfg *config.Config, client *ollama.Client, store *storage.Store, orch *turn.Orchestrator) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message, /help for commands..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)

	return Model{
		state:        StateReady,
		theme:        theme,
		cfg:          cfg,
		client:       client,
		store:        store,
		orchestrator: orch,
		session:      session.New(cfg.DefaultModel),
		autoSearch:   cfg.Search.Enabled,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		renderer:     renderer,
	}
}

// Init starts the spinner and kicks off an Ollama health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkOllamaCmd())
}

// Session exposes the active session (used by the app shell on exit).
func (m Model) Session() *session.Session {
	return m.session
}

// =============================================================================
// TURN DISPATCH
// =============================================================================

// startTurn begins a streaming turn for the submitted user message.
func (m *Model) startTurn(content string) tea.Cmd {
	m.session.AppendUser(content)
	m.pendingUser = content
	m.streamBuf = ""
	m.streamSearch = false
	m.streamStarted = time.Now()
	m.state = StateStreaming

	req := turn.Request{
		History:    m.session.PromptMessages(),
		Model:      m.session.Model(),
		AutoSearch: m.autoSearch,
		MaxChunks:  m.cfg.Turn.MaxChunks,
	}

	t := m.orchestrator.StreamTurn(context.Background(), req)
	m.activeTurn = t
	return waitForChunk(t)
}

// cancelTurn abandons the in-flight stream, keeping any partial output.
func (m *Model) cancelTurn() {
	if m.activeTurn != nil {
		m.activeTurn.Close()
	}
}

// searchWouldTrigger reports whether the classifier would search for the
// given input under current settings. Used for the status bar hint.
func (m *Model) searchWouldTrigger(input string) bool {
	return m.autoSearch && search.NeedsSearch(input, false)
}
