// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/util"
)

const noticeWindow = 4 * time.Second

// Update handles all Bubble Tea messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	// ==========================================================================
	// TERMINAL EVENTS
	// ==========================================================================

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 5 // header, input, status
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelTurn()
			return m, tea.Quit

		case "esc":
			if m.state == StateStreaming {
				m.cancelTurn()
				return m, nil
			}
			m.lastError = nil
			m.systemLines = nil
			m.refreshViewport()
			return m, nil

		case "enter":
			if m.state == StateStreaming {
				return m, nil
			}
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			m.lastError = nil
			m.systemLines = nil

			if strings.HasPrefix(content, "/") {
				return m.handleCommand(content)
			}

			cmd := m.startTurn(content)
			m.refreshViewport()
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	// ==========================================================================
	// STREAMING
	// ==========================================================================

	case StreamChunkMsg:
		m.streamBuf += msg.Content
		if msg.SearchUsed {
			m.streamSearch = true
		}
		m.refreshViewport()
		return m, waitForChunk(m.activeTurn)

	case StreamDoneMsg:
		m.state = StateReady
		m.activeTurn = nil

		reply := m.streamBuf
		searchUsed := m.streamSearch || msg.SearchUsed

		if msg.Err != nil {
			// A failed turn is recorded as its error, not as a truncated
			// answer: any partial output is discarded and the error text
			// is persisted in its place so the transcript shows what
			// happened.
			reply = "Error: " + msg.Err.Error()
			m.lastError = &ErrorMsg{
				Message: msg.Err.Error(),
				Hint:    "Check that Ollama is running (ollama serve) or try another model with /model",
			}
		}

		m.session.AppendAssistant(reply, searchUsed)
		userMsg := m.pendingUser
		m.pendingUser = ""
		m.streamBuf = ""
		m.streamSearch = false
		m.refreshViewport()

		save := m.saveExchangeCmd(userMsg, reply, searchUsed)
		if m.cfg.UI.ShowTokens && msg.Err == nil && !m.streamStarted.IsZero() {
			elapsed := time.Since(m.streamStarted).Round(100 * time.Millisecond)
			return m, tea.Batch(save, noticeCmd(fmt.Sprintf("Responded in %s", elapsed)))
		}
		return m, save

	// ==========================================================================
	// OLLAMA
	// ==========================================================================

	case OllamaStatusMsg:
		m.ollamaUp = msg.Running
		if !msg.Running {
			m.lastError = &ErrorMsg{
				Message: "Cannot reach Ollama",
				Hint:    "Start it with: ollama serve",
			}
		}
		return m, nil

	case OllamaModelsMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not list models: "+msg.Err.Error(), "Is Ollama running?")
		}
		var sb strings.Builder
		sb.WriteString("Available models (switch with /model <name>):\n")
		for _, mi := range msg.Models {
			sb.WriteString(fmt.Sprintf("  %s\n", mi.Name))
		}
		m.appendNoticeToViewport(strings.TrimRight(sb.String(), "\n"))
		return m, nil

	// ==========================================================================
	// CHAT MANAGEMENT
	// ==========================================================================

	case ChatsListedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not list chats: "+msg.Err.Error(), "")
		}
		m.chatList = msg.Chats
		if len(msg.Chats) == 0 {
			m.appendNoticeToViewport("No saved chats yet.")
			return m, nil
		}
		var sb strings.Builder
		sb.WriteString("Saved chats (/load <n>, /delete <n>):\n")
		for i, meta := range msg.Chats {
			sb.WriteString(fmt.Sprintf("  %2d. %-40s %s, %d messages, %s\n",
				i+1, session.ShortTitle(meta.Title, 40), meta.Model,
				meta.MessageCount, util.RelativeTime(meta.LastUpdated, time.Now())))
		}
		m.appendNoticeToViewport(strings.TrimRight(sb.String(), "\n"))
		return m, nil

	case ChatLoadedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not load chat: "+msg.Err.Error(), "")
		}
		m.session = msg.Session
		m.refreshViewport()
		return m, noticeCmd("Loaded chat: " + msg.Session.Title())

	case ChatDeletedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not delete chat: "+msg.Err.Error(), "")
		}
		return m, noticeCmd("Deleted chat")

	case ChatSavedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not save chat: "+msg.Err.Error(), "")
		}
		return m, nil

	case WipedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not wipe history: "+msg.Err.Error(), "")
		}
		m.chatList = nil
		return m, noticeCmd("Deleted all chat history")

	case StatsMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not read stats: "+msg.Err.Error(), "")
		}
		s := msg.Stats
		m.appendNoticeToViewport(fmt.Sprintf(
			"Statistics:\n  Chats: %d\n  Messages: %d\n  Characters: %d\n  Searches: %d",
			s.TotalChats, s.TotalMessages, s.TotalChars, s.TotalSearches))
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			return m, errorCmd("Export failed: "+msg.Err.Error(), "")
		}
		return m, noticeCmd("Exported to " + msg.Path)

	case FileAttachedMsg:
		if msg.Err != nil {
			return m, errorCmd("Could not read file: "+msg.Err.Error(), "")
		}
		m.session.AttachFile(msg.Name, msg.Content)
		return m, noticeCmd("Attached " + msg.Name)

	// ==========================================================================
	// NOTICES AND ERRORS
	// ==========================================================================

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeSet = time.Now()
		at := m.noticeSet
		return m, tea.Tick(noticeWindow, func(time.Time) tea.Msg {
			return NoticeExpireMsg{At: at}
		})

	case NoticeExpireMsg:
		if msg.At.Equal(m.noticeSet) {
			m.notice = ""
		}
		return m, nil

	case ErrorMsg:
		m.lastError = &msg
		return m, nil
	}

	// Forward remaining events to the focused input.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
