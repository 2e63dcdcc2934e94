// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements the slash commands and the background commands
// that talk to the store, Ollama, and the filesystem.
package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnichat-tui/internal/extract"
	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/util"
)

const storeTimeout = 5 * time.Second

// handleCommand dispatches a slash command. Returns the updated model
// and any command to run; unknown commands produce an error notice.
func (m Model) handleCommand(input string) (Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/new":
		m.session = session.New(m.cfg.DefaultModel)
		m.lastError = nil
		m.refreshViewport()
		return m, noticeCmd("Started a new chat")

	case "/chats":
		return m, m.listChatsCmd()

	case "/load":
		if len(args) != 1 {
			return m, errorCmd("Usage: /load <number>", "Run /chats first to see the numbers")
		}
		meta, err := m.chatByNumber(args[0])
		if err != nil {
			return m, errorCmd(err.Error(), "Run /chats first to see the numbers")
		}
		return m, m.loadChatCmd(meta.ChatID)

	case "/delete":
		if len(args) != 1 {
			return m, errorCmd("Usage: /delete <number>", "Run /chats first to see the numbers")
		}
		meta, err := m.chatByNumber(args[0])
		if err != nil {
			return m, errorCmd(err.Error(), "Run /chats first to see the numbers")
		}
		return m, m.deleteChatCmd(meta.ChatID)

	case "/rename":
		if len(args) == 0 {
			return m, errorCmd("Usage: /rename <new title>", "")
		}
		title := strings.Join(args, " ")
		m.session.SetTitle(title)
		return m, tea.Batch(m.renameChatCmd(m.session.ChatID(), title), noticeCmd("Renamed chat"))

	case "/attach":
		if len(args) == 0 {
			return m, errorCmd("Usage: /attach <path>", "Supported: txt, md, pdf, docx, source files")
		}
		return m, m.attachFileCmd(strings.Join(args, " "))

	case "/detach":
		m.session.DetachFile()
		return m, noticeCmd("Removed attachment")

	case "/model":
		if len(args) == 0 {
			return m, m.listModelsCmd()
		}
		name := ollama.ResolveModel(args[0])
		m.session.SetModel(name)
		return m, noticeCmd("Switched model to " + name)

	case "/search":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return m, errorCmd("Usage: /search on|off", "")
		}
		m.autoSearch = args[0] == "on"
		return m, noticeCmd("Auto search " + args[0])

	case "/stats":
		return m, m.statsCmd()

	case "/wipe":
		return m, m.wipeCmd()

	case "/export":
		return m, m.exportCmd()

	case "/help":
		m.appendNoticeToViewport(helpText())
		return m, nil

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		return m, errorCmd("Unknown command: "+cmd, "Type /help for the command list")
	}
}

// chatByNumber resolves a 1-based index from the last /chats listing.
func (m *Model) chatByNumber(arg string) (*ChatRef, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(m.chatList) {
		return nil, fmt.Errorf("no chat numbered %q", arg)
	}
	meta := m.chatList[n-1]
	return &ChatRef{ChatID: meta.ChatID, Title: meta.Title}, nil
}

// ChatRef is a resolved /chats listing entry.
type ChatRef struct {
	ChatID string
	Title  string
}

func helpText() string {
	return strings.TrimSpace(`
Commands:
  /new              start a new chat
  /chats            list saved chats
  /load <n>         load chat n from the list
  /delete <n>       delete chat n from the list
  /rename <title>   rename the current chat
  /attach <path>    attach a file as context
  /detach           remove the attachment
  /model [name]     switch model, or list available models
  /search on|off    toggle automatic web search
  /stats            show database statistics
  /export           export this chat to markdown
  /wipe             delete ALL chats
  /quit             exit`) + "\n" + Shortcuts()
}

// =============================================================================
// BACKGROUND COMMANDS
// =============================================================================

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg { return NoticeMsg{Text: text} }
}

func errorCmd(message, hint string) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Message: message, Hint: hint} }
}

func (m Model) checkOllamaCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		err := client.CheckRunning(ctx)
		return OllamaStatusMsg{Running: err == nil, Err: err}
	}
}

func (m Model) listModelsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		models, err := client.ListModels(ctx)
		return OllamaModelsMsg{Models: models, Err: err}
	}
}

func (m Model) listChatsCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		chats, err := store.ListChats(ctx)
		return ChatsListedMsg{Chats: chats, Err: err}
	}
}

func (m Model) loadChatCmd(chatID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		// Prefer the checkpoint: it carries attachment state the message
		// rows do not.
		if state, err := store.LoadCheckpoint(ctx, chatID); err == nil && state != nil {
			if sess, err := session.Restore(state); err == nil {
				return ChatLoadedMsg{Session: sess}
			}
		}

		meta, err := store.GetChat(ctx, chatID)
		if err != nil {
			return ChatLoadedMsg{Err: err}
		}
		msgs, err := store.GetMessages(ctx, chatID)
		if err != nil {
			return ChatLoadedMsg{Err: err}
		}

		history := make([]session.Message, len(msgs))
		for i, msg := range msgs {
			history[i] = session.Message{Role: msg.Role, Content: msg.Content, SearchUsed: msg.SearchUsed}
		}
		sess := session.Hydrate(meta.ChatID, meta.Title, meta.Model, meta.FileName, history)
		return ChatLoadedMsg{Session: sess}
	}
}

func (m Model) deleteChatCmd(chatID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return ChatDeletedMsg{ChatID: chatID, Err: store.DeleteChat(ctx, chatID)}
	}
}

func (m Model) renameChatCmd(chatID, title string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		// A chat that was never persisted has no row yet; that's fine.
		_ = store.RenameChat(ctx, chatID, title)
		return nil
	}
}

func (m Model) attachFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return FileAttachedMsg{Err: err}
		}
		name := filepath.Base(path)
		return FileAttachedMsg{Name: name, Content: extract.Extract(name, data)}
	}
}

func (m Model) statsCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		stats, err := store.GetStats(ctx)
		return StatsMsg{Stats: stats, Err: err}
	}
}

func (m Model) wipeCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return WipedMsg{Err: store.WipeAll(ctx)}
	}
}

// exportCmd writes the conversation as markdown next to the working
// directory, named after the chat ID.
func (m Model) exportCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		var sb strings.Builder
		sb.WriteString("# " + sess.Title() + "\n\n")
		sb.WriteString("Model: " + sess.Model() + "\n\n")
		for _, msg := range sess.History() {
			switch msg.Role {
			case ollama.RoleUser:
				sb.WriteString("## You\n\n" + msg.Content + "\n\n")
			case ollama.RoleAssistant:
				sb.WriteString("## Assistant")
				if msg.SearchUsed {
					sb.WriteString(" (web search used)")
				}
				sb.WriteString("\n\n" + msg.Content + "\n\n")
			}
		}

		path := fmt.Sprintf("omnichat-%s.md", sess.ChatID()[:8])
		if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return ExportedMsg{Err: err}
		}
		return ExportedMsg{Path: path}
	}
}

// saveExchangeCmd persists the completed user/assistant exchange along
// with refreshed metadata and a session checkpoint.
func (m Model) saveExchangeCmd(userMsg, reply string, searchUsed bool) tea.Cmd {
	store := m.store
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.SaveChatMeta(ctx, sess.ChatID(), sess.Title(), sess.Model(), sess.FileName()); err != nil {
			return ChatSavedMsg{Err: err}
		}
		if err := store.SaveMessage(ctx, sess.ChatID(), ollama.RoleUser, userMsg, false); err != nil {
			return ChatSavedMsg{Err: err}
		}
		if err := store.SaveMessage(ctx, sess.ChatID(), ollama.RoleAssistant, reply, searchUsed); err != nil {
			return ChatSavedMsg{Err: err}
		}
		if state, err := sess.Checkpoint(); err == nil {
			if err := store.SaveCheckpoint(ctx, sess.ChatID(), state); err != nil {
				return ChatSavedMsg{Err: err}
			}
		}
		sess.MarkClean()
		return ChatSavedMsg{}
	}
}
