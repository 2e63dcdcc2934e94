// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/util"
)

// Message is one conversation entry with its search provenance flag.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	SearchUsed bool   `json:"search_used,omitempty"`
}

// Session is the mutable state of one open conversation. Safe for
// concurrent use; the TUI reads it while a background turn appends.
type Session struct {
	mu sync.Mutex

	chatID string
	title  string
	model  string

	history []Message

	// Attached file context. The context is injected into the prompt
	// as a system message exactly once per conversation; after that it
	// lives in history like any other message.
	fileName     string
	fileContext  string
	fileInjected bool

	dirty bool
}

// New creates a fresh session with a random chat ID.
func New(model string) *Session {
	return &Session{
		chatID: uuid.NewString(),
		title:  "New Chat",
		model:  model,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ChatID returns the chat identifier.
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Title returns the chat title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// SetTitle replaces the chat title (rename).
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
	s.dirty = true
}

// Model returns the selected model tag.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel switches the model for subsequent turns.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.dirty = true
}

// FileName returns the attached file's name, "" when none.
func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// History returns a copy of the message history.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// IsDirty reports unsaved changes.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkClean records that state has been persisted.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// =============================================================================
// HISTORY MUTATION
// =============================================================================

// AppendUser appends a user message. The first user message also sets
// the auto-generated chat title.
func (s *Session) AppendUser(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasUserMessage() {
		s.title = GenerateTitle(content)
	}
	s.history = append(s.history, Message{Role: ollama.RoleUser, Content: content})
	s.dirty = true
}

// AppendAssistant appends an assistant message with its search flag.
func (s *Session) AppendAssistant(content string, searchUsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Message{Role: ollama.RoleAssistant, Content: content, SearchUsed: searchUsed})
	s.dirty = true
}

func (s *Session) hasUserMessage() bool {
	for _, m := range s.history {
		if m.Role == ollama.RoleUser {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ATTACHMENT
// =============================================================================

// AttachFile records extracted file content for injection on the next
// turn. Re-attaching (same or different file) re-arms the injection.
func (s *Session) AttachFile(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileName = name
	s.fileContext = content
	s.fileInjected = false
	s.dirty = true
}

// DetachFile clears the attachment.
func (s *Session) DetachFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileName = ""
	s.fileContext = ""
	s.fileInjected = false
	s.dirty = true
}

// FileContext returns the extracted attachment text.
func (s *Session) FileContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileContext
}

// =============================================================================
// PROMPT CONSTRUCTION
// =============================================================================

// PromptMessages builds the ordered prompt for the next turn. Pending
// file context is folded into history as a system message the first
// time this runs after an attach, so it is sent exactly once and then
// persists in order like any other message.
func (s *Session) PromptMessages() []ollama.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileContext != "" && !s.fileInjected {
		ctx := Message{
			Role: ollama.RoleSystem,
			Content: "The user has uploaded a file named '" + s.fileName +
				"'. Use its content to answer their questions.\n\nFILE CONTENT:\n" + s.fileContext,
		}
		// Insert ahead of the newest user message when one is pending,
		// otherwise append.
		if n := len(s.history); n > 0 && s.history[n-1].Role == ollama.RoleUser {
			s.history = append(s.history[:n-1], ctx, s.history[n-1])
		} else {
			s.history = append(s.history, ctx)
		}
		s.fileInjected = true
		s.dirty = true
	}

	prompt := make([]ollama.Message, len(s.history))
	for i, m := range s.history {
		prompt[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	return prompt
}

// =============================================================================
// CHECKPOINTS
// =============================================================================

// checkpoint is the serialized session snapshot stored alongside the
// chat rows.
type checkpoint struct {
	ChatID       string    `json:"chat_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	FileName     string    `json:"file_name,omitempty"`
	FileInjected bool      `json:"file_injected"`
	History      []Message `json:"history"`
}

// Checkpoint serializes the session for the checkpoint table.
func (s *Session) Checkpoint() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(checkpoint{
		ChatID:       s.chatID,
		Title:        s.title,
		Model:        s.model,
		FileName:     s.fileName,
		FileInjected: s.fileInjected,
		History:      s.history,
	})
}

// Restore rebuilds a session from a checkpoint blob.
func Restore(data []byte) (*Session, error) {
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &Session{
		chatID:       cp.ChatID,
		title:        cp.Title,
		model:        cp.Model,
		fileName:     cp.FileName,
		fileInjected: cp.FileInjected,
		history:      cp.History,
	}, nil
}

// Hydrate rebuilds a session from persisted chat rows (used when a
// chat is loaded from the history list).
func Hydrate(chatID, title, model, fileName string, history []Message) *Session {
	return &Session{
		chatID:   chatID,
		title:    title,
		model:    model,
		fileName: fileName,
		history:  history,
		// History already contains any injected file context.
		fileInjected: true,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// GenerateTitle derives a chat title from the first user message:
// whitespace collapsed, capped at 50 runes with an ellipsis.
func GenerateTitle(firstMessage string) string {
	clean := util.CollapseWhitespace(firstMessage)
	runes := []rune(clean)
	if len(runes) <= 50 {
		if clean == "" {
			return "New Chat"
		}
		return clean
	}
	return string(runes[:50]) + "..."
}

// Ellipsis guard for titles used in narrow lists.
func ShortTitle(title string, width int) string {
	return util.TruncateRunes(strings.TrimSpace(title), width)
}
