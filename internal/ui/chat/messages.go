// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Streaming: chunk delivery, completion, errors
//   - Ollama: health checks and model listings
//   - Chats: load, delete, wipe, export results
//   - UI State: notices and errors
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/storage"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamChunkMsg delivers one fragment from the active turn.
type StreamChunkMsg struct {
	Content    string
	SearchUsed bool
}

// StreamDoneMsg signals that the active turn finished (channel closed).
type StreamDoneMsg struct {
	SearchUsed bool
	Err        error
}

// =============================================================================
// OLLAMA MESSAGES
// =============================================================================

// OllamaStatusMsg reports Ollama connection status.
type OllamaStatusMsg struct {
	Running bool
	Err     error
}

// OllamaModelsMsg delivers the list of locally available models.
type OllamaModelsMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

// =============================================================================
// CHAT MANAGEMENT MESSAGES
// =============================================================================

// ChatsListedMsg delivers saved chat metadata for /chats.
type ChatsListedMsg struct {
	Chats []storage.ChatMeta
	Err   error
}

// ChatLoadedMsg delivers a rehydrated session for /load.
type ChatLoadedMsg struct {
	Session *session.Session
	Err     error
}

// ChatDeletedMsg confirms a /delete.
type ChatDeletedMsg struct {
	ChatID string
	Err    error
}

// ChatSavedMsg confirms persistence of the latest exchange.
type ChatSavedMsg struct {
	Err error
}

// WipedMsg confirms /wipe.
type WipedMsg struct {
	Err error
}

// StatsMsg delivers database statistics for /stats.
type StatsMsg struct {
	Stats *storage.Stats
	Err   error
}

// ExportedMsg confirms /export.
type ExportedMsg struct {
	Path string
	Err  error
}

// FileAttachedMsg delivers extracted attachment content for /attach.
type FileAttachedMsg struct {
	Name    string
	Content string
	Err     error
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// NoticeMsg shows a transient status line.
type NoticeMsg struct {
	Text string
}

// NoticeExpireMsg clears a notice after its display window.
type NoticeExpireMsg struct {
	At time.Time
}

// ErrorMsg displays an error with an optional remediation hint.
type ErrorMsg struct {
	Message string
	Hint    string
}
