// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file bridges the pull-driven turn stream into Bubble Tea's
// message loop: each received fragment is forwarded as a StreamChunkMsg
// and the command re-arms itself until the channel closes.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnichat-tui/internal/turn"
)

// waitForChunk returns a command that blocks on the turn's channel and
// delivers the next fragment, or StreamDoneMsg once the turn ends.
func waitForChunk(t *turn.Turn) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-t.Chunks()
		if !ok {
			return StreamDoneMsg{
				SearchUsed: t.SearchUsed(),
				Err:        t.Err(),
			}
		}
		return StreamChunkMsg{
			Content:    chunk.Content,
			SearchUsed: chunk.SearchUsed,
		}
	}
}
