// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/session"
)

// View renders the full chat screen.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderInput())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m Model) renderHeader() string {
	title := "omnichat"
	if t := m.session.Title(); t != "New Chat" {
		title += " - " + t
	}
	return m.theme.Header.Width(m.width).Render(title)
}

func (m Model) renderInput() string {
	if m.state == StateStreaming {
		return m.theme.InputContainer.Width(m.width).Render(
			m.theme.Spinner.Render(m.spinner.View()) + " " +
				m.theme.Thinking.Render("Thinking... (Esc to cancel)"))
	}
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	parts := []string{m.session.Model()}

	if m.autoSearch {
		parts = append(parts, "auto-search on")
	} else {
		parts = append(parts, "auto-search off")
	}
	if name := m.session.FileName(); name != "" {
		parts = append(parts, "file: "+name)
	}
	if m.state == StateReady && m.searchWouldTrigger(m.input.Value()) {
		parts = append(parts, "will search")
	}
	if !m.ollamaUp {
		parts = append(parts, "ollama: unreachable")
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  |  "))
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript and pins the view to the
// bottom so streaming output stays visible.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// appendNoticeToViewport shows an informational block (help text, chat
// listings) under the conversation.
func (m *Model) appendNoticeToViewport(text string) {
	m.systemLines = append(m.systemLines, text)
	m.refreshViewport()
}

func (m *Model) renderTranscript() string {
	var sb strings.Builder

	for _, msg := range m.session.History() {
		switch msg.Role {
		case ollama.RoleUser:
			sb.WriteString(m.theme.UserLabel.Render("You") + "\n")
			sb.WriteString(m.theme.UserText.Render(msg.Content) + "\n\n")
		case ollama.RoleAssistant:
			sb.WriteString(m.renderAssistant(msg) + "\n")
		}
		// System messages (file context, search context) are not shown.
	}

	// In-flight response, rendered raw; markdown is applied once the
	// turn completes.
	if m.state == StateStreaming {
		sb.WriteString(m.theme.AssistantLabel.Render("Assistant"))
		if m.streamSearch {
			sb.WriteString(" " + m.theme.SearchBadge.Render("(searching the web)"))
		}
		sb.WriteString("\n")
		sb.WriteString(m.theme.AssistantText.Render(m.streamBuf))
		sb.WriteString("\n")
	}

	if m.lastError != nil {
		sb.WriteString("\n" + m.theme.ErrorBox.Render("Error: "+m.lastError.Message) + "\n")
		if m.lastError.Hint != "" {
			sb.WriteString(m.theme.ErrorHint.Render(m.lastError.Hint) + "\n")
		}
	}

	for _, line := range m.systemLines {
		sb.WriteString("\n" + m.theme.Notice.Render(line) + "\n")
	}

	return sb.String()
}

func (m *Model) renderAssistant(msg session.Message) string {
	var sb strings.Builder

	sb.WriteString(m.theme.AssistantLabel.Render("Assistant"))
	if msg.SearchUsed {
		sb.WriteString(" " + m.theme.SearchBadge.Render("(web search used)"))
	}
	sb.WriteString("\n")

	body := msg.Content
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n") + "\n"
			sb.WriteString(body)
			return sb.String()
		}
	}
	sb.WriteString(m.theme.AssistantText.Render(body) + "\n")
	return sb.String()
}

// Shortcuts line used by the app shell's help footer.
func Shortcuts() string {
	return fmt.Sprintf("%-18s %s", "Enter", "send") + "  " +
		fmt.Sprintf("%-18s %s", "Esc", "cancel stream") + "  " +
		fmt.Sprintf("%-18s %s", "Ctrl+C", "quit")
}
