// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"strings"
	"testing"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
)

func historyFixture() []ollama.Message {
	return []ollama.Message{
		ollama.NewUserMessage("hi"),
		ollama.NewAssistantMessage("hello"),
		ollama.NewUserMessage("what is the latest Go release?"),
	}
}

func TestAssembleInjectsBeforeLastMessage(t *testing.T) {
	history := historyFixture()
	prompt := Assemble(history, OK("Web search results for: go release"))

	if len(prompt) != len(history)+1 {
		t.Fatalf("prompt has %d messages, want %d", len(prompt), len(history)+1)
	}

	ctxMsg := prompt[len(prompt)-2]
	if ctxMsg.Role != ollama.RoleSystem {
		t.Errorf("injected message role = %q, want system", ctxMsg.Role)
	}
	if !strings.Contains(ctxMsg.Content, "Web search results for: go release") {
		t.Errorf("injected message missing search text: %q", ctxMsg.Content)
	}
	if !strings.Contains(ctxMsg.Content, "SEARCH RESULTS:") {
		t.Errorf("injected message missing template framing: %q", ctxMsg.Content)
	}

	// Everything else keeps its order around the insertion point.
	if prompt[0] != history[0] || prompt[1] != history[1] {
		t.Error("leading messages reordered")
	}
	if prompt[len(prompt)-1] != history[len(history)-1] {
		t.Error("newest user message is not last")
	}
}

func TestAssembleFailureTextStillInjected(t *testing.T) {
	prompt := Assemble(historyFixture(), Failed("Search error: timeout"))
	ctxMsg := prompt[len(prompt)-2]
	if !strings.Contains(ctxMsg.Content, "Search error: timeout") {
		t.Errorf("failure marker not injected: %q", ctxMsg.Content)
	}
}

func TestAssembleNoSearch(t *testing.T) {
	history := historyFixture()

	prompt := Assemble(history, Skipped())
	if len(prompt) != len(history) {
		t.Fatalf("skipped outcome changed prompt length: %d", len(prompt))
	}
	for i := range history {
		if prompt[i] != history[i] {
			t.Fatalf("message %d changed", i)
		}
	}
}

func TestAssembleEmptyHistory(t *testing.T) {
	if got := Assemble(nil, OK("results")); len(got) != 0 {
		t.Errorf("empty history should stay empty, got %d messages", len(got))
	}
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	history := historyFixture()
	backup := make([]ollama.Message, len(history))
	copy(backup, history)

	Assemble(history, OK("results"))

	for i := range backup {
		if history[i] != backup[i] {
			t.Fatalf("input history mutated at %d", i)
		}
	}
}
