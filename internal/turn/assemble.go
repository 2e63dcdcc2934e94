// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"strings"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
)

// searchContextTemplate is the system instruction wrapped around search
// results before they reach the model.
const searchContextTemplate = `You have access to current web search results. Use this information to answer the user's question accurately.

SEARCH RESULTS:
%RESULTS%

Important:
- Use the search results to provide up-to-date information
- Cite sources when possible (mention "According to recent sources" or similar)
- If search results are not relevant, acknowledge this and use your knowledge
- Be concise and accurate`

// Assemble builds the prompt sent to the model. When the outcome
// carries search text, one system message wrapping it is inserted
// immediately before the final message (directly ahead of the newest
// user turn); all other messages keep their original order. With no
// search text, history is returned as-is.
//
// Assemble never inspects history for an existing search context
// message: the at-most-once guarantee is the orchestrator's, which
// constructs exactly one outcome per turn.
func Assemble(history []ollama.Message, outcome SearchOutcome) []ollama.Message {
	if !outcome.Used() || len(history) == 0 {
		return history
	}

	ctxMsg := ollama.NewSystemMessage(
		strings.Replace(searchContextTemplate, "%RESULTS%", outcome.Text, 1))

	prompt := make([]ollama.Message, 0, len(history)+1)
	prompt = append(prompt, history[:len(history)-1]...)
	prompt = append(prompt, ctxMsg)
	prompt = append(prompt, history[len(history)-1])
	return prompt
}
