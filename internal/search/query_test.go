// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import "testing"

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{"what is prefix", "What is the capital of France?", "the capital of france"},
		{"who is prefix", "Who is Marie Curie", "marie curie"},
		{"tell me about prefix", "Tell me about the Roman Empire", "the roman empire"},
		{"search for prefix", "search for cheap flights to Oslo", "cheap flights to oslo"},
		{"find prefix", "Find good sushi nearby", "good sushi nearby"},
		{"no prefix", "Weather in Tokyo today", "weather in tokyo today"},
		{"trailing question marks", "how to bake bread???", "bake bread"},
		{"only one prefix stripped", "what is who is this", "who is this"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractQuery(tt.utterance); got != tt.want {
				t.Errorf("ExtractQuery(%q) = %q, want %q", tt.utterance, got, tt.want)
			}
		})
	}
}

// Stripping everything must never produce an empty query; the original
// utterance comes back instead.
func TestExtractQueryNeverEmpty(t *testing.T) {
	tests := []string{"???", "what is?", "find", "  "}
	for _, utterance := range tests {
		if got := ExtractQuery(utterance); got != utterance {
			t.Errorf("ExtractQuery(%q) = %q, want the original back", utterance, got)
		}
	}
}
