// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import "strings"

// Leading interrogative phrases stripped from utterances before they
// become search queries. Tested in order; first match wins, so longer
// phrases that share a prefix with shorter ones must come first.
var questionPrefixes = []string{
	"what is",
	"who is",
	"where is",
	"when did",
	"how to",
	"tell me about",
	"search for",
	"look up",
	"find",
}

// ExtractQuery reduces a natural-language utterance to a concise search
// query: lower-cased, one leading interrogative phrase removed, and the
// trailing question mark stripped. If stripping leaves nothing, the
// original utterance is returned unchanged, never an empty query.
func ExtractQuery(utterance string) string {
	query := strings.ToLower(utterance)

	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(query, prefix) {
			query = strings.TrimSpace(query[len(prefix):])
			break
		}
	}

	query = strings.TrimSpace(strings.TrimRight(query, "?"))

	if query == "" {
		return utterance
	}
	return query
}
