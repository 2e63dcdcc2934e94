// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"regexp"
	"strings"
)

// Pre-compiled temporal reference patterns (compiled once at startup).
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(today|now|currently|latest|recent)\b`),
	regexp.MustCompile(`\b(this (year|month|week))\b`),
	regexp.MustCompile(`\b(in \d{4})\b`), // year reference
}

// NeedsSearch reports whether an utterance should trigger a web search.
// force returns true unconditionally. Otherwise the lower-cased
// utterance is scanned for the keyword set and the temporal patterns.
// Pure function of its input; no side effects.
func NeedsSearch(utterance string, force bool) bool {
	if force {
		return true
	}

	lower := strings.ToLower(utterance)

	for _, keyword := range searchKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	for _, pattern := range timePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	return false
}
