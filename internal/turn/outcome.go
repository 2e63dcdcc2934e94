// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

// SearchStatus tags the result of the per-turn search step. Exactly one
// search decision is made per turn, so the orchestrator carries one
// outcome value instead of a nullable result string.
type SearchStatus int

const (
	// SearchSkipped: no search was needed this turn.
	SearchSkipped SearchStatus = iota

	// SearchOK: the provider returned a result blob, possibly "no
	// results found" text; the provider does not distinguish.
	SearchOK

	// SearchFailed: the provider failed; Text holds the marker-prefixed
	// error string, which is still injected as search context.
	SearchFailed
)

// SearchOutcome is the tagged per-turn search result.
type SearchOutcome struct {
	Status SearchStatus
	Text   string
}

// Used reports whether this outcome carries text to inject into the
// prompt. Both OK and Failed outcomes are injected; the conflation of
// failure with empty results is a deliberate fidelity choice.
func (o SearchOutcome) Used() bool {
	return o.Status != SearchSkipped
}

// Skipped returns the no-search outcome.
func Skipped() SearchOutcome {
	return SearchOutcome{Status: SearchSkipped}
}

// OK wraps a successful search result.
func OK(text string) SearchOutcome {
	return SearchOutcome{Status: SearchOK, Text: text}
}

// Failed wraps a provider failure already formatted as marker text.
func Failed(text string) SearchOutcome {
	return SearchOutcome{Status: SearchFailed, Text: text}
}
