// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "strings"

// =============================================================================
// MODEL CATALOG
// =============================================================================

// CatalogEntry describes one of the curated models the UI offers.
type CatalogEntry struct {
	// Label is the human-facing name, e.g. "Light (qwen2.5:0.5b)"
	Label string

	// Name is the Ollama model tag
	Name string

	// Description is a one-line capability summary
	Description string
}

// Catalog is the curated model list, ordered light to heavy. Any
// installed Ollama model can still be selected by tag; these are the
// ones surfaced in pickers.
var Catalog = []CatalogEntry{
	{
		Label:       "Light (qwen2.5:0.5b)",
		Name:        "qwen2.5:0.5b",
		Description: "Fast & efficient for basic tasks",
	},
	{
		Label:       "Moderate (llama3.2:1b)",
		Name:        "llama3.2:1b",
		Description: "Balanced performance for most tasks",
	},
	{
		Label:       "Heavy (llama3.1:8b)",
		Name:        "llama3.1:8b",
		Description: "Maximum capability for complex tasks",
	},
}

// CatalogLookup returns the catalog entry for a model tag, or nil if
// the model is not in the curated list.
func CatalogLookup(name string) *CatalogEntry {
	for i := range Catalog {
		if Catalog[i].Name == name {
			return &Catalog[i]
		}
	}
	return nil
}

// ResolveModel maps a user-supplied model name to an Ollama tag. The
// shorthand tier names accepted on the command line ("light",
// "moderate", "heavy") resolve through the catalog; anything else is
// returned unchanged so arbitrary installed tags keep working.
func ResolveModel(name string) string {
	switch strings.ToLower(name) {
	case "light":
		return Catalog[0].Name
	case "moderate":
		return Catalog[1].Name
	case "heavy":
		return Catalog[2].Name
	}
	return name
}
