// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search decides when a chat turn needs live web results,
// reduces the user's utterance to a search query, and executes the
// query against DuckDuckGo's HTML endpoint (free, no API key).
package search
