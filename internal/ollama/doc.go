// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a
// local Ollama server: health checks, model listing, and chat in both
// buffered and streaming (NDJSON) forms.
package ollama
