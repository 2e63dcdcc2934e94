// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI: message
// history rendering, streaming turn display, slash commands, and chat
// management backed by the store.
package chat
