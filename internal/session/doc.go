// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the state of one open conversation: identity,
// title, model selection, message history, attached-file context, and
// checkpoint snapshots.
package session
