// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chats, messages, and session checkpoints to
// SQLite (pure Go driver, no cgo).
package storage
