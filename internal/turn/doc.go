// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn coordinates a single chat turn: it decides whether the
// turn needs a web search, runs the search, assembles the final prompt,
// and streams the model's answer with repetition and length guards.
//
// A turn is a pull-driven sequence: the caller ranges over
// Turn.Chunks() and may abandon it at any point via Turn.Close().
package turn
