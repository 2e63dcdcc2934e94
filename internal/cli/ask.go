// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - single question handler.
//
// Streams one answer to stdout, optionally with file context and with
// web search forced on or off.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/omnichat-tui/internal/extract"
	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/turn"
)

// RunAsk handles "omnichat ask". Returns the process exit code.
func (a *App) RunAsk(args *Args) int {
	sess := session.New(a.resolveModel(args.Model))

	if args.File != "" {
		data, err := os.ReadFile(args.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not read %s: %v\n", args.File, err)
			return 1
		}
		name := filepath.Base(args.File)
		sess.AttachFile(name, extract.Extract(name, data))
	}

	sess.AppendUser(args.Query)

	req := turn.Request{
		History:     sess.PromptMessages(),
		Model:       sess.Model(),
		ForceSearch: args.Search == "on",
		AutoSearch:  a.Cfg.Search.Enabled && args.Search != "off",
		MaxChunks:   a.Cfg.Turn.MaxChunks,
	}

	t := a.Orchestrator.StreamTurn(context.Background(), req)

	wrote := false
	for chunk := range t.Chunks() {
		if !wrote && !args.Quiet && chunk.SearchUsed && isTTY() {
			fmt.Println("(searching the web...)")
		}
		fmt.Print(chunk.Content)
		wrote = true
	}
	if wrote {
		fmt.Println()
	}

	if err := t.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Check that Ollama is running: ollama serve")
		return 1
	}
	return 0
}
