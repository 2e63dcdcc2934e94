// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-based chat REPL for terminals where the TUI is
// unwanted (SSH sessions, scripts driving a pty). Exchanges persist to
// the same database the TUI uses.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/omnichat-tui/internal/config"
	"github.com/jeranaias/omnichat-tui/internal/extract"
	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/session"
	"github.com/jeranaias/omnichat-tui/internal/turn"
)

const saveTimeout = 5 * time.Second

// RunChat handles "omnichat chat". Returns the process exit code.
func (a *App) RunChat(args *Args) int {
	sess := session.New(a.resolveModel(args.Model))

	if args.File != "" {
		data, err := os.ReadFile(args.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not read %s: %v\n", args.File, err)
			return 1
		}
		name := filepath.Base(args.File)
		sess.AttachFile(name, extract.Extract(name, data))
		fmt.Printf("Attached %s\n", name)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	if !args.Quiet {
		fmt.Printf("omnichat %s - model %s (exit with /quit or Ctrl+D)\n", Version, sess.Model())
	}

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			// Ctrl+C or Ctrl+D ends the session.
			fmt.Println()
			return 0
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "/quit" || input == "/exit" {
			return 0
		}

		if code := a.runExchange(sess, input, args); code != 0 {
			return code
		}
	}
}

// runExchange streams one reply and persists the exchange.
func (a *App) runExchange(sess *session.Session, input string, args *Args) int {
	sess.AppendUser(input)

	req := turn.Request{
		History:     sess.PromptMessages(),
		Model:       sess.Model(),
		ForceSearch: args.Search == "on",
		AutoSearch:  a.Cfg.Search.Enabled && args.Search != "off",
		MaxChunks:   a.Cfg.Turn.MaxChunks,
	}

	t := a.Orchestrator.StreamTurn(context.Background(), req)

	var reply strings.Builder
	announced := false
	for chunk := range t.Chunks() {
		if !announced && chunk.SearchUsed && !args.Quiet {
			fmt.Println("(searching the web...)")
			announced = true
		}
		fmt.Print(chunk.Content)
		reply.WriteString(chunk.Content)
	}
	fmt.Println()

	// A failed turn persists as its error, never as a truncated answer;
	// partial output is discarded.
	text := reply.String()
	if err := t.Err(); err != nil {
		text = "Error: " + err.Error()
		fmt.Fprintln(os.Stderr, text)
		fmt.Fprintln(os.Stderr, "Check that Ollama is running: ollama serve")
	}

	sess.AppendAssistant(text, t.SearchUsed())
	a.persistExchange(sess, input, text, t.SearchUsed())
	return 0
}

func (a *App) persistExchange(sess *session.Session, userMsg, reply string, searchUsed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := a.Store.SaveChatMeta(ctx, sess.ChatID(), sess.Title(), sess.Model(), sess.FileName()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save chat: %v\n", err)
		return
	}
	_ = a.Store.SaveMessage(ctx, sess.ChatID(), ollama.RoleUser, userMsg, false)
	_ = a.Store.SaveMessage(ctx, sess.ChatID(), ollama.RoleAssistant, reply, searchUsed)
	if state, err := sess.Checkpoint(); err == nil {
		_ = a.Store.SaveCheckpoint(ctx, sess.ChatID(), state)
	}
	sess.MarkClean()
}

func replHistoryPath() string {
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
