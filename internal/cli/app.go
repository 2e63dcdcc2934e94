// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - shared wiring for CLI command handlers.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/omnichat-tui/internal/config"
	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/storage"
	"github.com/jeranaias/omnichat-tui/internal/turn"
)

// App bundles the collaborators every CLI command needs.
type App struct {
	Cfg          *config.Config
	Client       *ollama.Client
	Store        *storage.Store
	Orchestrator *turn.Orchestrator

	renderer *glamour.TermRenderer
}

// NewApp builds an App around already-opened collaborators.
func NewApp(cfg *config.Config, client *ollama.Client, store *storage.Store, orch *turn.Orchestrator) *App {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	return &App{
		Cfg:          cfg,
		Client:       client,
		Store:        store,
		Orchestrator: orch,
		renderer:     renderer,
	}
}

// resolveModel maps a flag value through the catalog, falling back to
// the configured default.
func (a *App) resolveModel(flag string) string {
	if flag == "" {
		return a.Cfg.DefaultModel
	}
	return ollama.ResolveModel(flag)
}

// renderMarkdown renders markdown for terminal display. Piped output
// stays plain so downstream tools see clean text.
func (a *App) renderMarkdown(content string) string {
	if a.renderer == nil || !isTTY() {
		return content
	}
	rendered, err := a.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || width > 120 {
		return 80
	}
	return width
}

// RunVersion prints version information.
func RunVersion() int {
	fmt.Printf("omnichat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	return 0
}
