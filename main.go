// omnichat - local LLM chat with automatic web search.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnichat-tui/internal/cli"
	"github.com/jeranaias/omnichat-tui/internal/config"
	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/search"
	"github.com/jeranaias/omnichat-tui/internal/storage"
	"github.com/jeranaias/omnichat-tui/internal/turn"
	"github.com/jeranaias/omnichat-tui/internal/ui/chat"
	"github.com/jeranaias/omnichat-tui/internal/ui/styles"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	switch args.Command {
	case cli.CmdHelp:
		fmt.Print(cli.Usage())
		return
	case cli.CmdVersion:
		os.Exit(cli.RunVersion())
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if args.Model != "" {
		cfg.DefaultModel = resolveModel(args.Model)
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		DefaultModel: cfg.DefaultModel,
	})

	dbPath, err := cfg.DBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	searcher := search.NewDuckDuckGoClient()
	searcher.MaxResults = cfg.Search.MaxResults
	searcher.Timeout = time.Duration(cfg.Search.TimeoutSecs) * time.Second

	orch := turn.NewOrchestrator(client, searcher, cfg.Turn.MaxChunks)

	app := cli.NewApp(cfg, client, store, orch)

	var code int
	switch args.Command {
	case cli.CmdAsk:
		code = app.RunAsk(args)
	case cli.CmdChat:
		code = app.RunChat(args)
	case cli.CmdChats:
		code = app.RunChats(args)
	case cli.CmdStats:
		code = app.RunStats(args)
	case cli.CmdWipe:
		code = app.RunWipe(args)
	case cli.CmdExport:
		code = app.RunExport(args)
	default:
		code = runTUI(cfg, client, store, orch)
	}
	os.Exit(code)
}

func resolveModel(flag string) string {
	return ollama.ResolveModel(flag)
}

func runTUI(cfg *config.Config, client *ollama.Client, store *storage.Store, orch *turn.Orchestrator) int {
	theme := styles.NewTheme()
	model := chat.New(theme, cfg, client, store, orch)

	p := tea.NewProgram(appModel{chat: model}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// appModel is the thin top-level Bubble Tea model wrapping the chat
// view; kept separate so future views (settings, pickers) can slot in.
type appModel struct {
	chat chat.Model
}

func (m appModel) Init() tea.Cmd {
	return m.chat.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m appModel) View() string {
	return m.chat.View()
}
