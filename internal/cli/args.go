// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - CLI parsing for omnichat.
package cli

import (
	"fmt"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdChats
	CmdStats
	CmdWipe
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	Command Command

	// Global flags
	Model   string
	File    string
	Search  string // "", "on", "off" - force or suppress web search
	Quiet   bool
	Confirm bool

	// Command-specific
	Query  string
	ChatID string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `omnichat - local AI chat with automatic web search

Omnichat talks to a local Ollama server and decides per message whether
a DuckDuckGo web search would improve the answer. Chats persist to a
local SQLite database.

Usage:
  omnichat                    Start the TUI (default)
  omnichat ask "question"     Ask a single question
  omnichat chat               Line-based chat REPL
  omnichat chats              List saved chats
  omnichat stats              Show database statistics
  omnichat export <chat-id>   Export a chat to markdown
  omnichat wipe --confirm     Delete ALL chat history
  omnichat version            Show version
  omnichat help               Show this help

Flags:
  -m, --model NAME    Use a specific model (or a catalog label: light,
                      moderate, heavy)
  -f, --file PATH     Attach a file as context (ask/chat)
  --search on|off     Force or suppress web search for this run
  -q, --quiet         Minimal output
  --confirm           Required confirmation for destructive commands

Examples:
  omnichat ask "What is the capital of France?"
  omnichat ask --search on "latest Go release"
  omnichat ask -f notes.md "Summarize this file"
  omnichat chat -m heavy
`

// Usage returns the top-level help text.
func Usage() string {
	return usageText
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (*Args, error) {
	args := &Args{Command: CmdTUI}

	var positional []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-m" || arg == "--model":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			args.Model = argv[i]
		case arg == "-f" || arg == "--file":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			args.File = argv[i]
		case arg == "--search":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--search requires on or off")
			}
			i++
			val := strings.ToLower(argv[i])
			if val != "on" && val != "off" {
				return nil, fmt.Errorf("--search requires on or off, got %q", argv[i])
			}
			args.Search = val
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--confirm":
			args.Confirm = true
		case arg == "-h" || arg == "--help":
			args.Command = CmdHelp
			return args, nil
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return args, nil
	}

	cmd, rest := positional[0], positional[1:]
	args.Raw = rest

	switch cmd {
	case "ask":
		args.Command = CmdAsk
		if len(rest) == 0 {
			return nil, fmt.Errorf("ask requires a question")
		}
		args.Query = strings.Join(rest, " ")
	case "chat":
		args.Command = CmdChat
	case "chats", "list":
		args.Command = CmdChats
	case "stats":
		args.Command = CmdStats
	case "wipe":
		args.Command = CmdWipe
	case "export":
		args.Command = CmdExport
		if len(rest) != 1 {
			return nil, fmt.Errorf("export requires a chat ID (see: omnichat chats)")
		}
		args.ChatID = rest[0]
	case "version", "--version":
		args.Command = CmdVersion
	case "help":
		args.Command = CmdHelp
	default:
		return nil, fmt.Errorf("unknown command: %s (see: omnichat help)", cmd)
	}

	return args, nil
}
