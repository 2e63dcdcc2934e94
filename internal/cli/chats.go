// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chats.go - chat history management commands: list, stats, export,
// wipe.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/util"
)

const queryTimeout = 5 * time.Second

// RunChats handles "omnichat chats".
func (a *App) RunChats(args *Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	chats, err := a.Store.ListChats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(chats) == 0 {
		fmt.Println("No saved chats.")
		return 0
	}

	fmt.Printf("%-10s  %-40s  %-16s  %4s  %s\n", "ID", "TITLE", "MODEL", "MSGS", "UPDATED")
	now := time.Now()
	for _, meta := range chats {
		fmt.Printf("%-10s  %s  %-16s  %4d  %s\n",
			meta.ChatID[:8],
			pad(util.TruncateRunes(meta.Title, 40), 40),
			meta.Model,
			meta.MessageCount,
			util.RelativeTime(meta.LastUpdated, now))
	}
	return 0
}

// RunStats handles "omnichat stats".
func (a *App) RunStats(args *Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats, err := a.Store.GetStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Chats:      %d\n", stats.TotalChats)
	fmt.Printf("Messages:   %d\n", stats.TotalMessages)
	fmt.Printf("Characters: %d\n", stats.TotalChars)
	fmt.Printf("Searches:   %d\n", stats.TotalSearches)
	return 0
}

// RunWipe handles "omnichat wipe". Requires --confirm.
func (a *App) RunWipe(args *Args) int {
	if !args.Confirm {
		fmt.Fprintln(os.Stderr, "This deletes ALL chat history. Re-run with --confirm to proceed.")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := a.Store.WipeAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println("Deleted all chat history.")
	return 0
}

// RunExport handles "omnichat export <chat-id>". The ID may be the
// 8-character prefix shown by "omnichat chats".
func (a *App) RunExport(args *Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	chatID, err := a.resolveChatID(ctx, args.ChatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	meta, err := a.Store.GetChat(ctx, chatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	msgs, err := a.Store.GetMessages(ctx, chatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var sb strings.Builder
	sb.WriteString("# " + meta.Title + "\n\n")
	sb.WriteString("Model: " + meta.Model + "\n\n")
	for _, msg := range msgs {
		switch msg.Role {
		case ollama.RoleUser:
			sb.WriteString("## You\n\n" + msg.Content + "\n\n")
		case ollama.RoleAssistant:
			sb.WriteString("## Assistant")
			if msg.SearchUsed {
				sb.WriteString(" (web search used)")
			}
			sb.WriteString("\n\n" + msg.Content + "\n\n")
		}
	}

	path := fmt.Sprintf("omnichat-%s.md", chatID[:8])
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Exported to %s\n", path)
	return 0
}

// resolveChatID expands a prefix to a full chat ID, erroring when the
// prefix is ambiguous or unknown.
func (a *App) resolveChatID(ctx context.Context, prefix string) (string, error) {
	chats, err := a.Store.ListChats(ctx)
	if err != nil {
		return "", err
	}

	var match string
	for _, meta := range chats {
		if meta.ChatID == prefix {
			return meta.ChatID, nil
		}
		if strings.HasPrefix(meta.ChatID, prefix) {
			if match != "" {
				return "", fmt.Errorf("chat ID prefix %q is ambiguous", prefix)
			}
			match = meta.ChatID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no chat with ID %q (see: omnichat chats)", prefix)
	}
	return match, nil
}

// pad right-pads to a display width, counting wide runes properly.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
