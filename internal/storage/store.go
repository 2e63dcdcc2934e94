// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrChatNotFound is returned when a chat ID has no metadata row.
	ErrChatNotFound = errors.New("chat not found")
)

// =============================================================================
// TYPES
// =============================================================================

// ChatMeta is one row of chat metadata, ordered by recency in listings.
type ChatMeta struct {
	ChatID       string
	Title        string
	Model        string
	FileName     string // attached file, "" when none
	MessageCount int
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// ChatMessage is one persisted message. Messages are append-only and
// immutable once stored.
type ChatMessage struct {
	ID         int64
	ChatID     string
	Role       string // "user", "assistant", "system"
	Content    string
	SearchUsed bool // provenance: a web search informed this message
	Timestamp  time.Time
}

// Stats aggregates database-wide counters.
type Stats struct {
	TotalChats    int64
	TotalMessages int64
	TotalChars    int64
	TotalSearches int64 // messages with search_used set
}

// =============================================================================
// STORE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS chat_history (
	chat_id       TEXT PRIMARY KEY,
	title         TEXT,
	model         TEXT,
	file_name     TEXT,
	message_count INTEGER DEFAULT 0,
	created_at    TIMESTAMP,
	last_updated  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id     TEXT,
	role        TEXT,
	content     TEXT,
	search_used BOOLEAN DEFAULT 0,
	timestamp   TIMESTAMP,
	FOREIGN KEY (chat_id) REFERENCES chat_history(chat_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS checkpoints (
	chat_id    TEXT PRIMARY KEY,
	state      BLOB,
	updated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON chat_messages(chat_id);
`

// Store handles chat persistence. Safe for concurrent use; SQLite
// serializes writers through the single-connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the chat database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CHAT METADATA
// =============================================================================

// SaveChatMeta upserts chat metadata. On first save the message counter
// starts at 1; subsequent saves increment it and bump last_updated. An
// empty fileName never clears a previously recorded attachment.
func (s *Store) SaveChatMeta(ctx context.Context, chatID, title, model, fileName string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (chat_id, title, model, file_name, message_count, created_at, last_updated)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			file_name = COALESCE(excluded.file_name, file_name),
			message_count = message_count + 1,
			last_updated = excluded.last_updated`,
		chatID, title, model, nullable(fileName), now, now)
	return err
}

// GetChat fetches metadata for one chat.
func (s *Store) GetChat(ctx context.Context, chatID string) (*ChatMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, title, model, file_name, message_count, created_at, last_updated
		FROM chat_history WHERE chat_id = ?`, chatID)

	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ListChats returns all chat metadata, most recently updated first.
func (s *Store) ListChats(ctx context.Context) ([]ChatMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, title, model, file_name, message_count, created_at, last_updated
		FROM chat_history ORDER BY last_updated DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ChatMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}
	return metas, rows.Err()
}

// RenameChat updates a chat's title and bumps its last_updated.
func (s *Store) RenameChat(ctx context.Context, chatID, newTitle string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_history SET title = ?, last_updated = ? WHERE chat_id = ?`,
		newTitle, time.Now().UTC(), chatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteChat removes one chat with its messages and checkpoint in a
// single transaction.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chat_history WHERE chat_id = ?`, chatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	return tx.Commit()
}

// WipeAll clears every chat, message, and session checkpoint.
func (s *Store) WipeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM chat_messages`,
		`DELETE FROM chat_history`,
		`DELETE FROM checkpoints`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// MESSAGES
// =============================================================================

// SaveMessage appends one message to a chat.
func (s *Store) SaveMessage(ctx context.Context, chatID, role, content string, searchUsed bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (chat_id, role, content, search_used, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		chatID, role, content, searchUsed, time.Now().UTC())
	return err
}

// GetMessages returns all messages for a chat in chronological order.
func (s *Store) GetMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, search_used, timestamp
		FROM chat_messages WHERE chat_id = ? ORDER BY id ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.SearchUsed, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// =============================================================================
// CHECKPOINTS
// =============================================================================

// SaveCheckpoint stores an opaque session snapshot for a chat.
func (s *Store) SaveCheckpoint(ctx context.Context, chatID string, state []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (chat_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		chatID, state, time.Now().UTC())
	return err
}

// LoadCheckpoint fetches a chat's session snapshot, or nil when none
// exists.
func (s *Store) LoadCheckpoint(ctx context.Context, chatID string) ([]byte, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints WHERE chat_id = ?`, chatID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// GetStats computes aggregate counters across the whole database.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_history`).Scan(&stats.TotalChats); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages`).Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(content)), 0) FROM chat_messages`).Scan(&stats.TotalChars); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE search_used = 1`).Scan(&stats.TotalSearches); err != nil {
		return nil, err
	}

	return &stats, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (*ChatMeta, error) {
	var (
		meta     ChatMeta
		fileName sql.NullString
	)
	if err := row.Scan(&meta.ChatID, &meta.Title, &meta.Model, &fileName,
		&meta.MessageCount, &meta.CreatedAt, &meta.LastUpdated); err != nil {
		return nil, err
	}
	meta.FileName = fileName.String
	return &meta, nil
}

// nullable maps "" to NULL so COALESCE upserts keep prior values.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
