package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kykmenu/yemekbot/internal/biz/repo"
)

// LogStore persists inbound messages and discovered groups using SQLite
type LogStore struct {
	db *sql.DB
}

// NewLogStore opens (and if needed creates) the activity log database
func NewLogStore(dbPath string) (*LogStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT NOT NULL,
			body TEXT NOT NULL,
			is_group INTEGER NOT NULL,
			group_id TEXT,
			group_name TEXT,
			is_command INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS groups (
			chat_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seen_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create groups table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &LogStore{db: db}, nil
}

// Close closes the database connection
func (s *LogStore) Close() error {
	return s.db.Close()
}

// RecordMessage appends an inbound message to the log
func (s *LogStore) RecordMessage(ctx context.Context, entry *repo.LogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (sender, body, is_group, group_id, group_name, is_command, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.From, entry.Body, boolToInt(entry.IsGroup), entry.GroupID, entry.GroupName,
		boolToInt(entry.IsCommand), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

// UpsertGroup records a group the bot has seen
func (s *LogStore) UpsertGroup(ctx context.Context, chatID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (chat_id, name, seen_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET name = excluded.name, seen_at = excluded.seen_at
	`, chatID, name, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}
	return nil
}

// RecentMessages returns the newest log entries, newest first
func (s *LogStore) RecentMessages(ctx context.Context, limit int) ([]repo.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender, body, is_group, group_id, group_name, is_command, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var entries []repo.LogEntry
	for rows.Next() {
		var e repo.LogEntry
		var isGroup, isCommand int
		var createdAt int64
		if err := rows.Scan(&e.From, &e.Body, &isGroup, &e.GroupID, &e.GroupName, &isCommand, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		e.IsGroup = isGroup != 0
		e.IsCommand = isCommand != 0
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
