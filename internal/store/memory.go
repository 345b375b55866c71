// Package store persists conversation records and user preferences in
// SQLite. Conversation rows are written once per utterance after the
// pipeline concludes and never updated.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Conversation is one recorded utterance outcome.
type Conversation struct {
	ID         int64
	Timestamp  time.Time
	UserText   string
	PlanJSON   string
	ResultJSON string
	Success    bool
}

type Memory struct {
	DB *sql.DB
}

func NewMemory(dbPath string) (*Memory, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			utterance_id TEXT,
			timestamp TEXT NOT NULL,
			user_text TEXT NOT NULL,
			plan_json TEXT,
			result_json TEXT,
			success INTEGER DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_timestamp
			ON conversations(timestamp DESC);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &Memory{DB: db}, nil
}

// SaveConversation records one utterance outcome. planJSON and
// resultJSON may be empty when the pipeline stopped before those
// stages.
func (m *Memory) SaveConversation(utteranceID, userText, planJSON, resultJSON string, success bool) error {
	query := `INSERT INTO conversations (utterance_id, timestamp, user_text, plan_json, result_json, success)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := m.DB.Exec(query,
		utteranceID,
		time.Now().Format(time.RFC3339),
		userText,
		nullable(planJSON),
		nullable(resultJSON),
		boolToInt(success),
	)
	return err
}

// GetRecentConversations returns the last limit conversations in
// chronological order, for prompt context injection.
func (m *Memory) GetRecentConversations(limit int) ([]Conversation, error) {
	query := `SELECT user_text, COALESCE(plan_json, '') FROM conversations ORDER BY id DESC LIMIT ?`
	rows, err := m.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.UserText, &c.PlanJSON); err != nil {
			return nil, err
		}
		recent = append(recent, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (m *Memory) ConversationCount() (int, error) {
	var count int
	err := m.DB.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

// SearchConversations finds past conversations whose user text contains
// the query string, most recent first.
func (m *Memory) SearchConversations(query string, limit int) ([]Conversation, error) {
	rows, err := m.DB.Query(
		`SELECT id, timestamp, user_text, COALESCE(plan_json, ''), COALESCE(result_json, ''), success
		 FROM conversations WHERE user_text LIKE ? ORDER BY id DESC LIMIT ?`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Conversation
	for rows.Next() {
		var c Conversation
		var ts string
		var success int
		if err := rows.Scan(&c.ID, &ts, &c.UserText, &c.PlanJSON, &c.ResultJSON, &success); err != nil {
			return nil, err
		}
		c.Timestamp, _ = time.Parse(time.RFC3339, ts)
		c.Success = success != 0
		found = append(found, c)
	}
	return found, rows.Err()
}

// PruneConversations deletes old rows, keeping the most recent keepLast.
func (m *Memory) PruneConversations(keepLast int) error {
	_, err := m.DB.Exec(
		`DELETE FROM conversations WHERE id NOT IN
		 (SELECT id FROM conversations ORDER BY id DESC LIMIT ?)`,
		keepLast,
	)
	return err
}

func (m *Memory) SetPreference(key, value string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := m.DB.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, now,
	)
	return err
}

func (m *Memory) GetPreference(key, fallback string) string {
	var value string
	err := m.DB.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return fallback
	}
	return value
}

func (m *Memory) Close() error {
	return m.DB.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
