// Package storage persists chat history in Postgres and caches Graph API
// payloads in Redis. Both stores are optional at runtime; the server wires
// them only when configured.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message roles. System messages are reserved for canned notices.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrSessionNotFound is returned when a chat session id does not exist.
var ErrSessionNotFound = errors.New("chat session not found")

// ChatSession groups the messages of one conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one turn half: what the user said or what came back.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"message_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRepo implements chat persistence against PostgreSQL.
type ChatRepo struct{ db *sql.DB }

// NewChatRepo creates a Postgres-backed chat repository.
func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{db: db} }

// EnsureSchema creates the chat tables when they do not exist yet.
func (r *ChatRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS chat_messages (
			id         UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES chat_sessions(id),
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_session
			ON chat_messages (session_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure chat schema: %w", err)
	}
	return nil
}

// CreateSession starts a new conversation for a user.
func (r *ChatRepo) CreateSession(ctx context.Context, userID, title string) (*ChatSession, error) {
	s := &ChatSession{
		ID:       uuid.New().String(),
		UserID:   userID,
		Title:    title,
		IsActive: true,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING created_at, updated_at
	`, s.ID, s.UserID, s.Title).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Session loads one session, scoped to its owner.
func (r *ChatRepo) Session(ctx context.Context, userID, sessionID string) (*ChatSession, error) {
	s := &ChatSession{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID).Scan(&s.ID, &s.UserID, &s.Title, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// Sessions lists a user's conversations, most recently active first.
func (r *ChatRepo) Sessions(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []ChatSession
	for rows.Next() {
		var s ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AppendMessage stores one message and bumps the session's updated_at.
func (r *ChatRepo) AppendMessage(ctx context.Context, m *ChatMessage) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, m.ID, m.SessionID, m.UserID, m.Role, m.Content)
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1
	`, m.SessionID)
	if err != nil {
		return "", fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return m.ID, nil
}

// RecentMessages returns the last limit messages of a session in
// chronological order.
func (r *ChatRepo) RecentMessages(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query, oldest-first for the caller.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
