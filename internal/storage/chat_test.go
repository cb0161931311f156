package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func TestCreateSession(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO chat_sessions").
		WithArgs(sqlmock.AnyArg(), "user-1", "Campaign questions").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	session, err := NewChatRepo(db).CreateSession(context.Background(), "user-1", "Campaign questions")

	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.True(t, session.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, user_id, title").
		WithArgs("missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := NewChatRepo(db).Session(context.Background(), "user-1", "missing")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendMessageTouchesSession(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(sqlmock.AnyArg(), "session-1", "user-1", RoleUser, "Show my campaigns for act_123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE chat_sessions SET updated_at").
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := NewChatRepo(db).AppendMessage(context.Background(), &ChatMessage{
		SessionID: "session-1",
		UserID:    "user-1",
		Role:      RoleUser,
		Content:   "Show my campaigns for act_123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := NewChatRepo(db).AppendMessage(context.Background(), &ChatMessage{
		SessionID: "session-1",
		UserID:    "user-1",
		Role:      RoleAssistant,
		Content:   "I found 2 campaign(s):",
	})

	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMessagesChronological(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "session_id", "user_id", "role", "content", "created_at"}).
		AddRow("m3", "session-1", "user-1", RoleAssistant, "third", base.Add(2*time.Minute)).
		AddRow("m2", "session-1", "user-1", RoleUser, "second", base.Add(time.Minute)).
		AddRow("m1", "session-1", "user-1", RoleUser, "first", base)

	mock.ExpectQuery("SELECT id, session_id, user_id, role, content").
		WithArgs("session-1", 20).
		WillReturnRows(rows)

	messages, err := NewChatRepo(db).RecentMessages(context.Background(), "session-1", 0)

	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)
}

func TestSessionsOrderedByActivity(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "is_active", "created_at", "updated_at"}).
		AddRow("s2", "user-1", "Budget review", true, now, now).
		AddRow("s1", "user-1", "", true, now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, user_id, title").
		WithArgs("user-1").
		WillReturnRows(rows)

	sessions, err := NewChatRepo(db).Sessions(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
}
