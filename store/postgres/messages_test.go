//go:build !integration

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrans-apps/crm-sub001/message"
)

var (
	createdAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt = createdAt.Add(time.Minute)
)

func newMessageRepo(t *testing.T) (*MessageRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMessageRepository(db), mock
}

func messageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "conversation_id", "session_id", "recipient", "content", "direction", "status", "metadata", "created_at", "updated_at"})
}

func TestMessageRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("existing message", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT " + messageColumns + " FROM messages WHERE id = $1")).
			WithArgs("msg-1").
			WillReturnRows(messageRows().AddRow("msg-1", "tenant-1", "conv-1", "session-1", "+5511999999999", "hello",
				"outgoing", "failed", []byte(`{"retryCount":2,"error":"timeout"}`), createdAt, updatedAt))

		msg, err := repo.Get(ctx, "msg-1")

		require.NoError(t, err)
		assert.Equal(t, message.Failed, msg.Status)
		assert.Equal(t, message.Outgoing, msg.Direction)
		assert.Equal(t, 2, msg.Metadata.RetryCount)
		assert.Equal(t, "timeout", msg.Metadata.Error)
		assert.Equal(t, "+5511999999999", msg.To)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing message", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectQuery("SELECT .* FROM messages WHERE id").WithArgs("nope").WillReturnRows(messageRows())

		_, err := repo.Get(ctx, "nope")

		assert.True(t, errors.Is(err, message.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown status in store", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectQuery("SELECT .* FROM messages WHERE id").WithArgs("msg-1").
			WillReturnRows(messageRows().AddRow("msg-1", "tenant-1", "", "", "+1", "x", "outgoing", "queued", []byte(`{}`), createdAt, updatedAt))

		_, err := repo.Get(ctx, "msg-1")

		require.Error(t, err)
		assert.False(t, errors.Is(err, message.ErrNotFound))
	})
}

func TestMessageRepository_Create(t *testing.T) {
	repo, mock := newMessageRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs("msg-1", "tenant-1", "conv-1", "session-1", "+1", "hello", "outgoing", "pending",
			[]byte(`{"retryCount":0}`), createdAt, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), message.Message{
		ID:             "msg-1",
		TenantID:       "tenant-1",
		ConversationID: "conv-1",
		SessionID:      "session-1",
		To:             "+1",
		Content:        "hello",
		Direction:      message.Outgoing,
		Status:         message.Pending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("failure stores the error", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("jsonb_set(metadata, '{error}', to_jsonb($3::text))")).
			WithArgs("msg-1", "failed", "provider down").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(ctx, "msg-1", message.Failed, "provider down"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success clears the error", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("metadata = metadata - 'error'")).
			WithArgs("msg-1", "delivered").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(ctx, "msg-1", message.Delivered, ""))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing message", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectExec("UPDATE messages").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, "nope", message.Sent, "")
		assert.True(t, errors.Is(err, message.ErrNotFound))
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := newMessageRepo(t)

		mock.ExpectExec("UPDATE messages").WillReturnError(errors.New("connection reset"))

		err := repo.UpdateStatus(ctx, "msg-1", message.Sent, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "updating message status")
	})
}

func TestMessageRepository_SetRetryCount(t *testing.T) {
	repo, mock := newMessageRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("jsonb_set(metadata, '{retryCount}', to_jsonb($2::int))")).
		WithArgs("msg-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRetryCount(context.Background(), "msg-1", 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_CountByStatus(t *testing.T) {
	repo, mock := newMessageRepo(t)
	since := createdAt.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WithArgs("tenant-1", "outgoing", since).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("sent", 5).
			AddRow("delivered", 3).
			AddRow("failed", 2))

	counts, err := repo.CountByStatus(context.Background(), "tenant-1", since)

	require.NoError(t, err)
	assert.Equal(t, map[message.Status]int{message.Sent: 5, message.Delivered: 3, message.Failed: 2}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListFailed(t *testing.T) {
	repo, mock := newMessageRepo(t)

	columns := []string{"id", "tenant_id", "conversation_id", "session_id", "recipient", "content", "direction", "status", "metadata", "created_at", "updated_at", "c_id", "contact_name", "contact_phone"}
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN conversations c ON c.id = m.conversation_id")).
		WithArgs("tenant-1", "failed", 50).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("msg-2", "tenant-1", "conv-1", "s", "+1", "b", "outgoing", "failed", []byte(`{"retryCount":3,"error":"Max retries reached"}`), createdAt, updatedAt, "conv-1", "Ana", "+1").
			AddRow("msg-1", "tenant-1", "", "s", "+2", "a", "outgoing", "failed", []byte(`{"retryCount":1}`), createdAt, createdAt, "", "", ""))

	failed, err := repo.ListFailed(context.Background(), "tenant-1", 50)

	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.True(t, failed[0].Finalized())
	assert.Equal(t, "Ana", failed[0].Conversation.ContactName)
	assert.Equal(t, message.Conversation{}, failed[1].Conversation)
	require.NoError(t, mock.ExpectationsWereMet())
}
