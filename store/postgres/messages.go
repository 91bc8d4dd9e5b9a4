package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ztrans-apps/crm-sub001/message"
)

// MessageRepository stores messages; metadata lives in a jsonb column
type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

const messageColumns = "id, tenant_id, conversation_id, session_id, recipient, content, direction, status, metadata, created_at, updated_at"

// Get returns message.ErrNotFound when no row matches
func (r *MessageRepository) Get(ctx context.Context, id string) (message.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id = $1"

	msg, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return message.Message{}, message.ErrNotFound
	}
	if err != nil {
		return message.Message{}, fmt.Errorf("selecting message: %w", err)
	}
	return msg, nil
}

func (r *MessageRepository) Create(ctx context.Context, msg message.Message) error {
	query := `
		INSERT INTO messages (id, tenant_id, conversation_id, session_id, recipient, content, direction, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		msg.ID, msg.TenantID, msg.ConversationID, msg.SessionID, msg.To, msg.Content,
		string(msg.Direction), msg.Status.String(), metadata, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// UpdateStatus sets status and metadata.error; an empty errMsg removes the error key
func (r *MessageRepository) UpdateStatus(ctx context.Context, id string, status message.Status, errMsg string) error {
	var (
		result sql.Result
		err    error
	)
	if errMsg != "" {
		query := `
			UPDATE messages
			SET status = $2, metadata = jsonb_set(metadata, '{error}', to_jsonb($3::text)), updated_at = now()
			WHERE id = $1
		`
		result, err = r.DB.ExecContext(ctx, query, id, status.String(), errMsg)
	} else {
		query := `
			UPDATE messages
			SET status = $2, metadata = metadata - 'error', updated_at = now()
			WHERE id = $1
		`
		result, err = r.DB.ExecContext(ctx, query, id, status.String())
	}
	if err != nil {
		return fmt.Errorf("updating message status: %w", err)
	}
	return expectOneRow(result)
}

func (r *MessageRepository) SetRetryCount(ctx context.Context, id string, retryCount int) error {
	query := `
		UPDATE messages
		SET metadata = jsonb_set(metadata, '{retryCount}', to_jsonb($2::int)), updated_at = now()
		WHERE id = $1
	`

	result, err := r.DB.ExecContext(ctx, query, id, retryCount)
	if err != nil {
		return fmt.Errorf("updating retry count: %w", err)
	}
	return expectOneRow(result)
}

// CountByStatus counts outgoing messages created at or after since
func (r *MessageRepository) CountByStatus(ctx context.Context, tenantID string, since time.Time) (map[message.Status]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM messages
		WHERE tenant_id = $1 AND direction = $2 AND created_at >= $3
		GROUP BY status
	`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, string(message.Outgoing), since)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[message.Status]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning message count: %w", err)
		}
		status, err := message.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("scanning message count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message counts: %w", err)
	}
	return counts, nil
}

// ListFailed joins the conversation; messages without one get an empty Conversation
func (r *MessageRepository) ListFailed(ctx context.Context, tenantID string, limit int) ([]message.FailedMessage, error) {
	query := `
		SELECT m.id, m.tenant_id, m.conversation_id, m.session_id, m.recipient, m.content, m.direction, m.status, m.metadata, m.created_at, m.updated_at,
			COALESCE(c.id, ''), COALESCE(c.contact_name, ''), COALESCE(c.contact_phone, '')
		FROM messages m
		LEFT JOIN conversations c ON c.id = m.conversation_id
		WHERE m.tenant_id = $1 AND m.status = $2
		ORDER BY m.updated_at DESC
		LIMIT $3
	`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, message.Failed.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("selecting failed messages: %w", err)
	}
	defer rows.Close()

	var failed []message.FailedMessage
	for rows.Next() {
		var (
			fm        message.FailedMessage
			direction string
			status    string
			metadata  []byte
		)
		if err := rows.Scan(&fm.ID, &fm.TenantID, &fm.ConversationID, &fm.SessionID, &fm.To, &fm.Content,
			&direction, &status, &metadata, &fm.CreatedAt, &fm.UpdatedAt,
			&fm.Conversation.ID, &fm.Conversation.ContactName, &fm.Conversation.ContactPhone); err != nil {
			return nil, fmt.Errorf("scanning failed message: %w", err)
		}
		if err := decodeMessage(&fm.Message, direction, status, metadata); err != nil {
			return nil, err
		}
		failed = append(failed, fm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failed messages: %w", err)
	}
	return failed, nil
}

func scanMessage(row *sql.Row) (message.Message, error) {
	var (
		msg       message.Message
		direction string
		status    string
		metadata  []byte
	)
	if err := row.Scan(&msg.ID, &msg.TenantID, &msg.ConversationID, &msg.SessionID, &msg.To, &msg.Content,
		&direction, &status, &metadata, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
		return message.Message{}, err
	}
	if err := decodeMessage(&msg, direction, status, metadata); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

func decodeMessage(msg *message.Message, direction, status string, metadata []byte) error {
	s, err := message.ParseStatus(status)
	if err != nil {
		return fmt.Errorf("decoding message %s: %w", msg.ID, err)
	}
	msg.Status = s
	msg.Direction = message.Direction(direction)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &msg.Metadata); err != nil {
			return fmt.Errorf("decoding metadata of message %s: %w", msg.ID, err)
		}
	}
	return nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return message.ErrNotFound
	}
	return nil
}
