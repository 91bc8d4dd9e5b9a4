package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

// WebhookRepository stores subscriptions and their delivery logs
type WebhookRepository struct {
	DB *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{DB: db}
}

const webhookColumns = "id, tenant_id, name, url, secret, events, is_active, retry_count, timeout_ms, created_at, updated_at"

// ListActiveByEvent matches the event type exactly against the events array
func (r *WebhookRepository) ListActiveByEvent(ctx context.Context, tenantID, eventType string) ([]webhook.Webhook, error) {
	query := "SELECT " + webhookColumns + " FROM webhooks WHERE tenant_id = $1 AND is_active AND $2 = ANY(events) ORDER BY created_at"

	rows, err := r.DB.QueryContext(ctx, query, tenantID, eventType)
	if err != nil {
		return nil, fmt.Errorf("selecting webhooks by event: %w", err)
	}
	return scanWebhooks(rows)
}

// ListByTenant returns active and inactive webhooks of the tenant
func (r *WebhookRepository) ListByTenant(ctx context.Context, tenantID string) ([]webhook.Webhook, error) {
	query := "SELECT " + webhookColumns + " FROM webhooks WHERE tenant_id = $1 ORDER BY created_at"

	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("selecting webhooks: %w", err)
	}
	return scanWebhooks(rows)
}

// UpsertWebhook inserts the webhook or replaces the one with the same id
func (r *WebhookRepository) UpsertWebhook(ctx context.Context, w webhook.Webhook) error {
	query := `
		INSERT INTO webhooks (id, tenant_id, name, url, secret, events, is_active, retry_count, timeout_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			secret = EXCLUDED.secret,
			events = EXCLUDED.events,
			is_active = EXCLUDED.is_active,
			retry_count = EXCLUDED.retry_count,
			timeout_ms = EXCLUDED.timeout_ms,
			updated_at = EXCLUDED.updated_at
	`

	now := w.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, query,
		w.ID, w.TenantID, w.Name, w.URL, nullString(w.Secret), pq.Array(w.Events),
		w.IsActive, w.RetryCount, w.TimeoutMS, now,
	)
	if err != nil {
		return fmt.Errorf("upserting webhook: %w", err)
	}
	return nil
}

// InsertDeliveryLog appends one attempt row
func (r *WebhookRepository) InsertDeliveryLog(ctx context.Context, log webhook.DeliveryLog) error {
	query := `
		INSERT INTO webhook_delivery_logs (id, webhook_id, tenant_id, event_type, payload, response_status, response_body, attempt_number, success, error_message, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var status sql.NullInt64
	if log.ResponseStatus != nil {
		status = sql.NullInt64{Int64: int64(*log.ResponseStatus), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query,
		log.ID, log.WebhookID, log.TenantID, log.EventType, []byte(log.Payload), status,
		nullString(log.ResponseBody), log.AttemptNumber, log.Success, nullString(log.ErrorMessage),
		log.DurationMS, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery log: %w", err)
	}
	return nil
}

// ListDeliveryLogs returns logs newest first
func (r *WebhookRepository) ListDeliveryLogs(ctx context.Context, tenantID, webhookID string, since time.Time) ([]webhook.DeliveryLog, error) {
	query := `
		SELECT id, webhook_id, tenant_id, event_type, payload, response_status, response_body, attempt_number, success, error_message, duration_ms, created_at
		FROM webhook_delivery_logs
		WHERE tenant_id = $1 AND ($2::text = '' OR webhook_id = $2) AND created_at >= $3
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, webhookID, since)
	if err != nil {
		return nil, fmt.Errorf("selecting delivery logs: %w", err)
	}
	defer rows.Close()

	var logs []webhook.DeliveryLog
	for rows.Next() {
		var (
			l            webhook.DeliveryLog
			payload      []byte
			status       sql.NullInt64
			body, errMsg sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.WebhookID, &l.TenantID, &l.EventType, &payload, &status, &body,
			&l.AttemptNumber, &l.Success, &errMsg, &l.DurationMS, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery log: %w", err)
		}
		l.Payload = payload
		if status.Valid {
			code := int(status.Int64)
			l.ResponseStatus = &code
		}
		l.ResponseBody = body.String
		l.ErrorMessage = errMsg.String
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery logs: %w", err)
	}
	return logs, nil
}

func scanWebhooks(rows *sql.Rows) ([]webhook.Webhook, error) {
	defer rows.Close()

	var webhooks []webhook.Webhook
	for rows.Next() {
		var (
			w      webhook.Webhook
			secret sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Name, &w.URL, &secret, pq.Array(&w.Events),
			&w.IsActive, &w.RetryCount, &w.TimeoutMS, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		w.Secret = secret.String
		webhooks = append(webhooks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhooks: %w", err)
	}
	return webhooks, nil
}
