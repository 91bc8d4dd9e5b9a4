package message

import (
	"context"
	"time"

	"github.com/ztrans-apps/crm-sub001/webhook"
)

// Reader provides read operations for messages
type Reader interface {
	// Get returns ErrNotFound when the message does not exist
	Get(ctx context.Context, id string) (Message, error)
	// CountByStatus counts outgoing messages of the tenant created at or after since
	CountByStatus(ctx context.Context, tenantID string, since time.Time) (map[Status]int, error)
	// ListFailed returns the most recently updated failed messages first
	ListFailed(ctx context.Context, tenantID string, limit int) ([]FailedMessage, error)
}

// Writer provides write operations for messages
type Writer interface {
	Create(ctx context.Context, msg Message) error
	// UpdateStatus sets the status; a non-empty errMsg is stored in metadata.error, an empty one clears it
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
	SetRetryCount(ctx context.Context, id string, retryCount int) error
}

type Repository interface {
	Reader
	Writer
}

// EventEmitter fans status events out to webhook subscribers
type EventEmitter interface {
	RouteEvent(ctx context.Context, event webhook.Event) int
}

// Resender owns re-sending a failed message after delay
type Resender interface {
	ScheduleResend(ctx context.Context, msg Message, delay time.Duration) error
}

// Observer receives applied status transitions, e.g. for metrics
type Observer interface {
	ObserveTransition(ctx context.Context, from, to Status)
}
