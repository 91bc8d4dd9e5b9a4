package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ztrans-apps/crm-sub001/webhook/payload"
)

// ErrInvalidWebhook is returned by Validate
var ErrInvalidWebhook = errors.New("invalid webhook")

const (
	// DefaultTimeout applies when a subscription has no positive timeout_ms
	DefaultTimeout = 30 * time.Second

	// MaxResponseBody is the number of characters of the endpoint response kept in the delivery log
	MaxResponseBody = 1000
)

/* Webhook is a tenant-owned subscription
 * Uses value semantics as it represents data, not behavior
 */
type Webhook struct {
	ID         string    `json:"id" yaml:"id"`
	TenantID   string    `json:"tenant_id" yaml:"tenant_id"`
	Name       string    `json:"name" yaml:"name"`
	URL        string    `json:"url" yaml:"url"`
	Secret     string    `json:"secret,omitempty" yaml:"secret"`
	Events     []string  `json:"events" yaml:"events"`
	IsActive   bool      `json:"is_active" yaml:"is_active"`
	RetryCount int       `json:"retry_count" yaml:"retry_count"`
	TimeoutMS  int       `json:"timeout_ms" yaml:"timeout_ms"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// Subscribes reports whether the webhook is active and lists eventType exactly
func (w Webhook) Subscribes(eventType string) bool {
	if !w.IsActive {
		return false
	}
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Timeout returns the per-attempt HTTP timeout
func (w Webhook) Timeout() time.Duration {
	if w.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(w.TimeoutMS) * time.Millisecond
}

// Attempts returns the number of delivery attempts, at least one
func (w Webhook) Attempts() int {
	if w.RetryCount < 1 {
		return 1
	}
	return w.RetryCount
}

// Validate checks the subscription before it is stored
func (w Webhook) Validate() error {
	if w.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidWebhook)
	}

	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL: %q", ErrInvalidWebhook, w.URL)
	}

	if len(w.Events) == 0 {
		return fmt.Errorf("%w: at least one event is required", ErrInvalidWebhook)
	}
	for _, e := range w.Events {
		if err := payload.ValidateEventType(e); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
		}
	}

	if w.RetryCount < 1 {
		return fmt.Errorf("%w: retry_count must be at least 1", ErrInvalidWebhook)
	}

	if w.TimeoutMS < 0 {
		return fmt.Errorf("%w: timeout_ms cannot be negative", ErrInvalidWebhook)
	}

	return nil
}

// Event is an internal event to fan out. It is not persisted.
type Event struct {
	Type      string      `json:"type"`
	TenantID  string      `json:"tenant_id"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// DeliveryJob is the queue payload for one webhook delivery
type DeliveryJob struct {
	WebhookID string  `json:"webhookId"`
	Webhook   Webhook `json:"webhook"`
	Event     Event   `json:"event"`
}

// DeliveryLog is the append-only record of one delivery attempt
type DeliveryLog struct {
	ID             string          `json:"id"`
	WebhookID      string          `json:"webhook_id"`
	TenantID       string          `json:"tenant_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	ResponseStatus *int            `json:"response_status,omitempty"`
	ResponseBody   string          `json:"response_body,omitempty"`
	AttemptNumber  int             `json:"attempt_number"`
	Success        bool            `json:"success"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	DurationMS     int64           `json:"duration_ms"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DeliveryResult is the outcome of one attempt
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Error      string
	Duration   time.Duration
}

// Stats aggregates delivery logs over the last 24 hours
type Stats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	// SuccessRate is a percentage rounded to two decimals
	SuccessRate float64 `json:"successRate"`
	// AvgDuration is the mean attempt duration in milliseconds
	AvgDuration int64 `json:"avgDuration"`
}
