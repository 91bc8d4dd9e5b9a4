package message

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when a message does not exist
var ErrNotFound = errors.New("message not found")

const (
	// MaxRetries is the number of resends scheduled before a failure becomes final
	MaxRetries = 3

	// MaxRetriesReached is the error recorded when a failure is finalized
	MaxRetriesReached = "Max retries reached"

	// DefaultFailedLimit is the page size of GetFailedMessages
	DefaultFailedLimit = 50
)

// Direction of a message relative to the tenant
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// Metadata is the free-form part of a message the tracker relies on
type Metadata struct {
	RetryCount        int    `json:"retryCount"`
	Error             string `json:"error,omitempty"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
}

/* Message is the subset of a CRM message needed for delivery tracking
 * Uses value semantics as it represents data, not behavior
 */
type Message struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	ConversationID string    `json:"conversation_id"`
	SessionID      string    `json:"session_id"`
	To             string    `json:"to"`
	Content        string    `json:"content"`
	Direction      Direction `json:"direction"`
	Status         Status    `json:"status"`
	Metadata       Metadata  `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Finalized reports whether the message failed for good
func (m Message) Finalized() bool {
	return m.Status == Failed && m.Metadata.Error == MaxRetriesReached
}

// Conversation is the context joined onto failed messages for triage
type Conversation struct {
	ID           string `json:"id"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

// FailedMessage is a failed message with its conversation
type FailedMessage struct {
	Message
	Conversation Conversation `json:"conversation"`
}

// StatusUpdate is one entry of a batch or of an async submission
type StatusUpdate struct {
	MessageID string `json:"messageId"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
}

// TimelineEntry is one reconstructed step of a message's history
type TimelineEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// DeliveryStats counts outgoing messages per status; rates are percentages with two decimals
type DeliveryStats struct {
	Total        int    `json:"total"`
	Pending      int    `json:"pending"`
	Sent         int    `json:"sent"`
	Delivered    int    `json:"delivered"`
	Read         int    `json:"read"`
	Failed       int    `json:"failed"`
	DeliveryRate string `json:"deliveryRate"`
	ReadRate     string `json:"readRate"`
	FailureRate  string `json:"failureRate"`
}

// TimeRange selects the lookback of GetDeliveryStats
type TimeRange string

const (
	Hour  TimeRange = "hour"
	Day   TimeRange = "day"
	Week  TimeRange = "week"
	Month TimeRange = "month"
)

// ParseTimeRange validates a time range name; empty means Day
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return Day, nil
	case Hour, Day, Week, Month:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("invalid time range: %q", s)
	}
}

// Duration returns the lookback window
func (r TimeRange) Duration() time.Duration {
	switch r {
	case Hour:
		return time.Hour
	case Week:
		return 7 * 24 * time.Hour
	case Month:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
