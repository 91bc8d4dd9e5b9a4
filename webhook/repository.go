package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// SubscriptionReader provides read operations for webhook subscriptions
type SubscriptionReader interface {
	/* ListActiveByEvent returns active webhooks of the tenant whose events contain eventType
	 * Called on every routed event, results are never cached
	 */
	ListActiveByEvent(ctx context.Context, tenantID, eventType string) ([]Webhook, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Webhook, error)
}

// SubscriptionWriter provides write operations for webhook subscriptions
type SubscriptionWriter interface {
	UpsertWebhook(ctx context.Context, w Webhook) error
}

// LogWriter appends delivery logs
type LogWriter interface {
	InsertDeliveryLog(ctx context.Context, log DeliveryLog) error
}

// LogReader reads delivery logs
type LogReader interface {
	/* ListDeliveryLogs returns logs of the tenant created at or after since
	 * An empty webhookID selects every webhook of the tenant
	 */
	ListDeliveryLogs(ctx context.Context, tenantID, webhookID string, since time.Time) ([]DeliveryLog, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	SubscriptionReader
	SubscriptionWriter
	LogWriter
	LogReader
}
