//go:build integration

package webhook

import (
	"fmt"
	"testing"
	"time"
)

// GenerateID generates a unique webhook ID for testing
func GenerateID(t *testing.T, index int) string {
	t.Helper()
	return fmt.Sprintf("test-webhook-%d-%d", index, time.Now().UnixNano())
}

// NewTestWebhook returns an active subscription to eventType pointing at url
func NewTestWebhook(t *testing.T, index int, tenantID, url, eventType string) Webhook {
	t.Helper()
	return Webhook{
		ID:         GenerateID(t, index),
		TenantID:   tenantID,
		Name:       fmt.Sprintf("integration %d", index),
		URL:        url,
		Events:     []string{eventType},
		IsActive:   true,
		RetryCount: 3,
		TimeoutMS:  2000,
	}
}
