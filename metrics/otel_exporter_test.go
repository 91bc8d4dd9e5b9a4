package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/metrics"
	"github.com/ztrans-apps/crm-sub001/queue"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelExporter(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	_, err := q.AddJob(ctx, "webhooks", "webhook.deliver", map[string]string{"a": "b"}, queue.Options{Attempts: 1})
	require.NoError(t, err)

	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(q, nil, "webhooks"))
	require.NoError(t, err)
	defer exporter.Shutdown(ctx)

	var _ webhook.Observer = exporter
	var _ message.Observer = exporter

	exporter.ObserveDelivery(ctx, "message.delivered", true, 120*time.Millisecond)
	exporter.ObserveDelivery(ctx, "message.delivered", false, 5*time.Second)
	exporter.ObserveTransition(ctx, message.Sent, message.Delivered)

	body := scrape(t, exporter.ServeHTTP())

	assert.Contains(t, body, "crm_queue_length")
	assert.Contains(t, body, `queue_name="webhooks"`)
	assert.Contains(t, body, "crm_queue_dead")
	assert.Contains(t, body, "crm_webhook_deliveries")
	assert.Contains(t, body, `outcome="success"`)
	assert.Contains(t, body, `outcome="failure"`)
	assert.Contains(t, body, "crm_webhook_delivery_duration")
	assert.Contains(t, body, `status_to="delivered"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestOTelExporter_Independent(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	first, err := metrics.NewOTelExporter(metrics.NewRedisCollector(q, nil))
	require.NoError(t, err)
	defer first.Shutdown(ctx)

	second, err := metrics.NewOTelExporter(metrics.NewRedisCollector(q, nil))
	require.NoError(t, err)
	defer second.Shutdown(ctx)

	first.ObserveTransition(ctx, message.Pending, message.Sent)

	assert.Contains(t, scrape(t, first.ServeHTTP()), "crm_message_transitions")
	assert.NotContains(t, scrape(t, second.ServeHTTP()), "crm_message_transitions")
}
