package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/queue"
	"github.com/ztrans-apps/crm-sub001/webhook/payload"
	"github.com/ztrans-apps/crm-sub001/webhook/signature"
)

/* Router represents the fan-out and delivery logic
 * Uses pointer semantics as it's an API, not data
 */

const (
	// QueueName is the queue delivery jobs are enqueued on
	QueueName = "webhooks"
	// JobTypeDeliver is the job type of a single webhook delivery
	JobTypeDeliver = "webhook.deliver"
	// BackoffBase is the delay before the second attempt; later attempts double it
	BackoffBase = 2 * time.Second
	// UserAgent is sent with every delivery
	UserAgent = "CRM-Webhook/1.0"
	// StatsWindow is the lookback of GetStats
	StatsWindow = 24 * time.Hour

	HeaderEvent     = "X-Webhook-Event"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderAttempt   = "X-Webhook-Attempt"
	HeaderSignature = "X-Webhook-Signature"

	// maxReadBody bounds how much of a response is read before truncation
	maxReadBody = 64 << 10
)

// UseCase defines the webhook operations used by the rest of the system
type UseCase interface {
	RouteEvent(ctx context.Context, event Event) int
	Deliver(ctx context.Context, job DeliveryJob, attempt int) DeliveryResult
	GetStats(ctx context.Context, tenantID, webhookID string) (Stats, error)
}

// Observer receives delivery outcomes, e.g. for metrics
type Observer interface {
	ObserveDelivery(ctx context.Context, eventType string, success bool, duration time.Duration)
}

type Router struct {
	Repo     Repository
	Queue    queue.Enqueuer
	client   *http.Client
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Router
type Option func(*Router)

// WithHTTPClient replaces the client used for deliveries
func WithHTTPClient(c *http.Client) Option {
	return func(r *Router) {
		r.client = c
	}
}

// WithLogger sets the non-fatal error channel
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithObserver registers a delivery observer
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// NewRouter creates a new webhook router with dependency injection
func NewRouter(repo Repository, q queue.Enqueuer, opts ...Option) *Router {
	r := &Router{
		Repo:   repo,
		Queue:  q,
		client: &http.Client{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RouteEvent enqueues one delivery job per matching active webhook and returns how many were enqueued.
// Lookup and enqueue failures are logged, never returned.
func (r *Router) RouteEvent(ctx context.Context, event Event) int {
	log := r.logger.With().Str("tenant_id", event.TenantID).Str("event", event.Type).Logger()

	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}

	webhooks, err := r.Repo.ListActiveByEvent(ctx, event.TenantID, event.Type)
	if err != nil {
		log.Error().Err(err).Msg("listing webhooks for event")
		return 0
	}

	enqueued := 0
	for _, w := range webhooks {
		// The store filters already; this guards against stale or loose implementations
		if !w.Subscribes(event.Type) {
			continue
		}

		job := DeliveryJob{WebhookID: w.ID, Webhook: w, Event: event}
		opts := queue.Options{
			Attempts: w.Attempts(),
			Backoff:  queue.Backoff{Type: queue.BackoffExponential, Delay: BackoffBase},
			Timeout:  w.Timeout(),
		}

		jobID, err := r.Queue.AddJob(ctx, QueueName, JobTypeDeliver, job, opts)
		if err != nil {
			log.Error().Err(err).Str("webhook_id", w.ID).Msg("enqueuing webhook delivery")
			continue
		}
		log.Debug().Str("webhook_id", w.ID).Str("job_id", jobID).Msg("webhook delivery enqueued")
		enqueued++
	}

	if enqueued == 0 && len(webhooks) == 0 {
		log.Debug().Msg("no webhooks subscribed to event")
	}

	return enqueued
}

// Deliver performs one signed HTTP attempt and always records a delivery log
func (r *Router) Deliver(ctx context.Context, job DeliveryJob, attempt int) DeliveryResult {
	w := job.Webhook
	event := job.Event

	deliveryLog := DeliveryLog{
		ID:            uuid.New().String(),
		WebhookID:     job.WebhookID,
		TenantID:      w.TenantID,
		EventType:     event.Type,
		AttemptNumber: attempt,
	}

	start := r.now()
	result := r.post(ctx, job, attempt, &deliveryLog)
	result.Duration = r.now().Sub(start)

	deliveryLog.Success = result.Success
	deliveryLog.ErrorMessage = result.Error
	deliveryLog.DurationMS = result.Duration.Milliseconds()
	deliveryLog.CreatedAt = r.now().UTC()
	if result.StatusCode != 0 {
		status := result.StatusCode
		deliveryLog.ResponseStatus = &status
	}

	// The attempt context may already be past its deadline
	logCtx := context.WithoutCancel(ctx)
	if err := r.Repo.InsertDeliveryLog(logCtx, deliveryLog); err != nil {
		r.logger.Error().Err(err).
			Str("webhook_id", job.WebhookID).
			Str("event", event.Type).
			Int("attempt", attempt).
			Msg("writing delivery log")
	}

	if r.observer != nil {
		r.observer.ObserveDelivery(logCtx, event.Type, result.Success, result.Duration)
	}

	return result
}

func (r *Router) post(ctx context.Context, job DeliveryJob, attempt int, deliveryLog *DeliveryLog) DeliveryResult {
	w := job.Webhook

	p, err := payload.New(job.Event.Type, job.Event.Timestamp, job.Event.Data)
	if err != nil {
		deliveryLog.Payload = fallbackPayload(job.Event.Data)
		return DeliveryResult{Error: fmt.Sprintf("building payload: %v", err)}
	}
	body, err := p.Bytes()
	if err != nil {
		deliveryLog.Payload = fallbackPayload(job.Event.Data)
		return DeliveryResult{Error: fmt.Sprintf("encoding payload: %v", err)}
	}
	deliveryLog.Payload = body

	ctx, cancel := context.WithTimeout(ctx, w.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Error: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderEvent, p.Event)
	req.Header.Set(HeaderTimestamp, payload.FormatTimestamp(p.Timestamp))
	req.Header.Set(HeaderAttempt, strconv.Itoa(attempt))
	if w.Secret != "" {
		req.Header.Set(HeaderSignature, signature.Generate(body, w.Secret))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return DeliveryResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBody))
	if err != nil {
		r.logger.Warn().Err(err).Str("webhook_id", job.WebhookID).Msg("reading webhook response")
	}
	deliveryLog.ResponseBody = truncate(string(respBody), MaxResponseBody)

	result := DeliveryResult{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	if !result.Success {
		result.Error = fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode)
	}
	return result
}

// fallbackPayload is what the log keeps when no envelope could be built; the column is NOT NULL
func fallbackPayload(data interface{}) json.RawMessage {
	b, err := json.Marshal(data)
	if err != nil || string(b) == "null" {
		return json.RawMessage("{}")
	}
	return b
}

// HandleJob adapts Deliver to the queue; a failed attempt returns an error so the queue retries it
func (r *Router) HandleJob(ctx context.Context, job queue.Job) error {
	var dj DeliveryJob
	if err := job.Decode(&dj); err != nil {
		return err
	}

	result := r.Deliver(ctx, dj, job.Attempt)
	if !result.Success {
		return fmt.Errorf("delivering webhook %s (attempt %d): %s", dj.WebhookID, job.Attempt, result.Error)
	}
	return nil
}

// GetStats aggregates the last 24 hours of delivery logs; an empty webhookID covers the whole tenant
func (r *Router) GetStats(ctx context.Context, tenantID, webhookID string) (Stats, error) {
	since := r.now().Add(-StatsWindow)

	logs, err := r.Repo.ListDeliveryLogs(ctx, tenantID, webhookID, since)
	if err != nil {
		return Stats{}, fmt.Errorf("listing delivery logs: %w", err)
	}

	return aggregate(logs), nil
}

func aggregate(logs []DeliveryLog) Stats {
	var stats Stats
	var totalDuration int64

	for _, l := range logs {
		stats.Total++
		if l.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		totalDuration += l.DurationMS
	}

	if stats.Total == 0 {
		return stats
	}

	rate := float64(stats.Successful) / float64(stats.Total) * 100
	stats.SuccessRate = math.Round(rate*100) / 100
	stats.AvgDuration = totalDuration / int64(stats.Total)
	return stats
}

// truncate keeps at most n characters of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
