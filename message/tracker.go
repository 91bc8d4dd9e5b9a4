package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

const defaultBufferSize = 1024

// UseCase defines the delivery tracking operations
type UseCase interface {
	UpdateStatus(ctx context.Context, messageID string, status Status, errMsg string)
	BatchUpdateStatus(ctx context.Context, updates []StatusUpdate)
	Submit(update StatusUpdate) bool
	ScheduleRetry(ctx context.Context, messageID string) (time.Duration, bool)
	GetDeliveryStats(ctx context.Context, tenantID string, timeRange TimeRange) (DeliveryStats, error)
	GetFailedMessages(ctx context.Context, tenantID string, limit int) ([]FailedMessage, error)
	GetDeliveryTimeline(ctx context.Context, messageID string) ([]TimelineEntry, error)
}

/* Tracker owns the message delivery state machine
 * Uses pointer semantics as it's an API, not data
 */
type Tracker struct {
	Repo     Repository
	emitter  EventEmitter
	resender Resender
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time
	updates  chan StatusUpdate
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLogger sets the non-fatal error channel
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithResender sets the resend path used by ScheduleRetry
func WithResender(r Resender) Option {
	return func(t *Tracker) {
		t.resender = r
	}
}

// WithObserver registers a transition observer
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithBufferSize sets the capacity of the Submit buffer
func WithBufferSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.updates = make(chan StatusUpdate, n)
		}
	}
}

// NewTracker creates a new tracker with dependency injection
func NewTracker(repo Repository, emitter EventEmitter, opts ...Option) *Tracker {
	t := &Tracker{
		Repo:    repo,
		emitter: emitter,
		logger:  zerolog.Nop(),
		now:     time.Now,
		updates: make(chan StatusUpdate, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetResender wires the resend path after construction; call it before Run
func (t *Tracker) SetResender(r Resender) {
	t.resender = r
}

// RetryDelay returns the wait before resend number retryCount+1: 1s, 2s, 4s
func RetryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	return time.Duration(1<<uint(retryCount)) * time.Second
}

// UpdateStatus applies a status change and emits message.<status>.
// Missing messages, rejected transitions and store errors are logged, never returned.
func (t *Tracker) UpdateStatus(ctx context.Context, messageID string, status Status, errMsg string) {
	log := t.logger.With().Str("message_id", messageID).Str("status", status.String()).Logger()

	if err := status.Validate(); err != nil {
		log.Warn().Err(err).Msg("ignoring status update")
		return
	}

	msg, err := t.Repo.Get(ctx, messageID)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Msg("status update for unknown message")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("loading message")
		return
	}
	log = log.With().Str("tenant_id", msg.TenantID).Logger()

	if msg.Finalized() {
		log.Info().Msg("message failed permanently, ignoring status update")
		return
	}
	if !msg.Status.CanTransitionTo(status) {
		log.Info().Str("current", msg.Status.String()).Msg("out of order status update skipped")
		return
	}
	if msg.Status == Failed && status == Failed && msg.Metadata.Error == errMsg {
		// A repeated failure report must not schedule another resend
		log.Info().Msg("duplicate failure report skipped")
		return
	}

	if err := t.Repo.UpdateStatus(ctx, messageID, status, errMsg); err != nil {
		log.Error().Err(err).Msg("updating message status")
		return
	}

	if t.observer != nil {
		t.observer.ObserveTransition(ctx, msg.Status, status)
	}

	var eventErr interface{}
	if errMsg != "" {
		eventErr = errMsg
	}
	t.emitter.RouteEvent(ctx, webhook.Event{
		Type:      "message." + status.String(),
		TenantID:  msg.TenantID,
		SessionID: msg.SessionID,
		Data: map[string]interface{}{
			"messageId": messageID,
			"status":    status.String(),
			"error":     eventErr,
		},
		Timestamp: t.now().UTC(),
	})

	if status == Failed && errMsg != MaxRetriesReached {
		t.ScheduleRetry(ctx, messageID)
	}
}

// ScheduleRetry either schedules the next resend, returning its delay,
// or finalizes the message once MaxRetries resends were scheduled.
func (t *Tracker) ScheduleRetry(ctx context.Context, messageID string) (time.Duration, bool) {
	log := t.logger.With().Str("message_id", messageID).Logger()

	msg, err := t.Repo.Get(ctx, messageID)
	if err != nil {
		log.Error().Err(err).Msg("loading message for retry")
		return 0, false
	}

	retryCount := msg.Metadata.RetryCount
	if retryCount >= MaxRetries {
		log.Warn().Int("retry_count", retryCount).Msg("max retries reached")
		t.UpdateStatus(ctx, messageID, Failed, MaxRetriesReached)
		return 0, false
	}

	if err := t.Repo.SetRetryCount(ctx, messageID, retryCount+1); err != nil {
		log.Error().Err(err).Msg("incrementing retry count")
		return 0, false
	}
	msg.Metadata.RetryCount = retryCount + 1

	delay := RetryDelay(retryCount)
	log = log.With().Int("retry_count", retryCount+1).Dur("delay", delay).Logger()

	if t.resender == nil {
		log.Warn().Msg("no resend path configured")
		return delay, true
	}
	if err := t.resender.ScheduleResend(ctx, msg, delay); err != nil {
		log.Error().Err(err).Msg("scheduling resend")
		return delay, true
	}

	log.Info().Msg("resend scheduled")
	return delay, true
}

// BatchUpdateStatus applies updates in order
func (t *Tracker) BatchUpdateStatus(ctx context.Context, updates []StatusUpdate) {
	for _, u := range updates {
		t.UpdateStatus(ctx, u.MessageID, u.Status, u.Error)
	}
}

// Submit queues an update for Run without blocking; it reports false when the buffer is full
func (t *Tracker) Submit(update StatusUpdate) bool {
	select {
	case t.updates <- update:
		return true
	default:
		t.logger.Warn().
			Str("message_id", update.MessageID).
			Str("status", update.Status.String()).
			Msg("status update buffer full, dropping update")
		return false
	}
}

// Run applies submitted updates until ctx is cancelled
func (t *Tracker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-t.updates:
			t.UpdateStatus(ctx, u.MessageID, u.Status, u.Error)
		}
	}
}

// Backlog returns the number of submitted updates not yet applied
func (t *Tracker) Backlog() int {
	return len(t.updates)
}

// GetDeliveryStats counts outgoing messages per status over the time range
func (t *Tracker) GetDeliveryStats(ctx context.Context, tenantID string, timeRange TimeRange) (DeliveryStats, error) {
	since := t.now().Add(-timeRange.Duration())

	counts, err := t.Repo.CountByStatus(ctx, tenantID, since)
	if err != nil {
		return DeliveryStats{}, fmt.Errorf("counting messages by status: %w", err)
	}

	stats := DeliveryStats{
		Pending:   counts[Pending],
		Sent:      counts[Sent],
		Delivered: counts[Delivered],
		Read:      counts[Read],
		Failed:    counts[Failed],
	}
	stats.Total = stats.Pending + stats.Sent + stats.Delivered + stats.Read + stats.Failed

	stats.DeliveryRate = percentage(stats.Delivered+stats.Read, stats.Total)
	stats.ReadRate = percentage(stats.Read, stats.Total)
	stats.FailureRate = percentage(stats.Failed, stats.Total)

	return stats, nil
}

// GetFailedMessages returns recent failures with their conversation; limit defaults to 50
func (t *Tracker) GetFailedMessages(ctx context.Context, tenantID string, limit int) ([]FailedMessage, error) {
	if limit <= 0 {
		limit = DefaultFailedLimit
	}

	failed, err := t.Repo.ListFailed(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing failed messages: %w", err)
	}
	return failed, nil
}

// GetDeliveryTimeline reconstructs a best-effort history from created_at and the current status
func (t *Tracker) GetDeliveryTimeline(ctx context.Context, messageID string) ([]TimelineEntry, error) {
	msg, err := t.Repo.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}

	timeline := []TimelineEntry{{Status: Pending, Timestamp: msg.CreatedAt}}
	if msg.Status != Pending {
		timeline = append(timeline, TimelineEntry{
			Status:    msg.Status,
			Timestamp: msg.UpdatedAt,
			Error:     msg.Metadata.Error,
		})
	}
	return timeline, nil
}

func percentage(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}
