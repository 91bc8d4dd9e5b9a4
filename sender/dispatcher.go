package sender

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/queue"
	"github.com/ztrans-apps/crm-sub001/ratelimit"
)

const (
	// QueueName is the queue resend jobs are enqueued on
	QueueName = "messages"
	// JobTypeResend re-sends a failed message
	JobTypeResend = "message.resend"

	resendTimeout = 30 * time.Second
)

// ErrInvalidRequest is wrapped by SendRequest.Validate
var ErrInvalidRequest = errors.New("invalid send request")

// RateLimitedError is returned by Send when the tenant/session window is exhausted
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, try again in %d seconds", e.Seconds())
}

// Seconds rounds RetryAfter up to whole seconds
func (e *RateLimitedError) Seconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// UseCase is the send path as seen by the API
type UseCase interface {
	Send(ctx context.Context, req SendRequest) (message.Message, error)
}

// Tracker receives the outcome of provider calls
type Tracker interface {
	UpdateStatus(ctx context.Context, messageID string, status message.Status, errMsg string)
}

// SendRequest is an outgoing message to create and send
type SendRequest struct {
	TenantID       string `json:"tenant_id"`
	ConversationID string `json:"conversation_id"`
	SessionID      string `json:"session_id"`
	To             string `json:"to"`
	Content        string `json:"content"`
}

// Validate checks the required fields
func (r SendRequest) Validate() error {
	switch {
	case r.TenantID == "":
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidRequest)
	case r.SessionID == "":
		return fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	case r.To == "":
		return fmt.Errorf("%w: to is required", ErrInvalidRequest)
	case r.Content == "":
		return fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	return nil
}

// ResendJob is the queue payload of a resend
type ResendJob struct {
	MessageID string `json:"messageId"`
}

/* Dispatcher is the send path: rate limit, persist, call the provider, report to the tracker
 * It also implements message.Resender
 */
type Dispatcher struct {
	limiter  *ratelimit.Limiter
	repo     message.Repository
	provider Provider
	tracker  Tracker
	queue    queue.Enqueuer
	logger   zerolog.Logger
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a new dispatcher with dependency injection
func NewDispatcher(limiter *ratelimit.Limiter, repo message.Repository, provider Provider, tracker Tracker, q queue.Enqueuer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		limiter:  limiter,
		repo:     repo,
		provider: provider,
		tracker:  tracker,
		queue:    q,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send creates a pending message and hands it to the provider.
// A *RateLimitedError is returned, and nothing is stored, when the session is throttled.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (message.Message, error) {
	if err := req.Validate(); err != nil {
		return message.Message{}, fmt.Errorf("validating send request: %w", err)
	}

	if !d.limiter.Allow(req.TenantID, req.SessionID) {
		return message.Message{}, &RateLimitedError{RetryAfter: d.limiter.ResetIn(req.TenantID, req.SessionID)}
	}

	now := d.now().UTC()
	msg := message.Message{
		ID:             uuid.New().String(),
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		To:             req.To,
		Content:        req.Content,
		Direction:      message.Outgoing,
		Status:         message.Pending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := d.repo.Create(ctx, msg); err != nil {
		d.limiter.Release(req.TenantID, req.SessionID)
		return message.Message{}, fmt.Errorf("creating message: %w", err)
	}

	msg.Status, msg.Metadata.Error = d.deliver(ctx, msg)
	return msg, nil
}

// ScheduleResend enqueues a resend of msg after delay
func (d *Dispatcher) ScheduleResend(ctx context.Context, msg message.Message, delay time.Duration) error {
	_, err := d.queue.AddJob(ctx, QueueName, JobTypeResend, ResendJob{MessageID: msg.ID}, queue.Options{
		Attempts: 1,
		Timeout:  resendTimeout,
		Delay:    delay,
	})
	if err != nil {
		return fmt.Errorf("enqueuing resend: %w", err)
	}
	return nil
}

// HandleResend re-sends a failed message; it defers itself while the session is throttled
func (d *Dispatcher) HandleResend(ctx context.Context, job queue.Job) error {
	var rj ResendJob
	if err := job.Decode(&rj); err != nil {
		return err
	}

	msg, err := d.repo.Get(ctx, rj.MessageID)
	if errors.Is(err, message.ErrNotFound) {
		return fmt.Errorf("%w: %v", queue.ErrPoison, err)
	}
	if err != nil {
		return fmt.Errorf("loading message for resend: %w", err)
	}

	log := d.logger.With().Str("message_id", msg.ID).Str("tenant_id", msg.TenantID).Logger()

	// Pending means an earlier run of this job was cut short after marking the message
	if (msg.Status != message.Failed && msg.Status != message.Pending) || msg.Finalized() {
		log.Info().Str("status", msg.Status.String()).Msg("message no longer awaiting resend")
		return nil
	}

	if !d.limiter.Allow(msg.TenantID, msg.SessionID) {
		wait := d.limiter.ResetIn(msg.TenantID, msg.SessionID)
		log.Info().Dur("retry_in", wait).Msg("resend throttled, deferring")
		return d.ScheduleResend(ctx, msg, wait)
	}

	// The attempt's outcome must be a fresh transition, so a failure with the
	// same error is not taken for a repeated report of the previous one
	if msg.Status == message.Failed {
		if err := d.repo.UpdateStatus(ctx, msg.ID, message.Pending, ""); err != nil {
			d.limiter.Release(msg.TenantID, msg.SessionID)
			return fmt.Errorf("marking message for resend: %w", err)
		}
	}

	d.deliver(ctx, msg)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg message.Message) (message.Status, string) {
	result, err := d.provider.Send(ctx, msg.To, Payload{Text: msg.Content, Reference: msg.ID})

	var errMsg string
	switch {
	case err != nil:
		errMsg = err.Error()
	case !result.Success:
		errMsg = result.Error
		if errMsg == "" {
			errMsg = "provider rejected message"
		}
	}

	if errMsg != "" {
		d.logger.Warn().Str("message_id", msg.ID).Str("error", errMsg).Msg("provider send failed")
		d.tracker.UpdateStatus(ctx, msg.ID, message.Failed, errMsg)
		return message.Failed, errMsg
	}

	d.tracker.UpdateStatus(ctx, msg.ID, message.Sent, "")
	return message.Sent, ""
}
