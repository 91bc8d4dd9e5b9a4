package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

/* Queue contract consumed by the delivery pipeline
 * The substrate owns retry scheduling: a handler returning an error
 * gets the job re-run after the backoff delay until Attempts is used up
 */

const (
	BackoffExponential = "exponential"
	BackoffFixed       = "fixed"
)

// ErrPoison marks a job that must not be retried (undecodable or unknown type)
var ErrPoison = errors.New("poison job")

// Backoff describes the delay between attempts
type Backoff struct {
	Type  string        `json:"type"`
	Delay time.Duration `json:"delay"`
}

// Options are per-job execution settings
type Options struct {
	Attempts int           `json:"attempts"`
	Backoff  Backoff       `json:"backoff"`
	Timeout  time.Duration `json:"timeout"`
	// Delay postpones the first attempt
	Delay time.Duration `json:"delay,omitempty"`
}

// Job is a unit of work as seen by a handler
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Options    Options         `json:"options"`
	Attempt    int             `json:"attempt"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Decode unmarshals the job payload, wrapping failures in ErrPoison
func (j Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("%w: decoding %s payload: %v", ErrPoison, j.Type, err)
	}
	return nil
}

// MaxAttempts returns the configured attempts, at least one
func (j Job) MaxAttempts() int {
	if j.Options.Attempts < 1 {
		return 1
	}
	return j.Options.Attempts
}

// Exhausted reports whether the current attempt is the last one
func (j Job) Exhausted() bool {
	return j.Attempt >= j.MaxAttempts()
}

// Enqueuer accepts named jobs
type Enqueuer interface {
	AddJob(ctx context.Context, queueName, jobType string, payload interface{}, opts Options) (string, error)
}

// Handler executes a job attempt
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, job Job) error

// Handle calls f(ctx, job)
func (f HandlerFunc) Handle(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Mux dispatches jobs to handlers by job type
type Mux struct {
	handlers map[string]Handler
}

// NewMux creates an empty Mux
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

// Register binds a job type to a handler
func (m *Mux) Register(jobType string, h Handler) {
	m.handlers[jobType] = h
}

// Handle dispatches to the registered handler; unknown types are poison
func (m *Mux) Handle(ctx context.Context, job Job) error {
	h, ok := m.handlers[job.Type]
	if !ok {
		return fmt.Errorf("%w: no handler for job type %q", ErrPoison, job.Type)
	}
	return h.Handle(ctx, job)
}

// Next returns the wait before the attempt that follows a failed attempt (1-based).
// Exponential backoff yields Delay*2^(attempt-1) with no jitter.
func (b Backoff) Next(attempt int) time.Duration {
	if b.Delay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if b.Type != BackoffExponential {
		return b.Delay
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.Delay
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	eb.MaxInterval = 24 * time.Hour
	eb.MaxElapsedTime = 0
	eb.Reset()

	next := eb.NextBackOff()
	for i := 1; i < attempt; i++ {
		next = eb.NextBackOff()
	}
	return next
}
