package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/queue"
	"golang.org/x/sync/errgroup"
)

/* Worker runs the consuming side of the pipeline
 * Each registered queue gets its own consume loop. While a loop is alive the
 * worker keeps a heartbeat per queue in the store so operators can see who is
 * consuming; the heartbeat is removed on a clean shutdown and otherwise expires.
 */

const (
	StatusIdle       = "idle"
	StatusProcessing = "processing"

	DefaultHeartbeatInterval = 30 * time.Second
	shutdownTimeout          = 5 * time.Second
)

// Consumer runs a consume loop on one queue until ctx is cancelled
type Consumer interface {
	Run(ctx context.Context, queueName string, handler queue.Handler) error
}

// HeartbeatStore records worker liveness
type HeartbeatStore interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, queueName, status string) error
	RemoveWorkerHeartbeat(ctx context.Context, workerID, queueName string) error
}

// Task is a background loop run alongside the consumers, e.g. Tracker.Run
type Task func(ctx context.Context)

type Worker struct {
	ID string

	consumer   Consumer
	heartbeats HeartbeatStore
	interval   time.Duration
	logger     zerolog.Logger

	mu       sync.Mutex
	handlers map[string]queue.Handler
	tasks    map[string]Task
	status   map[string]string
}

// Option configures a Worker
type Option func(*Worker)

// WithID overrides the generated worker id
func WithID(id string) Option {
	return func(w *Worker) {
		if id != "" {
			w.ID = id
		}
	}
}

// WithHeartbeatInterval sets how often heartbeats are refreshed
func WithHeartbeatInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a worker; heartbeats may be nil to disable liveness reporting
func New(consumer Consumer, heartbeats HeartbeatStore, opts ...Option) *Worker {
	w := &Worker{
		ID:         DefaultID(),
		consumer:   consumer,
		heartbeats: heartbeats,
		interval:   DefaultHeartbeatInterval,
		logger:     zerolog.Nop(),
		handlers:   make(map[string]queue.Handler),
		tasks:      make(map[string]Task),
		status:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle registers the handler for a queue; the last registration wins
func (w *Worker) Handle(queueName string, handler queue.Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[queueName] = handler
}

// Go registers a named background task
func (w *Worker) Go(name string, task Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks[name] = task
}

// Queues returns the registered queue names, sorted
func (w *Worker) Queues() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.handlers))
	for name := range w.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns the last reported status for a queue
func (w *Worker) Status(queueName string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status[queueName]
}

// Run blocks until ctx is cancelled or a consume loop fails
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	handlers := make(map[string]queue.Handler, len(w.handlers))
	for name, h := range w.handlers {
		handlers[name] = h
	}
	tasks := make(map[string]Task, len(w.tasks))
	for name, t := range w.tasks {
		tasks[name] = t
	}
	w.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("worker %s: no queues registered", w.ID)
	}

	g, ctx := errgroup.WithContext(ctx)

	for name, task := range tasks {
		name, task := name, task
		g.Go(func() error {
			w.logger.Debug().Str("task", name).Msg("background task started")
			task(ctx)
			return nil
		})
	}

	for name, h := range handlers {
		name, h := name, h
		w.setStatus(ctx, name, StatusIdle)

		g.Go(func() error {
			defer w.removeHeartbeat(name)
			if err := w.consumer.Run(ctx, name, w.track(name, h)); err != nil {
				return fmt.Errorf("consuming %s: %w", name, err)
			}
			return nil
		})

		g.Go(func() error {
			w.heartbeat(ctx, name)
			return nil
		})
	}

	w.logger.Info().Str("worker_id", w.ID).Strs("queues", w.Queues()).Msg("worker started")
	err := g.Wait()
	w.logger.Info().Str("worker_id", w.ID).Msg("worker stopped")
	return err
}

// track reports processing/idle around every job
func (w *Worker) track(queueName string, h queue.Handler) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, job queue.Job) error {
		w.setStatus(ctx, queueName, StatusProcessing)
		defer w.setStatus(context.WithoutCancel(ctx), queueName, StatusIdle)
		return h.Handle(ctx, job)
	})
}

func (w *Worker) heartbeat(ctx context.Context, queueName string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.setStatus(ctx, queueName, w.Status(queueName))
		}
	}
}

func (w *Worker) setStatus(ctx context.Context, queueName, status string) {
	w.mu.Lock()
	w.status[queueName] = status
	w.mu.Unlock()

	if w.heartbeats == nil {
		return
	}
	if err := w.heartbeats.SetWorkerHeartbeat(ctx, w.ID, queueName, status); err != nil && ctx.Err() == nil {
		w.logger.Warn().Err(err).Str("worker_id", w.ID).Str("queue", queueName).Msg("failed to send heartbeat")
	}
}

func (w *Worker) removeHeartbeat(queueName string) {
	if w.heartbeats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.heartbeats.RemoveWorkerHeartbeat(ctx, w.ID, queueName); err != nil {
		w.logger.Warn().Err(err).Str("worker_id", w.ID).Str("queue", queueName).Msg("failed to remove heartbeat")
	}
}

// DefaultID is the hostname plus a short random suffix
func DefaultID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.New().String()[:8]
}
