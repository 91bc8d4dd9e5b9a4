package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the delivery pipeline.
type Metrics struct {
	// Queues maps queue name to its backlog
	Queues map[string]QueueStats `json:"queues"`

	// Workers maps queue name to list of active workers
	Workers map[string][]WorkerInfo `json:"workers"`

	// RateLimitWindows is the number of tenant/session windows held by the rate limiter
	RateLimitWindows int64 `json:"rate_limit_windows"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// QueueStats is the backlog of a single queue.
type QueueStats struct {
	// Length is the number of entries in the stream
	Length int64 `json:"length"`

	// Delayed is the number of jobs waiting for their due time (first run or retry)
	Delayed int64 `json:"delayed"`

	// Dead is the number of jobs that used up their attempts
	Dead int64 `json:"dead"`
}

// WorkerInfo represents information about an active worker.
type WorkerInfo struct {
	// WorkerID is a unique identifier for the worker
	WorkerID string `json:"worker_id"`

	// Queue is the queue this worker is consuming
	Queue string `json:"queue"`

	// Status is the current status of the worker (e.g., "idle", "processing")
	Status string `json:"status"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the pipeline.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueStats returns the backlog per queue
	GetQueueStats(ctx context.Context) (map[string]QueueStats, error)

	// GetActiveWorkers returns information about active workers per queue
	GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error)

	// GetRateLimitWindows returns the number of rate-limit windows in memory
	GetRateLimitWindows(ctx context.Context) (int64, error)
}
