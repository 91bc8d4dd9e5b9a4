package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ztrans-apps/crm-sub001/queue/redis"
	"github.com/ztrans-apps/crm-sub001/ratelimit"
)

// RedisCollector implements the Collector interface for the Redis-backed queues
type RedisCollector struct {
	queue   *redis.Queue
	limiter *ratelimit.Limiter
	queues  []string
	now     func() time.Time
}

// NewRedisCollector creates a collector reporting on the named queues; limiter may be nil
func NewRedisCollector(q *redis.Queue, limiter *ratelimit.Limiter, queues ...string) *RedisCollector {
	return &RedisCollector{
		queue:   q,
		limiter: limiter,
		queues:  queues,
		now:     time.Now,
	}
}

// Collect gathers all metrics
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queues, err := c.GetQueueStats(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue stats: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	windows, err := c.GetRateLimitWindows(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting rate limit windows: %w", err)
	}

	return Metrics{
		Queues:           queues,
		Workers:          workers,
		RateLimitWindows: windows,
		Timestamp:        c.now(),
	}, nil
}

// GetQueueStats returns stream length, delayed and dead counts of each queue
func (c *RedisCollector) GetQueueStats(ctx context.Context) (map[string]QueueStats, error) {
	stats := make(map[string]QueueStats, len(c.queues))

	for _, name := range c.queues {
		length, err := c.queue.Length(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("queue %s length: %w", name, err)
		}
		delayed, err := c.queue.DelayedCount(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("queue %s delayed: %w", name, err)
		}
		dead, err := c.queue.DeadCount(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("queue %s dead: %w", name, err)
		}

		stats[name] = QueueStats{Length: length, Delayed: delayed, Dead: dead}
	}

	return stats, nil
}

// GetActiveWorkers returns workers whose heartbeat has not expired
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error) {
	heartbeats, err := c.queue.GetAllActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	workers := make(map[string][]WorkerInfo, len(heartbeats))
	for queueName, list := range heartbeats {
		for _, hb := range list {
			workers[queueName] = append(workers[queueName], WorkerInfo{
				WorkerID:      hb.WorkerID,
				Queue:         hb.Queue,
				Status:        hb.Status,
				LastHeartbeat: hb.LastHeartbeat,
			})
		}
	}

	return workers, nil
}

// GetRateLimitWindows returns the number of windows held by the limiter
func (c *RedisCollector) GetRateLimitWindows(ctx context.Context) (int64, error) {
	if c.limiter == nil {
		return 0, nil
	}
	return int64(c.limiter.Len()), nil
}
