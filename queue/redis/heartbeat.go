package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	heartbeatPrefix = "worker:heartbeat"
	// HeartbeatTTL is how long a worker stays visible without a new heartbeat
	HeartbeatTTL = 60 * time.Second
)

// WorkerHeartbeat represents the heartbeat data for a delivery worker
type WorkerHeartbeat struct {
	WorkerID      string    `json:"worker_id"`
	Queue         string    `json:"queue"`
	Status        string    `json:"status"` // "idle", "processing"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// SetWorkerHeartbeat stores or updates a worker's heartbeat.
// Workers refresh it every 30 seconds; a key that outlives HeartbeatTTL means the worker is gone.
func (q *Queue) SetWorkerHeartbeat(ctx context.Context, workerID, queueName, status string) error {
	key := fmt.Sprintf("%s:%s:%s", heartbeatPrefix, queueName, workerID)

	heartbeat := WorkerHeartbeat{
		WorkerID:      workerID,
		Queue:         queueName,
		Status:        status,
		LastHeartbeat: q.now().UTC(),
	}

	data, err := json.Marshal(heartbeat)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	if err := q.client.Set(ctx, key, data, HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}

	return nil
}

// RemoveWorkerHeartbeat deletes a worker's heartbeat on graceful shutdown
func (q *Queue) RemoveWorkerHeartbeat(ctx context.Context, workerID, queueName string) error {
	key := fmt.Sprintf("%s:%s:%s", heartbeatPrefix, queueName, workerID)
	if err := q.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("removing heartbeat: %w", err)
	}
	return nil
}

// GetActiveWorkers retrieves all active workers for a given queue
func (q *Queue) GetActiveWorkers(ctx context.Context, queueName string) ([]WorkerHeartbeat, error) {
	byQueue, err := q.scanHeartbeats(ctx, fmt.Sprintf("%s:%s:*", heartbeatPrefix, queueName))
	if err != nil {
		return nil, err
	}
	return byQueue[queueName], nil
}

// GetAllActiveWorkers retrieves all active workers across all queues
func (q *Queue) GetAllActiveWorkers(ctx context.Context) (map[string][]WorkerHeartbeat, error) {
	return q.scanHeartbeats(ctx, heartbeatPrefix+":*")
}

func (q *Queue) scanHeartbeats(ctx context.Context, pattern string) (map[string][]WorkerHeartbeat, error) {
	workersByQueue := make(map[string][]WorkerHeartbeat)

	var cursor uint64
	for {
		keys, nextCursor, err := q.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning worker keys: %w", err)
		}

		for _, key := range keys {
			data, err := q.client.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				// Key expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting worker heartbeat: %w", err)
			}

			var heartbeat WorkerHeartbeat
			if err := json.Unmarshal([]byte(data), &heartbeat); err != nil {
				continue
			}

			workersByQueue[heartbeat.Queue] = append(workersByQueue[heartbeat.Queue], heartbeat)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return workersByQueue, nil
}
