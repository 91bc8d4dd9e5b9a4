package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ztrans-apps/crm-sub001/queue"
	"github.com/ztrans-apps/crm-sub001/queue/redis"
	"github.com/ztrans-apps/crm-sub001/worker"
	"github.com/ztrans-apps/crm-sub001/worker/mocks"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blockUntilDone is a Consumer.Run stand-in that returns when ctx is cancelled
func blockUntilDone(ctx context.Context, _ string, _ queue.Handler) error {
	<-ctx.Done()
	return nil
}

func TestWorker_Run(t *testing.T) {
	t.Run("no queues registered", func(t *testing.T) {
		w := worker.New(mocks.NewConsumer(t), nil, worker.WithID("w-1"))

		err := w.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no queues registered")
	})

	t.Run("heartbeats are set and removed", func(t *testing.T) {
		consumer := mocks.NewConsumer(t)
		heartbeats := mocks.NewHeartbeatStore(t)

		consumer.On("Run", mock.Anything, "webhooks", mock.Anything).Return(blockUntilDone).Once()
		consumer.On("Run", mock.Anything, "messages", mock.Anything).Return(blockUntilDone).Once()

		heartbeats.On("SetWorkerHeartbeat", mock.Anything, "w-1", "webhooks", worker.StatusIdle).Return(nil)
		heartbeats.On("SetWorkerHeartbeat", mock.Anything, "w-1", "messages", worker.StatusIdle).Return(nil)
		heartbeats.On("RemoveWorkerHeartbeat", mock.Anything, "w-1", "webhooks").Return(nil).Once()
		heartbeats.On("RemoveWorkerHeartbeat", mock.Anything, "w-1", "messages").Return(nil).Once()

		w := worker.New(consumer, heartbeats, worker.WithID("w-1"), worker.WithHeartbeatInterval(10*time.Millisecond))
		w.Handle("webhooks", queue.NewMux())
		w.Handle("messages", queue.NewMux())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		require.NoError(t, w.Run(ctx))
		assert.Equal(t, []string{"messages", "webhooks"}, w.Queues())
		assert.Equal(t, worker.StatusIdle, w.Status("webhooks"))
	})

	t.Run("consumer failure stops the worker", func(t *testing.T) {
		consumer := mocks.NewConsumer(t)
		heartbeats := mocks.NewHeartbeatStore(t)

		consumer.On("Run", mock.Anything, "webhooks", mock.Anything).Return(errors.New("NOGROUP")).Once()
		heartbeats.On("SetWorkerHeartbeat", mock.Anything, "w-1", "webhooks", worker.StatusIdle).Return(nil)
		heartbeats.On("RemoveWorkerHeartbeat", mock.Anything, "w-1", "webhooks").Return(nil).Once()

		w := worker.New(consumer, heartbeats, worker.WithID("w-1"))
		w.Handle("webhooks", queue.NewMux())

		err := w.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "consuming webhooks")
	})

	t.Run("heartbeat errors are not fatal", func(t *testing.T) {
		consumer := mocks.NewConsumer(t)
		heartbeats := mocks.NewHeartbeatStore(t)

		consumer.On("Run", mock.Anything, "webhooks", mock.Anything).Return(blockUntilDone).Once()
		heartbeats.On("SetWorkerHeartbeat", mock.Anything, "w-1", "webhooks", mock.Anything).Return(errors.New("connection refused"))
		heartbeats.On("RemoveWorkerHeartbeat", mock.Anything, "w-1", "webhooks").Return(errors.New("connection refused")).Once()

		w := worker.New(consumer, heartbeats, worker.WithID("w-1"), worker.WithHeartbeatInterval(5*time.Millisecond))
		w.Handle("webhooks", queue.NewMux())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		assert.NoError(t, w.Run(ctx))
	})

	t.Run("background tasks run until shutdown", func(t *testing.T) {
		consumer := mocks.NewConsumer(t)
		consumer.On("Run", mock.Anything, "webhooks", mock.Anything).Return(blockUntilDone).Once()

		var stopped atomic.Bool
		w := worker.New(consumer, nil, worker.WithID("w-1"))
		w.Handle("webhooks", queue.NewMux())
		w.Go("tracker", func(ctx context.Context) {
			<-ctx.Done()
			stopped.Store(true)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		require.NoError(t, w.Run(ctx))
		assert.True(t, stopped.Load())
	})
}

func TestWorker_ProcessesJobs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := redis.NewQueue(client, redis.WithConfig(redis.Config{Block: -1}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type ping struct {
		N int `json:"n"`
	}
	handled := make(chan int, 3)
	var seenProcessing atomic.Bool

	w := worker.New(q, q, worker.WithID("w-1"), worker.WithHeartbeatInterval(time.Hour))

	mux := queue.NewMux()
	mux.Register("ping", queue.HandlerFunc(func(ctx context.Context, job queue.Job) error {
		var p ping
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		if w.Status("pings") == worker.StatusProcessing {
			seenProcessing.Store(true)
		}
		handled <- p.N
		return nil
	}))
	w.Handle("pings", mux)

	for i := 1; i <= 3; i++ {
		_, err := q.AddJob(ctx, "pings", "ping", ping{N: i}, queue.Options{Attempts: 1})
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var got []int
	for len(got) < 3 {
		select {
		case n := <-handled:
			got = append(got, n)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.ElementsMatch(t, []int{1, 2, 3}, got)
	assert.True(t, seenProcessing.Load())

	require.Eventually(t, func() bool {
		workers, err := q.GetActiveWorkers(ctx, "pings")
		return err == nil && len(workers) == 1 && workers[0].Status == worker.StatusIdle
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	workers, err := q.GetActiveWorkers(context.Background(), "pings")
	require.NoError(t, err)
	assert.Empty(t, workers)
}
