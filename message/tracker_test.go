package message_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/message/mocks"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testMessage(status message.Status, retryCount int) message.Message {
	return message.Message{
		ID:             "msg-1",
		TenantID:       "tenant-1",
		ConversationID: "conv-1",
		SessionID:      "session-1",
		To:             "+5511999999999",
		Content:        "hello",
		Direction:      message.Outgoing,
		Status:         status,
		Metadata:       message.Metadata{RetryCount: retryCount},
		CreatedAt:      fixedNow.Add(-time.Hour),
		UpdatedAt:      fixedNow.Add(-time.Minute),
	}
}

func newTracker(t *testing.T, opts ...message.Option) (*message.Tracker, *mocks.Repository, *mocks.EventEmitter, *mocks.Resender) {
	t.Helper()
	repo := mocks.NewRepository(t)
	emitter := mocks.NewEventEmitter(t)
	resender := mocks.NewResender(t)

	opts = append([]message.Option{
		message.WithResender(resender),
		message.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return message.NewTracker(repo, emitter, opts...), repo, emitter, resender
}

func matchEvent(eventType string, check func(data map[string]interface{}) bool) interface{} {
	return mock.MatchedBy(func(e webhook.Event) bool {
		data, ok := e.Data.(map[string]interface{})
		return ok && e.Type == eventType && e.TenantID == "tenant-1" && e.SessionID == "session-1" && check(data)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("forward transition updates and emits", func(t *testing.T) {
		tracker, repo, emitter, _ := newTracker(t)

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Sent, 0), nil)
		repo.On("UpdateStatus", ctx, "msg-1", message.Delivered, "").Return(nil)
		emitter.On("RouteEvent", ctx, matchEvent("message.delivered", func(data map[string]interface{}) bool {
			return data["messageId"] == "msg-1" && data["status"] == "delivered" && data["error"] == nil
		})).Return(1)

		tracker.UpdateStatus(ctx, "msg-1", message.Delivered, "")
	})

	t.Run("missing message is logged and skipped", func(t *testing.T) {
		var buf bytes.Buffer
		tracker, repo, _, _ := newTracker(t, message.WithLogger(zerolog.New(&buf)))

		repo.On("Get", ctx, "msg-404").Return(message.Message{}, message.ErrNotFound)

		tracker.UpdateStatus(ctx, "msg-404", message.Delivered, "")

		assert.Contains(t, buf.String(), "status update for unknown message")
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store error is logged, not returned", func(t *testing.T) {
		var buf bytes.Buffer
		tracker, repo, _, _ := newTracker(t, message.WithLogger(zerolog.New(&buf)))

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Pending, 0), nil)
		repo.On("UpdateStatus", ctx, "msg-1", message.Sent, "").Return(errors.New("deadlock detected"))

		tracker.UpdateStatus(ctx, "msg-1", message.Sent, "")

		assert.Contains(t, buf.String(), "updating message status")
		assert.Contains(t, buf.String(), "deadlock detected")
	})

	t.Run("out of order update is skipped", func(t *testing.T) {
		var buf bytes.Buffer
		tracker, repo, _, _ := newTracker(t, message.WithLogger(zerolog.New(&buf)))

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Read, 0), nil)

		tracker.UpdateStatus(ctx, "msg-1", message.Delivered, "")

		assert.Contains(t, buf.String(), "out of order status update skipped")
	})

	t.Run("invalid status is ignored", func(t *testing.T) {
		tracker, _, _, _ := newTracker(t)

		tracker.UpdateStatus(ctx, "msg-1", message.Status(42), "")
	})

	t.Run("failure emits and schedules the first retry", func(t *testing.T) {
		tracker, repo, emitter, resender := newTracker(t)

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Sent, 0), nil)
		repo.On("UpdateStatus", ctx, "msg-1", message.Failed, "provider timeout").Return(nil)
		emitter.On("RouteEvent", ctx, matchEvent("message.failed", func(data map[string]interface{}) bool {
			return data["error"] == "provider timeout"
		})).Return(0)
		repo.On("SetRetryCount", ctx, "msg-1", 1).Return(nil)
		resender.On("ScheduleResend", ctx, mock.MatchedBy(func(m message.Message) bool {
			return m.ID == "msg-1" && m.Metadata.RetryCount == 1
		}), time.Second).Return(nil)

		tracker.UpdateStatus(ctx, "msg-1", message.Failed, "provider timeout")
	})

	t.Run("repeated failure report schedules a single resend", func(t *testing.T) {
		tracker, repo, emitter, resender := newTracker(t)

		failed := func(retryCount int) message.Message {
			msg := testMessage(message.Failed, retryCount)
			msg.Metadata.Error = "undeliverable"
			return msg
		}
		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Sent, 0), nil).Once()
		repo.On("Get", ctx, "msg-1").Return(failed(0), nil).Once()
		repo.On("Get", ctx, "msg-1").Return(failed(1), nil).Once()
		repo.On("UpdateStatus", ctx, "msg-1", message.Failed, "undeliverable").Return(nil).Once()
		emitter.On("RouteEvent", ctx, matchEvent("message.failed", func(data map[string]interface{}) bool {
			return data["error"] == "undeliverable"
		})).Return(0).Once()
		repo.On("SetRetryCount", ctx, "msg-1", 1).Return(nil).Once()
		resender.On("ScheduleResend", ctx, mock.Anything, time.Second).Return(nil).Once()

		tracker.UpdateStatus(ctx, "msg-1", message.Failed, "undeliverable")
		tracker.UpdateStatus(ctx, "msg-1", message.Failed, "undeliverable")

		resender.AssertNumberOfCalls(t, "ScheduleResend", 1)
		repo.AssertNumberOfCalls(t, "SetRetryCount", 1)
	})

	t.Run("finalized message ignores further updates", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		msg := testMessage(message.Failed, 3)
		msg.Metadata.Error = message.MaxRetriesReached
		repo.On("Get", ctx, "msg-1").Return(msg, nil)

		tracker.UpdateStatus(ctx, "msg-1", message.Sent, "")
		tracker.UpdateStatus(ctx, "msg-1", message.Failed, "late callback")
	})

	t.Run("resend path may leave failed", func(t *testing.T) {
		tracker, repo, emitter, _ := newTracker(t)

		msg := testMessage(message.Failed, 1)
		msg.Metadata.Error = "provider timeout"
		repo.On("Get", ctx, "msg-1").Return(msg, nil)
		repo.On("UpdateStatus", ctx, "msg-1", message.Sent, "").Return(nil)
		emitter.On("RouteEvent", ctx, matchEvent("message.sent", func(map[string]interface{}) bool { return true })).Return(0)

		tracker.UpdateStatus(ctx, "msg-1", message.Sent, "")
	})
}

func TestScheduleRetry(t *testing.T) {
	ctx := context.Background()

	delays := map[int]time.Duration{0: time.Second, 1: 2 * time.Second, 2: 4 * time.Second}
	for retryCount, want := range delays {
		retryCount, want := retryCount, want
		t.Run("delay at retry count "+want.String(), func(t *testing.T) {
			tracker, repo, _, resender := newTracker(t)

			repo.On("Get", ctx, "msg-1").Return(testMessage(message.Failed, retryCount), nil)
			repo.On("SetRetryCount", ctx, "msg-1", retryCount+1).Return(nil)
			resender.On("ScheduleResend", ctx, mock.Anything, want).Return(nil)

			delay, scheduled := tracker.ScheduleRetry(ctx, "msg-1")

			assert.True(t, scheduled)
			assert.Equal(t, want, delay)
		})
	}

	t.Run("finalizes at max retries without a delay", func(t *testing.T) {
		tracker, repo, emitter, resender := newTracker(t)

		msg := testMessage(message.Failed, message.MaxRetries)
		msg.Metadata.Error = "provider timeout"
		repo.On("Get", ctx, "msg-1").Return(msg, nil)
		repo.On("UpdateStatus", ctx, "msg-1", message.Failed, message.MaxRetriesReached).Return(nil).Once()
		emitter.On("RouteEvent", ctx, matchEvent("message.failed", func(data map[string]interface{}) bool {
			return data["error"] == message.MaxRetriesReached
		})).Return(0).Once()

		delay, scheduled := tracker.ScheduleRetry(ctx, "msg-1")

		assert.False(t, scheduled)
		assert.Zero(t, delay)
		repo.AssertNotCalled(t, "SetRetryCount", mock.Anything, mock.Anything, mock.Anything)
		resender.AssertNotCalled(t, "ScheduleResend", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retry count store failure does not schedule", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Failed, 0), nil)
		repo.On("SetRetryCount", ctx, "msg-1", 1).Return(errors.New("read only"))

		_, scheduled := tracker.ScheduleRetry(ctx, "msg-1")

		assert.False(t, scheduled)
	})

	t.Run("resend failure is logged", func(t *testing.T) {
		var buf bytes.Buffer
		tracker, repo, _, resender := newTracker(t, message.WithLogger(zerolog.New(&buf)))

		repo.On("Get", ctx, "msg-1").Return(testMessage(message.Failed, 0), nil)
		repo.On("SetRetryCount", ctx, "msg-1", 1).Return(nil)
		resender.On("ScheduleResend", ctx, mock.Anything, time.Second).Return(errors.New("queue down"))

		delay, scheduled := tracker.ScheduleRetry(ctx, "msg-1")

		assert.True(t, scheduled)
		assert.Equal(t, time.Second, delay)
		assert.Contains(t, buf.String(), "scheduling resend")
	})

	t.Run("retry delays", func(t *testing.T) {
		assert.Equal(t, time.Second, message.RetryDelay(0))
		assert.Equal(t, 2*time.Second, message.RetryDelay(1))
		assert.Equal(t, 4*time.Second, message.RetryDelay(2))
	})
}

func TestBatchUpdateStatus(t *testing.T) {
	ctx := context.Background()
	tracker, repo, emitter, _ := newTracker(t)

	var order []string
	for _, id := range []string{"msg-a", "msg-b", "msg-c"} {
		msg := testMessage(message.Sent, 0)
		msg.ID = id
		repo.On("Get", ctx, id).Return(msg, nil)
		repo.On("UpdateStatus", ctx, id, message.Delivered, "").
			Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
			Return(nil)
	}
	emitter.On("RouteEvent", ctx, mock.Anything).Return(0)

	tracker.BatchUpdateStatus(ctx, []message.StatusUpdate{
		{MessageID: "msg-a", Status: message.Delivered},
		{MessageID: "msg-b", Status: message.Delivered},
		{MessageID: "msg-c", Status: message.Delivered},
	})

	assert.Equal(t, []string{"msg-a", "msg-b", "msg-c"}, order)
}

func TestSubmitAndRun(t *testing.T) {
	t.Run("full buffer drops the update", func(t *testing.T) {
		var buf bytes.Buffer
		tracker, _, _, _ := newTracker(t, message.WithBufferSize(1), message.WithLogger(zerolog.New(&buf)))

		assert.True(t, tracker.Submit(message.StatusUpdate{MessageID: "msg-1", Status: message.Sent}))
		assert.False(t, tracker.Submit(message.StatusUpdate{MessageID: "msg-2", Status: message.Sent}))
		assert.Equal(t, 1, tracker.Backlog())
		assert.Contains(t, buf.String(), "status update buffer full")
	})

	t.Run("run applies submitted updates", func(t *testing.T) {
		tracker, repo, emitter, _ := newTracker(t)

		var mu sync.Mutex
		applied := 0
		repo.On("Get", mock.Anything, "msg-1").Return(testMessage(message.Sent, 0), nil)
		repo.On("UpdateStatus", mock.Anything, "msg-1", message.Read, "").
			Run(func(mock.Arguments) {
				mu.Lock()
				applied++
				mu.Unlock()
			}).
			Return(nil)
		emitter.On("RouteEvent", mock.Anything, mock.Anything).Return(0)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- tracker.Run(ctx) }()

		require.True(t, tracker.Submit(message.StatusUpdate{MessageID: "msg-1", Status: message.Read}))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return applied == 1
		}, time.Second, 10*time.Millisecond)

		cancel()
		assert.NoError(t, <-done)
	})
}

func TestGetDeliveryStats(t *testing.T) {
	ctx := context.Background()

	t.Run("zero messages yields zero rates", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("CountByStatus", ctx, "tenant-1", fixedNow.Add(-24*time.Hour)).Return(map[message.Status]int{}, nil)

		stats, err := tracker.GetDeliveryStats(ctx, "tenant-1", message.Day)

		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.Equal(t, "0%", stats.DeliveryRate)
		assert.Equal(t, "0%", stats.ReadRate)
		assert.Equal(t, "0%", stats.FailureRate)
	})

	t.Run("rates use two decimals", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("CountByStatus", ctx, "tenant-1", fixedNow.Add(-time.Hour)).Return(map[message.Status]int{
			message.Pending:   1,
			message.Sent:      1,
			message.Delivered: 3,
			message.Read:      1,
			message.Failed:    0,
		}, nil)

		stats, err := tracker.GetDeliveryStats(ctx, "tenant-1", message.Hour)

		require.NoError(t, err)
		assert.Equal(t, 6, stats.Total)
		assert.Equal(t, "66.67%", stats.DeliveryRate)
		assert.Equal(t, "16.67%", stats.ReadRate)
		assert.Equal(t, "0.00%", stats.FailureRate)
	})

	t.Run("store error", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("CountByStatus", ctx, "tenant-1", mock.Anything).Return(nil, errors.New("boom"))

		_, err := tracker.GetDeliveryStats(ctx, "tenant-1", message.Month)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "counting messages by status")
	})
}

func TestGetFailedMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("default limit", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		failed := []message.FailedMessage{{
			Message:      testMessage(message.Failed, 3),
			Conversation: message.Conversation{ID: "conv-1", ContactName: "Ana"},
		}}
		repo.On("ListFailed", ctx, "tenant-1", message.DefaultFailedLimit).Return(failed, nil)

		got, err := tracker.GetFailedMessages(ctx, "tenant-1", 0)

		require.NoError(t, err)
		assert.Equal(t, failed, got)
	})

	t.Run("explicit limit", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("ListFailed", ctx, "tenant-1", 5).Return([]message.FailedMessage{}, nil)

		_, err := tracker.GetFailedMessages(ctx, "tenant-1", 5)
		require.NoError(t, err)
	})
}

func TestGetDeliveryTimeline(t *testing.T) {
	ctx := context.Background()

	t.Run("pending message has a single entry", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		msg := testMessage(message.Pending, 0)
		repo.On("Get", ctx, "msg-1").Return(msg, nil)

		timeline, err := tracker.GetDeliveryTimeline(ctx, "msg-1")

		require.NoError(t, err)
		assert.Equal(t, []message.TimelineEntry{{Status: message.Pending, Timestamp: msg.CreatedAt}}, timeline)
	})

	t.Run("current status follows creation", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		msg := testMessage(message.Failed, 1)
		msg.Metadata.Error = "provider timeout"
		repo.On("Get", ctx, "msg-1").Return(msg, nil)

		timeline, err := tracker.GetDeliveryTimeline(ctx, "msg-1")

		require.NoError(t, err)
		require.Len(t, timeline, 2)
		assert.Equal(t, message.Failed, timeline[1].Status)
		assert.Equal(t, msg.UpdatedAt, timeline[1].Timestamp)
		assert.Equal(t, "provider timeout", timeline[1].Error)
	})

	t.Run("not found", func(t *testing.T) {
		tracker, repo, _, _ := newTracker(t)

		repo.On("Get", ctx, "msg-404").Return(message.Message{}, message.ErrNotFound)

		_, err := tracker.GetDeliveryTimeline(ctx, "msg-404")

		assert.True(t, errors.Is(err, message.ErrNotFound))
	})
}
