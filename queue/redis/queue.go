package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/queue"
)

/* Redis Streams implementation of queue.Enqueuer
 * Ready jobs live in a stream consumed through a consumer group,
 * retries and delayed jobs wait in a sorted set scored by due time,
 * exhausted jobs are pushed to a capped dead-letter list
 */

const (
	keyPrefix           = "queue"   // queue:{name}:stream, queue:{name}:delayed, queue:{name}:dead
	consumerGroupSuffix = "workers" // consumer group naming: {name}-workers
	jobField            = "job"     // stream entry field holding the job JSON
	defaultConsumer     = "worker"  // consumer name when none is configured
	defaultBatchSize    = 10        // entries read per XREADGROUP
	defaultBlock        = 1 * time.Second
	defaultClaimIdle    = 5 * time.Minute
	deadLetterCap       = 1000
)

// promoteScript moves one delayed member into the stream; the member is only removed
// once XADD succeeded, and a member already promoted by another consumer is skipped
var promoteScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
	redis.call('XADD', KEYS[2], '*', ARGV[2], ARGV[1])
	redis.call('ZREM', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// Config tunes the consumer side of the queue
type Config struct {
	Consumer  string
	BatchSize int64
	// Block is the XREADGROUP block time; a negative value polls without blocking
	Block time.Duration
	// ClaimIdle is how long an entry may stay pending with a consumer before another
	// consumer takes it over; it must exceed the longest job timeout
	ClaimIdle time.Duration
}

type Queue struct {
	client *redis.Client
	config Config
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Queue
type Option func(*Queue)

// WithConfig sets the consumer configuration
func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		if cfg.Consumer != "" {
			q.config.Consumer = cfg.Consumer
		}
		if cfg.BatchSize > 0 {
			q.config.BatchSize = cfg.BatchSize
		}
		if cfg.Block != 0 {
			q.config.Block = cfg.Block
		}
		if cfg.ClaimIdle > 0 {
			q.config.ClaimIdle = cfg.ClaimIdle
		}
	}
}

// WithLogger sets the logger used for non-fatal queue errors
func WithLogger(logger zerolog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithClock replaces time.Now for due-time computation
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// NewQueue creates a queue on an existing client
func NewQueue(client *redis.Client, opts ...Option) *Queue {
	q := &Queue{
		client: client,
		config: Config{
			Consumer:  defaultConsumer,
			BatchSize: defaultBatchSize,
			Block:     defaultBlock,
			ClaimIdle: defaultClaimIdle,
		},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Connect creates a Redis client and verifies the connection
func Connect(addr, password string, db int, opts ...Option) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewQueue(client, opts...), nil
}

// AddJob stores a job in the stream, or in the delayed set when opts.Delay is set
func (q *Queue) AddJob(ctx context.Context, queueName, jobType string, payload interface{}, opts queue.Options) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling job payload: %w", err)
	}

	job := queue.Job{
		ID:         uuid.New().String(),
		Queue:      queueName,
		Type:       jobType,
		Payload:    raw,
		Options:    opts,
		Attempt:    1,
		EnqueuedAt: q.now().UTC(),
	}

	if opts.Delay > 0 {
		if err := q.schedule(ctx, job, opts.Delay); err != nil {
			return "", err
		}
		return job.ID, nil
	}

	if err := q.push(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Consume promotes due jobs, takes over entries left pending by a stopped consumer,
// reads one batch and runs handler on each job.
// It returns the number of jobs handled.
func (q *Queue) Consume(ctx context.Context, queueName string, handler queue.Handler) (int, error) {
	if _, err := q.Promote(ctx, queueName); err != nil {
		return 0, err
	}

	streamKey := streamKey(queueName)
	groupName := groupName(queueName)

	if err := q.ensureGroup(ctx, queueName); err != nil {
		return 0, err
	}

	claimed, err := q.reclaim(ctx, queueName, handler)
	if err != nil {
		return 0, err
	}
	if claimed > 0 {
		return claimed, nil
	}

	// Read from stream using consumer group
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: q.config.Consumer,
		Streams:  []string{streamKey, ">"},
		Count:    q.config.BatchSize,
		Block:    q.config.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		// No messages available
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading from stream: %w", err)
	}

	handled := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			q.process(ctx, queueName, msg, handler)
			handled++
		}
	}

	return handled, nil
}

// reclaim runs the entries that stayed pending longer than ClaimIdle, e.g. after a worker crashed
func (q *Queue) reclaim(ctx context.Context, queueName string, handler queue.Handler) (int, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamKey(queueName),
		Group:    groupName(queueName),
		Consumer: q.config.Consumer,
		MinIdle:  q.config.ClaimIdle,
		Start:    "0-0",
		Count:    q.config.BatchSize,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("claiming pending entries: %w", err)
	}

	for _, msg := range msgs {
		q.logger.Info().Str("queue", queueName).Str("entry_id", msg.ID).Msg("reclaimed pending entry")
		q.process(ctx, queueName, msg, handler)
	}
	return len(msgs), nil
}

// Run consumes queueName until ctx is cancelled
func (q *Queue) Run(ctx context.Context, queueName string, handler queue.Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := q.Consume(ctx, queueName, handler)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.Error().Err(err).Str("queue", queueName).Msg("consuming queue")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if n == 0 && q.config.Block < 0 {
			// Polling mode never blocks in Redis, so pace the loop here
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

// Promote moves delayed jobs whose due time has passed into the stream
func (q *Queue) Promote(ctx context.Context, queueName string) (int, error) {
	delayedKey := delayedKey(queueName)
	dueBy := fmt.Sprintf("%d", q.now().UnixMilli())

	members, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: dueBy,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("reading delayed jobs: %w", err)
	}

	if len(members) == 0 {
		return 0, nil
	}
	if err := q.ensureGroup(ctx, queueName); err != nil {
		return 0, err
	}

	promoted := 0
	for _, member := range members {
		moved, err := promoteScript.Run(ctx, q.client, []string{delayedKey, streamKey(queueName)}, member, jobField).Int()
		if err != nil {
			return promoted, fmt.Errorf("promoting delayed job: %w", err)
		}
		promoted += moved
	}

	return promoted, nil
}

// Length returns the number of entries in the ready stream
func (q *Queue) Length(ctx context.Context, queueName string) (int64, error) {
	n, err := q.client.XLen(ctx, streamKey(queueName)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading stream length: %w", err)
	}
	return n, nil
}

// DelayedCount returns the number of jobs waiting for their due time
func (q *Queue) DelayedCount(ctx context.Context, queueName string) (int64, error) {
	n, err := q.client.ZCard(ctx, delayedKey(queueName)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading delayed count: %w", err)
	}
	return n, nil
}

// DeadCount returns the number of jobs in the dead-letter list
func (q *Queue) DeadCount(ctx context.Context, queueName string) (int64, error) {
	n, err := q.client.LLen(ctx, deadKey(queueName)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading dead-letter count: %w", err)
	}
	return n, nil
}

// DeadJobs returns up to limit most recent dead-lettered jobs
func (q *Queue) DeadJobs(ctx context.Context, queueName string, limit int64) ([]queue.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := q.client.LRange(ctx, deadKey(queueName), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading dead-letter list: %w", err)
	}

	jobs := make([]queue.Job, 0, len(raw))
	for _, item := range raw {
		var job queue.Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Close closes the Redis connection
func (q *Queue) Close(ctx context.Context) error {
	return q.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (q *Queue) GetClient() *redis.Client {
	return q.client
}

func (q *Queue) process(ctx context.Context, queueName string, msg redis.XMessage, handler queue.Handler) {
	// Bookkeeping outlives a shutdown so the outcome of the attempt is never lost
	bg := context.WithoutCancel(ctx)

	// The entry is always acknowledged: a retry is a new entry, not a redelivery
	defer func() {
		if err := q.client.XAck(bg, streamKey(queueName), groupName(queueName), msg.ID).Err(); err != nil {
			q.logger.Error().Err(err).Str("queue", queueName).Str("entry_id", msg.ID).Msg("acknowledging entry")
		}
		q.client.XDel(bg, streamKey(queueName), msg.ID)
	}()

	raw, _ := msg.Values[jobField].(string)
	var job queue.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.logger.Warn().Err(err).Str("queue", queueName).Str("entry_id", msg.ID).Msg("dropping undecodable job")
		return
	}

	log := q.logger.With().
		Str("queue", queueName).
		Str("job_id", job.ID).
		Str("job_type", job.Type).
		Int("attempt", job.Attempt).
		Int("max_attempts", job.MaxAttempts()).
		Logger()

	if ctx.Err() != nil {
		q.requeue(bg, job, log)
		return
	}

	err := q.run(ctx, job, handler)
	if err == nil {
		return
	}

	// An attempt cut short by shutdown is not spent
	if ctx.Err() != nil {
		job.LastError = err.Error()
		q.requeue(bg, job, log)
		return
	}

	job.LastError = err.Error()

	if errors.Is(err, queue.ErrPoison) || job.Exhausted() {
		log.Warn().Err(err).Msg("job failed permanently")
		if derr := q.deadLetter(bg, job); derr != nil {
			log.Error().Err(derr).Msg("dead-lettering job")
		}
		return
	}

	delay := job.Options.Backoff.Next(job.Attempt)
	job.Attempt++
	if serr := q.schedule(bg, job, delay); serr != nil {
		log.Error().Err(serr).Msg("scheduling retry")
		return
	}
	log.Debug().Err(err).Dur("retry_in", delay).Msg("job attempt failed, retry scheduled")
}

// requeue makes the job due again with the same attempt number
func (q *Queue) requeue(ctx context.Context, job queue.Job, log zerolog.Logger) {
	if err := q.schedule(ctx, job, 0); err != nil {
		log.Error().Err(err).Msg("requeueing interrupted job")
		return
	}
	log.Info().Msg("job interrupted by shutdown, requeued")
}

func (q *Queue) run(ctx context.Context, job queue.Job, handler queue.Handler) (err error) {
	if job.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Options.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler.Handle(ctx, job)
}

func (q *Queue) push(ctx context.Context, job queue.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	if err := q.ensureGroup(ctx, job.Queue); err != nil {
		return err
	}

	_, err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(job.Queue),
		Values: map[string]interface{}{
			jobField: string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("adding to stream: %w", err)
	}
	return nil
}

func (q *Queue) schedule(ctx context.Context, job queue.Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	due := q.now().Add(delay).UnixMilli()
	err = q.client.ZAdd(ctx, delayedKey(job.Queue), redis.Z{
		Score:  float64(due),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("scheduling delayed job: %w", err)
	}
	return nil
}

func (q *Queue) deadLetter(ctx context.Context, job queue.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, deadKey(job.Queue), string(data))
	pipe.LTrim(ctx, deadKey(job.Queue), 0, deadLetterCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pushing dead-letter job: %w", err)
	}
	return nil
}

func (q *Queue) ensureGroup(ctx context.Context, queueName string) error {
	err := q.client.XGroupCreateMkStream(ctx, streamKey(queueName), groupName(queueName), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Helper functions

func streamKey(queueName string) string {
	return fmt.Sprintf("%s:%s:stream", keyPrefix, queueName)
}

func delayedKey(queueName string) string {
	return fmt.Sprintf("%s:%s:delayed", keyPrefix, queueName)
}

func deadKey(queueName string) string {
	return fmt.Sprintf("%s:%s:dead", keyPrefix, queueName)
}

func groupName(queueName string) string {
	return fmt.Sprintf("%s-%s", queueName, consumerGroupSuffix)
}
