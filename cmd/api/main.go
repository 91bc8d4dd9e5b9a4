package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/config"
	"github.com/ztrans-apps/crm-sub001/internal/http/chi"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/metrics"
	"github.com/ztrans-apps/crm-sub001/queue"
	"github.com/ztrans-apps/crm-sub001/queue/redis"
	"github.com/ztrans-apps/crm-sub001/ratelimit"
	"github.com/ztrans-apps/crm-sub001/sender"
	"github.com/ztrans-apps/crm-sub001/store/postgres"
	"github.com/ztrans-apps/crm-sub001/subscriptions"
	"github.com/ztrans-apps/crm-sub001/webhook"
	"github.com/ztrans-apps/crm-sub001/worker"
	"golang.org/x/sync/errgroup"
)

/* main.go is where every package is wired together: config, storage, queue,
 * the delivery pipeline, the worker and the HTTP server.
 * Imports only go one way: down. The application imports the business packages,
 * which import the storage interfaces.
 */

func main() {
	configPath := flag.String("config", os.Getenv("CRM_CONFIG"), "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("crm-delivery", httplog.Options{
		JSON:     cfg.Log.JSON,
		LogLevel: cfg.Log.Level,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info().Msg("database migrations applied")
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// The worker id doubles as the consumer name in every consumer group
	workerID := cfg.Worker.ID
	if workerID == "" {
		workerID = worker.DefaultID()
	}

	q, err := redis.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redis.WithConfig(redis.Config{
			Consumer:  workerID,
			BatchSize: cfg.Worker.BatchSize,
			Block:     cfg.Worker.Block,
			ClaimIdle: cfg.Worker.ClaimIdle,
		}),
		redis.WithLogger(logger.With().Str("component", "queue").Logger()),
	)
	if err != nil {
		return err
	}
	defer q.Close(context.Background())

	webhookRepo := postgres.NewWebhookRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	if cfg.Webhook.SubscriptionsFile != "" {
		loader := subscriptions.NewLoader()
		if err := loader.Load(cfg.Webhook.SubscriptionsFile); err != nil {
			return err
		}
		n, err := loader.Seed(ctx, webhookRepo)
		if err != nil {
			return err
		}
		logger.Info().Int("count", n).Str("file", cfg.Webhook.SubscriptionsFile).Msg("webhook subscriptions seeded")
	}

	limiter := ratelimit.NewLimiter(ratelimit.WithConfig(ratelimit.Config{
		MaxMessages: cfg.RateLimit.MaxMessages,
		Window:      cfg.RateLimit.Window,
	}))

	collector := metrics.NewRedisCollector(q, limiter, webhook.QueueName, sender.QueueName)
	exporter, err := metrics.NewOTelExporter(collector, metrics.WithGlobalMeterProvider())
	if err != nil {
		return err
	}
	defer exporter.Shutdown(context.Background())

	router := webhook.NewRouter(webhookRepo, q,
		webhook.WithLogger(logger.With().Str("component", "webhook").Logger()),
		webhook.WithObserver(exporter),
	)
	tracker := message.NewTracker(messageRepo, router,
		message.WithLogger(logger.With().Str("component", "tracker").Logger()),
		message.WithObserver(exporter),
		message.WithBufferSize(cfg.Worker.StatusBuffer),
	)
	provider := sender.NewHTTPProvider(cfg.Provider.BaseURL, cfg.Provider.Token, cfg.Provider.Timeout)
	dispatcher := sender.NewDispatcher(limiter, messageRepo, provider, tracker, q,
		sender.WithLogger(logger.With().Str("component", "sender").Logger()),
	)
	tracker.SetResender(dispatcher)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Worker.Enabled {
		w := newWorker(workerID, q, router, tracker, dispatcher, limiter, cfg, logger)
		g.Go(func() error {
			return w.Run(ctx)
		})
	} else {
		// Status callbacks still need a consumer for the Submit buffer
		g.Go(func() error {
			return tracker.Run(ctx)
		})
		g.Go(func() error {
			limiter.Run(ctx, cfg.RateLimit.CleanupInterval)
			return nil
		})
	}

	r := chi.Handlers(ctx, chi.Services{
		Messages:       tracker,
		Webhooks:       router,
		Sender:         dispatcher,
		Limiter:        limiter,
		Collector:      collector,
		Prometheus:     exporter.ServeHTTP(),
		CallbackSecret: cfg.Provider.CallbackSecret,
		Logger:         logger,
	})
	srv := &http.Server{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, cfg, errShutdown)

	logger.Info().Str("port", cfg.Server.Port).Bool("worker", cfg.Worker.Enabled).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		g.Wait()
		return err
	}

	if err := <-errShutdown; err != nil {
		return err
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

func newWorker(id string, q *redis.Queue, router *webhook.Router, tracker *message.Tracker, dispatcher *sender.Dispatcher,
	limiter *ratelimit.Limiter, cfg *config.Config, logger zerolog.Logger) *worker.Worker {
	w := worker.New(q, q,
		worker.WithID(id),
		worker.WithHeartbeatInterval(cfg.Worker.HeartbeatInterval),
		worker.WithLogger(logger.With().Str("component", "worker").Logger()),
	)

	deliveries := queue.NewMux()
	deliveries.Register(webhook.JobTypeDeliver, queue.HandlerFunc(router.HandleJob))
	w.Handle(webhook.QueueName, deliveries)

	resends := queue.NewMux()
	resends.Register(sender.JobTypeResend, queue.HandlerFunc(dispatcher.HandleResend))
	w.Handle(sender.QueueName, resends)

	w.Go("status-tracker", func(ctx context.Context) {
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("status tracker stopped")
		}
	})
	w.Go("ratelimit-cleanup", func(ctx context.Context) {
		limiter.Run(ctx, cfg.RateLimit.CleanupInterval)
	})
	return w
}

func shutdown(server *http.Server, ctxShutdown context.Context, cfg *config.Config, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
