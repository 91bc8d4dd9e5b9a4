package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ztrans-apps/crm-sub001/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "crm-delivery"

// OTelExporter provides OpenTelemetry metrics export following OTel standards.
// It also implements webhook.Observer and message.Observer.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter              metric.Meter
	queueLengthGauge   metric.Int64ObservableGauge
	queueDelayedGauge  metric.Int64ObservableGauge
	queueDeadGauge     metric.Int64ObservableGauge
	activeWorkersGauge metric.Int64ObservableGauge
	rateWindowsGauge   metric.Int64ObservableGauge
	deliveryCounter    metric.Int64Counter
	deliveryDuration   metric.Float64Histogram
	transitionCounter  metric.Int64Counter
	registration       metric.Registration
	setGlobalProvider  bool
}

// ExporterOption configures an OTelExporter
type ExporterOption func(*OTelExporter)

// WithGlobalMeterProvider installs the meter provider with otel.SetMeterProvider
func WithGlobalMeterProvider() ExporterOption {
	return func(oe *OTelExporter) {
		oe.setGlobalProvider = true
	}
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format.
// Each exporter owns its registry, so several can live in one process.
func NewOTelExporter(collector Collector, opts ...ExporterOption) (*OTelExporter, error) {
	oe := &OTelExporter{
		registry:  promclient.NewRegistry(),
		collector: collector,
	}
	for _, opt := range opts {
		opt(oe)
	}

	oe.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(oe.registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	oe.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	if oe.setGlobalProvider {
		otel.SetMeterProvider(oe.meterProvider)
	}

	oe.meter = oe.meterProvider.Meter(
		meterName,
		metric.WithInstrumentationVersion("1.0.0"),
	)

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.queueLengthGauge, err = oe.meter.Int64ObservableGauge(
		"crm.queue.length",
		metric.WithDescription("Number of entries in the queue stream"),
		metric.WithUnit("{jobs}"),
	)
	if err != nil {
		return fmt.Errorf("creating queue length gauge: %w", err)
	}

	oe.queueDelayedGauge, err = oe.meter.Int64ObservableGauge(
		"crm.queue.delayed",
		metric.WithDescription("Number of jobs waiting for their due time"),
		metric.WithUnit("{jobs}"),
	)
	if err != nil {
		return fmt.Errorf("creating queue delayed gauge: %w", err)
	}

	oe.queueDeadGauge, err = oe.meter.Int64ObservableGauge(
		"crm.queue.dead",
		metric.WithDescription("Number of jobs in the dead-letter list"),
		metric.WithUnit("{jobs}"),
	)
	if err != nil {
		return fmt.Errorf("creating queue dead gauge: %w", err)
	}

	// Queue gauges share one callback so each scrape reads Redis once per queue
	oe.registration, err = oe.meter.RegisterCallback(oe.observeQueues,
		oe.queueLengthGauge, oe.queueDelayedGauge, oe.queueDeadGauge)
	if err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}

	oe.activeWorkersGauge, err = oe.meter.Int64ObservableGauge(
		"crm.workers.active",
		metric.WithDescription("Number of active workers per queue"),
		metric.WithUnit("{workers}"),
		metric.WithInt64Callback(oe.observeActiveWorkers),
	)
	if err != nil {
		return fmt.Errorf("creating active workers gauge: %w", err)
	}

	oe.rateWindowsGauge, err = oe.meter.Int64ObservableGauge(
		"crm.ratelimit.windows",
		metric.WithDescription("Number of tenant/session rate-limit windows in memory"),
		metric.WithUnit("{windows}"),
		metric.WithInt64Callback(oe.observeRateWindows),
	)
	if err != nil {
		return fmt.Errorf("creating rate limit windows gauge: %w", err)
	}

	oe.deliveryCounter, err = oe.meter.Int64Counter(
		"crm.webhook.deliveries",
		metric.WithDescription("Webhook delivery attempts by event type and outcome"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return fmt.Errorf("creating delivery counter: %w", err)
	}

	oe.deliveryDuration, err = oe.meter.Float64Histogram(
		"crm.webhook.delivery.duration",
		metric.WithDescription("Duration of webhook delivery attempts"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	)
	if err != nil {
		return fmt.Errorf("creating delivery duration histogram: %w", err)
	}

	oe.transitionCounter, err = oe.meter.Int64Counter(
		"crm.message.transitions",
		metric.WithDescription("Applied message status transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return fmt.Errorf("creating transition counter: %w", err)
	}

	return nil
}

// observeQueues reports length, delayed and dead counts per queue
func (oe *OTelExporter) observeQueues(ctx context.Context, observer metric.Observer) error {
	stats, err := oe.collector.GetQueueStats(ctx)
	if err != nil {
		return err
	}

	for name, s := range stats {
		attrs := metric.WithAttributes(attribute.String("queue.name", name))
		observer.ObserveInt64(oe.queueLengthGauge, s.Length, attrs)
		observer.ObserveInt64(oe.queueDelayedGauge, s.Delayed, attrs)
		observer.ObserveInt64(oe.queueDeadGauge, s.Dead, attrs)
	}

	return nil
}

// observeActiveWorkers is a callback that reports active worker counts
func (oe *OTelExporter) observeActiveWorkers(ctx context.Context, observer metric.Int64Observer) error {
	workers, err := oe.collector.GetActiveWorkers(ctx)
	if err != nil {
		return err
	}

	for name, list := range workers {
		observer.Observe(int64(len(list)), metric.WithAttributes(
			attribute.String("queue.name", name),
		))
	}

	return nil
}

func (oe *OTelExporter) observeRateWindows(ctx context.Context, observer metric.Int64Observer) error {
	n, err := oe.collector.GetRateLimitWindows(ctx)
	if err != nil {
		return err
	}
	observer.Observe(n)
	return nil
}

// ObserveDelivery records one webhook delivery attempt
func (oe *OTelExporter) ObserveDelivery(ctx context.Context, eventType string, success bool, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	attrs := metric.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.String("outcome", outcome),
	)
	oe.deliveryCounter.Add(ctx, 1, attrs)
	oe.deliveryDuration.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
}

// ObserveTransition records one applied message status change
func (oe *OTelExporter) ObserveTransition(ctx context.Context, from, to message.Status) {
	oe.transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status.from", from.String()),
		attribute.String("status.to", to.String()),
	))
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.registration != nil {
		_ = oe.registration.Unregister()
	}
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
