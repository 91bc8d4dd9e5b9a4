package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/metrics"
	"github.com/ztrans-apps/crm-sub001/ratelimit"
	"github.com/ztrans-apps/crm-sub001/sender"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

// Services are the use cases exposed over HTTP; Collector and Prometheus are optional
type Services struct {
	Messages  message.UseCase
	Webhooks  webhook.UseCase
	Sender    sender.UseCase
	Limiter   *ratelimit.Limiter
	Collector metrics.Collector
	// Prometheus serves /metrics
	Prometheus http.Handler
	// CallbackSecret verifies provider callbacks; empty disables verification
	CallbackSecret string
	Logger         zerolog.Logger
}

// Handlers sets up the API routes
func Handlers(ctx context.Context, s Services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if s.Prometheus != nil {
		r.Method(http.MethodGet, "/metrics", s.Prometheus)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/messages", postMessage(s.Sender))
		r.Method(http.MethodGet, "/messages/{message_id}/timeline", getTimeline(s.Messages))
		r.Method(http.MethodPost, "/callbacks/provider", postProviderCallback(s.Messages, s.CallbackSecret, s.Logger))

		r.Route("/tenants/{tenant_id}", func(r chi.Router) {
			r.Method(http.MethodGet, "/delivery-stats", getDeliveryStats(s.Messages))
			r.Method(http.MethodGet, "/messages/failed", getFailedMessages(s.Messages))
			r.Method(http.MethodGet, "/webhooks/stats", getWebhookStats(s.Webhooks))
			r.Method(http.MethodGet, "/sessions/{session_id}/rate-limit", getRateLimit(s.Limiter))
			r.Method(http.MethodDelete, "/sessions/{session_id}/rate-limit", deleteRateLimit(s.Limiter))
		})

		if s.Collector != nil {
			r.Method(http.MethodGet, "/metrics", getMetrics(s.Collector))
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
