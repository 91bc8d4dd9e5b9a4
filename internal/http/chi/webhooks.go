package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ztrans-apps/crm-sub001/webhook"
)

type webhookStatsResponse struct {
	TenantID  string `json:"tenant_id"`
	WebhookID string `json:"webhook_id,omitempty"`
	webhook.Stats
}

// getWebhookStats handles GET /v1/tenants/{tenant_id}/webhooks/stats?webhook_id=...
// Without webhook_id the last 24 hours of every webhook of the tenant are aggregated.
func getWebhookStats(router webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenant_id")
		webhookID := r.URL.Query().Get("webhook_id")

		stats, err := router.GetStats(r.Context(), tenantID, webhookID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, webhookStatsResponse{
			TenantID:  tenantID,
			WebhookID: webhookID,
			Stats:     stats,
		})
	})
}
