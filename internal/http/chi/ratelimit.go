package chi

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ztrans-apps/crm-sub001/ratelimit"
)

type rateLimitResponse struct {
	TenantID       string `json:"tenant_id"`
	SessionID      string `json:"session_id"`
	Remaining      int    `json:"remaining"`
	ResetInSeconds int    `json:"reset_in_seconds"`
	Limited        bool   `json:"limited"`
}

// getRateLimit handles GET /v1/tenants/{tenant_id}/sessions/{session_id}/rate-limit.
// It only reads the window; no window is created.
func getRateLimit(limiter *ratelimit.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenant_id")
		sessionID := chi.URLParam(r, "session_id")

		remaining := limiter.Remaining(tenantID, sessionID)
		writeJSON(w, http.StatusOK, rateLimitResponse{
			TenantID:       tenantID,
			SessionID:      sessionID,
			Remaining:      remaining,
			ResetInSeconds: int(math.Ceil(limiter.ResetIn(tenantID, sessionID).Seconds())),
			Limited:        remaining == 0,
		})
	})
}

// deleteRateLimit handles DELETE /v1/tenants/{tenant_id}/sessions/{session_id}/rate-limit
func deleteRateLimit(limiter *ratelimit.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter.Reset(chi.URLParam(r, "tenant_id"), chi.URLParam(r, "session_id"))
		w.WriteHeader(http.StatusNoContent)
	})
}
