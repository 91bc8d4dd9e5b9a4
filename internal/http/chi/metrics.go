package chi

import (
	"net/http"

	"github.com/ztrans-apps/crm-sub001/metrics"
)

// getMetrics handles GET /v1/metrics
func getMetrics(collector metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := collector.Collect(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}
