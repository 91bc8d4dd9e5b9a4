package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/ztrans-apps/crm-sub001/message"
	"github.com/ztrans-apps/crm-sub001/sender"
	"github.com/ztrans-apps/crm-sub001/webhook/signature"
)

/* HTTP layer DTOs for the message API
 * Separate from domain entities to avoid leaking internal structure
 */

const (
	// HeaderProviderSignature carries sha256=<hex HMAC> of the callback body
	HeaderProviderSignature = "X-Provider-Signature"

	maxCallbackBody = 1 << 20
)

type messageResponse struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenant_id"`
	ConversationID string `json:"conversation_id"`
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

type callbackResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

type timelineResponse struct {
	MessageID string                  `json:"message_id"`
	Timeline  []message.TimelineEntry `json:"timeline"`
}

type failedMessagesResponse struct {
	Messages []message.FailedMessage `json:"messages"`
}

// postMessage handles POST /v1/messages
func postMessage(s sender.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sender.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		msg, err := s.Send(r.Context(), req)
		var rateLimited *sender.RateLimitedError
		switch {
		case errors.As(err, &rateLimited):
			w.Header().Set("Retry-After", strconv.Itoa(rateLimited.Seconds()))
			http.Error(w, rateLimited.Error(), http.StatusTooManyRequests)
			return
		case errors.Is(err, sender.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, messageResponse{
			ID:             msg.ID,
			TenantID:       msg.TenantID,
			ConversationID: msg.ConversationID,
			SessionID:      msg.SessionID,
			Status:         msg.Status.String(),
			Error:          msg.Metadata.Error,
		})
	})
}

// postProviderCallback handles POST /v1/callbacks/provider.
// The body is a single status update or an array of them; updates are applied asynchronously.
func postProviderCallback(tracker message.UseCase, secret string, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if secret != "" && !signature.Verify(body, r.Header.Get(HeaderProviderSignature), secret) {
			logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("provider callback with invalid signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		updates, err := parseStatusUpdates(body)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid callback payload: %v", err), http.StatusBadRequest)
			return
		}

		var resp callbackResponse
		for _, u := range updates {
			if tracker.Submit(u) {
				resp.Accepted++
			} else {
				resp.Dropped++
			}
		}

		writeJSON(w, http.StatusAccepted, resp)
	})
}

func parseStatusUpdates(body []byte) ([]message.StatusUpdate, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	var updates []message.StatusUpdate
	if body[0] == '[' {
		if err := json.Unmarshal(body, &updates); err != nil {
			return nil, err
		}
	} else {
		var u message.StatusUpdate
		if err := json.Unmarshal(body, &u); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}

	for i, u := range updates {
		if u.MessageID == "" {
			return nil, fmt.Errorf("update #%d: messageId is required", i+1)
		}
		if err := u.Status.Validate(); err != nil {
			return nil, fmt.Errorf("update #%d: %w", i+1, err)
		}
	}
	return updates, nil
}

// getDeliveryStats handles GET /v1/tenants/{tenant_id}/delivery-stats?range=hour|day|week|month
func getDeliveryStats(tracker message.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timeRange, err := message.ParseTimeRange(r.URL.Query().Get("range"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		stats, err := tracker.GetDeliveryStats(r.Context(), chi.URLParam(r, "tenant_id"), timeRange)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	})
}

// getFailedMessages handles GET /v1/tenants/{tenant_id}/messages/failed?limit=N
func getFailedMessages(tracker message.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		failed, err := tracker.GetFailedMessages(r.Context(), chi.URLParam(r, "tenant_id"), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if failed == nil {
			failed = []message.FailedMessage{}
		}

		writeJSON(w, http.StatusOK, failedMessagesResponse{Messages: failed})
	})
}

// getTimeline handles GET /v1/messages/{message_id}/timeline
func getTimeline(tracker message.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "message_id")

		timeline, err := tracker.GetDeliveryTimeline(r.Context(), id)
		if errors.Is(err, message.ErrNotFound) {
			http.Error(w, fmt.Sprintf("message not found: %s", id), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, timelineResponse{MessageID: id, Timeline: timeline})
	})
}
