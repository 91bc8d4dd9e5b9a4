package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payload is what the provider receives for one outgoing message
type Payload struct {
	Text string `json:"text"`
	// Reference is echoed back by the provider in status callbacks
	Reference string `json:"reference"`
}

// SendResult is the provider's answer to a send
type SendResult struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Provider is the messaging provider client
type Provider interface {
	Send(ctx context.Context, to string, payload Payload) (SendResult, error)
}

// HTTPProvider sends messages through a provider's HTTP API
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPProvider creates a provider client; timeout bounds each call
func NewHTTPProvider(baseURL, token string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send POSTs {to, text, reference} to {baseURL}/messages
func (p *HTTPProvider) Send(ctx context.Context, to string, payload Payload) (SendResult, error) {
	body, err := json.Marshal(struct {
		To string `json:"to"`
		Payload
	}{To: to, Payload: payload})
	if err != nil {
		return SendResult{}, fmt.Errorf("marshaling provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("creating provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendResult{}, fmt.Errorf("reading provider response: %w", err)
	}

	var result SendResult
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil && resp.StatusCode < 300 {
			return SendResult{}, fmt.Errorf("decoding provider response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Success = false
		if result.Error == "" {
			result.Error = fmt.Sprintf("provider returned HTTP %d", resp.StatusCode)
		}
		return result, nil
	}

	if result.Error == "" {
		result.Success = true
	}
	return result, nil
}
