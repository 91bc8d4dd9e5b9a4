package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// eventTypePattern validates event types: dotted names, [a-zA-Z0-9_.]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Payload is the JSON body POSTed to webhook endpoints
type Payload struct {
	// Event is the dotted event name, e.g. "message.delivered"
	Event string `json:"event"`

	// Timestamp is when the event occurred, serialized as ISO 8601
	Timestamp time.Time `json:"timestamp"`

	// Data is the opaque event data
	Data json.RawMessage `json:"data"`
}

// FormatTimestamp renders t the way it appears in the body and in X-Webhook-Timestamp
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Validate checks the payload structure
func (p Payload) Validate() error {
	if err := ValidateEventType(p.Event); err != nil {
		return err
	}

	if p.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if len(p.Data) == 0 {
		return fmt.Errorf("data is required")
	}

	if !json.Valid(p.Data) {
		return fmt.Errorf("data must be valid JSON")
	}

	return nil
}

// MarshalJSON keeps the event, timestamp, data key order
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Event     string          `json:"event"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}{
		Event:     p.Event,
		Timestamp: FormatTimestamp(p.Timestamp),
		Data:      p.Data,
	})
}

// UnmarshalJSON parses the JSON-encoded data and stores the result
func (p *Payload) UnmarshalJSON(data []byte) error {
	var aux struct {
		Event     string          `json:"event"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}

	p.Event = aux.Event
	p.Data = aux.Data
	p.Timestamp = time.Time{}
	if aux.Timestamp == "" {
		return nil
	}

	timestamp, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	p.Timestamp = timestamp

	return nil
}

// New creates a payload for eventType at the given time; a zero time means now
func New(eventType string, timestamp time.Time, data interface{}) (Payload, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return Payload{}, fmt.Errorf("marshaling data: %w", err)
	}

	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	p := Payload{
		Event:     eventType,
		Timestamp: timestamp.UTC(),
		Data:      dataBytes,
	}

	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}

	return p, nil
}

// Parse parses a JSON body into a Payload
func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshaling payload: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}

	return p, nil
}

// Bytes returns the minified JSON encoding, the exact bytes that get signed
func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// ValidateEventType validates an event type. Subscriptions match by exact name, so wildcards are rejected.
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	if !eventTypePattern.MatchString(eventType) {
		return fmt.Errorf("event type must be dotted and contain only [a-zA-Z0-9_.]: %s", eventType)
	}

	return nil
}
