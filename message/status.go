package message

import "fmt"

/* Status represents the delivery state of an outgoing message
 * Follows the lifecycle: Pending -> Sent -> Delivered -> Read, with Failed reachable from any state
 */
type Status int

const (
	Pending Status = iota + 1
	Sent
	Delivered
	Read
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sent:
		return "sent"
	case Delivered:
		return "delivered"
	case Read:
		return "read"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStatus creates a Status from a string
func ParseStatus(str string) (Status, error) {
	switch str {
	case "pending":
		return Pending, nil
	case "sent":
		return Sent, nil
	case "delivered":
		return Delivered, nil
	case "read":
		return Read, nil
	case "failed":
		return Failed, nil
	default:
		return 0, fmt.Errorf("invalid status: %q", str)
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Pending || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
// Failed is always reachable; leaving Failed is only possible towards Pending or Sent (resend);
// otherwise statuses only move forward.
func (s Status) CanTransitionTo(next Status) bool {
	if next.Validate() != nil {
		return false
	}
	if next == Failed {
		return true
	}
	if s == Failed {
		return next == Pending || next == Sent
	}
	if s.Validate() != nil {
		return true
	}
	return next > s
}

// MarshalText encodes the status as its name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
