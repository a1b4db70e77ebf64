package models

import "time"

// Event types recorded in the device event log.
const (
	EventCommand     = "COMMAND"
	EventDecodeError = "DECODE_ERROR"
	EventReauth      = "REAUTH"
)

// DeviceEvent is a single log entry. DeviceID is empty for account-level
// events such as re-authentication.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	DeviceID    string    `json:"device_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // COMMAND | DECODE_ERROR | REAUTH
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
