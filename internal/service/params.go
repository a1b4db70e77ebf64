package service

import "time"

// LogFilter supports event history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "COMMAND", "DECODE_ERROR", "REAUTH"
	DeviceID string    // "" means all devices
}
