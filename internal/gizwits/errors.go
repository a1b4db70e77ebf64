package gizwits

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Cloud error codes the service cares about. The full list is much longer
// but these are the only ones with distinct handling.
const (
	codeTokenInvalid      = 9004
	codeUserDoesNotExist  = 9005
	codeIncorrectPassword = 9020
	codeDeviceOffline     = 9042
)

var (
	ErrTokenInvalid      = errors.New("user token invalid or expired")
	ErrUserDoesNotExist  = errors.New("user does not exist")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrDeviceOffline     = errors.New("device is offline")
)

// APIError is a cloud error response that does not map to one of the
// sentinel errors above.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != 0 {
		return fmt.Sprintf("cloud api error %d (http %d): %s", e.ErrorCode, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cloud api http %d: %s", e.StatusCode, e.Message)
}

// decodeAPIError turns a non-2xx response into an error. Bodies carrying a
// known error_code map to sentinel errors so callers can test with errors.Is.
func decodeAPIError(statusCode int, raw []byte) error {
	var body struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	}
	// A body that is not JSON still produces a usable APIError.
	_ = json.Unmarshal(raw, &body)

	switch body.ErrorCode {
	case codeTokenInvalid:
		return ErrTokenInvalid
	case codeUserDoesNotExist:
		return ErrUserDoesNotExist
	case codeIncorrectPassword:
		return ErrIncorrectPassword
	case codeDeviceOffline:
		return ErrDeviceOffline
	}

	msg := body.ErrorMessage
	if msg == "" {
		msg = string(raw)
	}
	return &APIError{StatusCode: statusCode, ErrorCode: body.ErrorCode, Message: msg}
}
