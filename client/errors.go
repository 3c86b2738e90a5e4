package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User-facing login messages.
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgAccountDisabled    = "Your account has been disabled."
	MsgServerUnavailable  = "Server unavailable. Please try again later."
	MsgAccessDenied       = "Access denied. Admin privileges required."
)

var (
	// ErrInvalidPath is returned when a request path is outside the versioned API prefix.
	ErrInvalidPath = errors.New("request path must start with /v1/")
	// ErrMalformedResponse is returned when a 2xx response body is not the JSON we expect.
	ErrMalformedResponse = errors.New("malformed response body")
)

// APIError is returned when the server answered with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

// TransportError is returned when the HTTP call itself could not be completed.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not reach server (%s %s): %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0 if err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// parseAPIError builds an APIError from a non-2xx response. The body is parsed
// defensively: anything that is not {"detail": ...} falls back to the status text.
func parseAPIError(status int, body []byte) *APIError {
	msg := detailMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{Status: status, Message: msg}
}

func detailMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	// Validation errors arrive as a list of {"msg": ...} objects.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// loginError maps a failed credential check to the message shown to the operator.
func loginError(status int) *APIError {
	switch status {
	case http.StatusUnauthorized, http.StatusBadRequest:
		return &APIError{Status: status, Message: MsgInvalidCredentials}
	case http.StatusForbidden:
		return &APIError{Status: status, Message: MsgAccountDisabled}
	default:
		return &APIError{Status: status, Message: MsgServerUnavailable}
	}
}
