package clierr

import (
	"errors"
	"fmt"

	"github.com/habedi/meterctl/client"
)

// Type categorizes a CLI-facing error for consistent messaging and exit codes.
type Type string

const (
	Validation Type = "validation"
	Auth       Type = "auth"
	Forbidden  Type = "forbidden"
	NotFound   Type = "not_found"
	Network    Type = "network"
	API        Type = "api"
	Internal   Type = "internal"
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// ExitCode is the process exit status for this error.
func (e *Error) ExitCode() int {
	switch e.Type {
	case Validation:
		return 2
	case Auth, Forbidden:
		return 3
	case NotFound:
		return 4
	case Network:
		return 5
	default:
		return 1
	}
}

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// FromError turns any error returned by a command into an *Error with a message
// fit for the terminal. nil stays nil.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401:
			return New(Auth, fmt.Sprintf("%s Run 'meterctl login' to sign in again.", apiErr.Message), err)
		case apiErr.Status == 403:
			return New(Forbidden, apiErr.Message, err)
		case apiErr.Status == 404:
			return New(NotFound, apiErr.Message, err)
		case apiErr.Status == 400 || apiErr.Status == 422:
			return New(Validation, apiErr.Message, err)
		default:
			return New(API, fmt.Sprintf("server error (%d): %s", apiErr.Status, apiErr.Message), err)
		}
	}
	if client.IsTransport(err) {
		return New(Network, err.Error(), err)
	}
	if errors.Is(err, client.ErrInvalidPath) {
		return New(Validation, err.Error(), err)
	}
	return New(Internal, err.Error(), err)
}
