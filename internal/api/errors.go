package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a client-side validation failure. It never reaches the
// network layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// AuthExpiredError is returned for any 401 or 403 response. It is never
// retried and always sends the user back to the login boundary.
type AuthExpiredError struct {
	StatusCode int
	Endpoint   string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("session expired (%s returned status %d)", e.Endpoint, e.StatusCode)
}

// ServerRejectedError is any other non-2xx response. Message is the response
// body, surfaced to the user verbatim.
type ServerRejectedError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *ServerRejectedError) Error() string {
	return fmt.Sprintf("%s rejected (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
}

// NetworkError is a transport failure with no response.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthExpired reports whether err is or wraps an AuthExpiredError.
func IsAuthExpired(err error) bool {
	var authErr *AuthExpiredError
	return errors.As(err, &authErr)
}

// IsServerRejected reports whether err is or wraps a ServerRejectedError.
func IsServerRejected(err error) bool {
	var rejErr *ServerRejectedError
	return errors.As(err, &rejErr)
}

// IsNetwork reports whether err is or wraps a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// UserMessage returns the text shown to the user for err: the server body
// for rejections, the field message for validation errors, err.Error()
// otherwise.
func UserMessage(err error) string {
	var rejErr *ServerRejectedError
	if errors.As(err, &rejErr) {
		return rejErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return err.Error()
}

// classifyStatus maps a non-2xx response to its error type.
func classifyStatus(endpoint string, status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthExpiredError{StatusCode: status, Endpoint: endpoint}
	}
	msg := decodeMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ServerRejectedError{StatusCode: status, Endpoint: endpoint, Message: msg}
}

// resultLabel is the metrics label for a call outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsAuthExpired(err):
		return "auth_expired"
	case IsServerRejected(err):
		return "rejected"
	case IsNetwork(err):
		return "network"
	default:
		return "error"
	}
}
