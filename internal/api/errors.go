package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	default:
		return "api error"
	}
}

// Calendar reports whether the error came from the calendar backend.
func (e *APIError) Calendar() bool {
	return e != nil && e.ErrorCode >= 5000 && e.ErrorCode < 6000
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Status == http.StatusServiceUnavailable || e.Status == http.StatusGatewayTimeout
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
