package upstream

import (
	"fmt"
	"strings"
)

// HTTPStatusError means the open-data API answered with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// APIError is a portal-level failure reported inside a 200 response
// (header.code other than "00", e.g. an unregistered service key).
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return "api error code=" + e.Code
	}
	return fmt.Sprintf("api error code=%s: %s", e.Code, msg)
}

// MissingFieldError means an item lacked one of the fields we extract.
// Index is 1-based.
type MissingFieldError struct {
	Index int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("item %d: missing field %s", e.Index, e.Field)
}
