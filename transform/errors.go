package transform

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed remote call so the coordinator can route it:
// auth-expired errors feed the re-authentication path, rate limits and
// server errors only differ in the message shown to the user.
type ErrorKind int

const (
	ErrNetwork ErrorKind = iota
	ErrRateLimit
	ErrAuthExpired
	ErrServer
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrRateLimit:
		return "rate_limit"
	case ErrAuthExpired:
		return "auth_expired"
	case ErrServer:
		return "server"
	}
	return "unknown"
}

// APIError is a typed failure from the transformation or sync API.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure.
func NetworkError(err error) *APIError {
	return &APIError{Kind: ErrNetwork, Message: err.Error(), Err: err}
}

// ClassifyStatus maps a non-2xx HTTP status to a typed API error.
func ClassifyStatus(status int, message string) *APIError {
	kind := ErrServer
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrAuthExpired
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimit
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}
