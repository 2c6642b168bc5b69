package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies backend failures as observed by the client.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is the normalized form every API wrapper returns. Low-level call
// sites log and re-wrap; UI-facing callers branch on Kind.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Field   string            // conflicting or invalid field, when the backend names one
	Fields  map[string]string // field-level validation detail
	Data    json.RawMessage   // server-provided state accompanying the error, e.g. on conflicts
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s: %s", e.Kind, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("api %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("api %s (status %d)", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

// errorBody is the optional detail the backend attaches to error responses.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Field   string            `json:"field"`
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindUnknown
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func IsConflict(err error) bool       { return IsKind(err, KindConflict) }
func IsAuthentication(err error) bool { return IsKind(err, KindAuthentication) }
func IsNotFound(err error) bool       { return IsKind(err, KindNotFound) }

// AsError extracts the normalized error, nil when err is something else.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
