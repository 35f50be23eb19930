package llm

import (
	"errors"
	"fmt"
)

// ModelNotFoundError reports a model name that no registered, credentialed
// provider can resolve.
type ModelNotFoundError struct {
	Model string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q is not available", e.Model)
}

// InvalidParameterError reports a request parameter that a model's
// capabilities reject, such as an out-of-range temperature or an oversized
// image payload. It is surfaced to the tool boundary as a structured error
// payload rather than bubbling to the host.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// BackendErrorClass is a coarse classification hint attached to remote call
// failures. The provider never retries; callers decide what to do with each
// class.
type BackendErrorClass string

const (
	BackendAuth           BackendErrorClass = "auth"
	BackendRateLimit      BackendErrorClass = "rate_limit"
	BackendInvalidRequest BackendErrorClass = "invalid_request"
	BackendTransient      BackendErrorClass = "transient"
)

// BackendError wraps a failed remote call. StatusCode is zero for transport
// level failures.
type BackendError struct {
	Class      BackendErrorClass
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend error (%s, http %d): %s", e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%s): %s", e.Class, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func classifyStatus(code int) BackendErrorClass {
	switch {
	case code == 401 || code == 403:
		return BackendAuth
	case code == 429:
		return BackendRateLimit
	case code == 408 || code >= 500:
		return BackendTransient
	default:
		// Remaining 4xx: the request itself is wrong, a retry cannot help.
		return BackendInvalidRequest
	}
}

// IsTransientBackendError reports whether err is a backend failure that a
// caller may reasonably retry.
func IsTransientBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Class == BackendTransient
}
