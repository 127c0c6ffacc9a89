package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies fetch client errors.
type ErrorCode int

const (
	// ErrCodeConfiguration indicates invalid client or chain configuration.
	ErrCodeConfiguration ErrorCode = iota
	// ErrCodeTimeout indicates the request deadline was exceeded.
	ErrCodeTimeout
	// ErrCodeCancelled indicates a caller-initiated abort.
	ErrCodeCancelled
	// ErrCodeTransport indicates an opaque network failure (DNS, TLS, conn).
	ErrCodeTransport
	// ErrCodeContentType indicates an SSE decode attempt on a response
	// that is not an event stream.
	ErrCodeContentType
	// ErrCodeDecode indicates malformed UTF-8 or JSON content.
	ErrCodeDecode
	// ErrCodeHTTP indicates a non-2xx status surfaced as an error.
	ErrCodeHTTP
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeCancelled:
		return "cancelled"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeContentType:
		return "content_type"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Error is a structured fetch client error.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Method and URL identify the request, when known.
	Method string
	URL    string
	// StatusCode is the HTTP status (0 for pre-response errors).
	StatusCode int
	// Timeout is the exceeded deadline for timeout errors.
	Timeout time.Duration
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Body is the response body for status errors (may be nil).
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(msg string) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: msg}
}

// NewTimeoutError creates a deadline-exceeded error for a request.
func NewTimeoutError(method, url string, timeout time.Duration) *Error {
	return &Error{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Request timeout of %dms exceeded for %s %s", timeout.Milliseconds(), method, url),
		Method:    method,
		URL:       url,
		Timeout:   timeout,
		Retryable: true,
	}
}

// NewCancellationError creates a caller-initiated abort error.
func NewCancellationError(method, url string, cause error) *Error {
	return &Error{
		Code:    ErrCodeCancelled,
		Message: fmt.Sprintf("request cancelled for %s %s", method, url),
		Method:  method,
		URL:     url,
		Err:     cause,
	}
}

// NewTransportError creates an opaque network-failure error.
func NewTransportError(method, url string, cause error) *Error {
	return &Error{
		Code:      ErrCodeTransport,
		Message:   cause.Error(),
		Method:    method,
		URL:       url,
		Retryable: true,
		Err:       cause,
	}
}

// NewContentTypeError creates an SSE content-type mismatch error.
func NewContentTypeError(expected, actual string) *Error {
	return &Error{
		Code:    ErrCodeContentType,
		Message: fmt.Sprintf("expected content type %q, got %q", expected, actual),
	}
}

// NewDecodeError creates a malformed-content error.
func NewDecodeError(msg string, cause error) *Error {
	return &Error{Code: ErrCodeDecode, Message: msg, Err: cause}
}

// NewStatusError converts a non-2xx HTTP status into a typed error.
// 429 and 5xx are retryable; other 4xx are not.
func NewStatusError(statusCode int, body []byte) *Error {
	return &Error{
		Code:       ErrCodeHTTP,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		StatusCode: statusCode,
		Retryable:  statusCode == 429 || statusCode >= 500,
		Body:       body,
	}
}

// classifyStatus returns a typed error for non-2xx status codes, nil otherwise.
func classifyStatus(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return NewStatusError(statusCode, body)
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool { return hasCode(err, ErrCodeConfiguration) }

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsCancelled checks if an error is a cancellation error.
func IsCancelled(err error) bool { return hasCode(err, ErrCodeCancelled) }

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsContentType checks if an error is a content-type mismatch.
func IsContentType(err error) bool { return hasCode(err, ErrCodeContentType) }

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool { return hasCode(err, ErrCodeDecode) }

// IsStatus checks if an error carries the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == statusCode
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
