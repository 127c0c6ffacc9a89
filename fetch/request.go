package fetch

import (
	"net/http"
	"time"

	"github.com/kayrahq/fetchkit/fetch/sse"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL if
	// BaseURL is empty. May contain {name} segments filled from PathParams.
	Path string
	// PathParams substitute {name} segments in Path.
	PathParams map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Headers are request-specific headers (merged over client defaults).
	Headers map[string]string
	// Body is the request body. Accepts *MultipartBody, io.Reader, []byte,
	// string, or any value that will be JSON-encoded.
	Body any
	// Timeout bounds this request. Zero uses the client default; a
	// negative value disables the deadline entirely.
	Timeout time.Duration
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// SetHeader sets a request header, allocating the map on first use.
// Interceptors use this to mutate the outbound request in place.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers, flattened to single values.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// StreamResponse wraps a streaming SSE response. The caller must close it
// (or rely on the stream's terminator) to release the connection.
type StreamResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Events is the server-sent event stream.
	Events *sse.Stream
}

// Close releases the stream and its underlying connection.
func (r *StreamResponse) Close() error {
	if r.Events != nil {
		return r.Events.Close()
	}
	return nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
