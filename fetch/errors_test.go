package fetch

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTimeoutErrorMessage(t *testing.T) {
	err := NewTimeoutError("POST", "https://api.example.com/v1/run", 2500*time.Millisecond)
	want := "Request timeout of 2500ms exceeded for POST https://api.example.com/v1/run"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if !err.Retryable {
		t.Error("timeout should be retryable")
	}
}

func TestStatusErrorRetryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		err := NewStatusError(tt.status, nil)
		if err.Retryable != tt.retryable {
			t.Errorf("status %d: Retryable = %v, want %v", tt.status, err.Retryable, tt.retryable)
		}
		if err.StatusCode != tt.status {
			t.Errorf("status %d: StatusCode = %d", tt.status, err.StatusCode)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	for _, ok := range []int{200, 201, 204, 299} {
		if err := classifyStatus(ok, nil); err != nil {
			t.Errorf("classifyStatus(%d) = %v, want nil", ok, err)
		}
	}
	err := classifyStatus(502, []byte("bad gateway"))
	if err == nil || err.Code != ErrCodeHTTP {
		t.Fatalf("classifyStatus(502) = %v", err)
	}
	if string(err.Body) != "bad gateway" {
		t.Errorf("Body = %q", err.Body)
	}
}

func TestIsHelpersThroughWrapping(t *testing.T) {
	inner := NewContentTypeError("text/event-stream", "application/json")
	wrapped := fmt.Errorf("opening stream: %w", inner)

	if !IsContentType(wrapped) {
		t.Error("IsContentType failed through wrapping")
	}
	if IsTimeout(wrapped) {
		t.Error("IsTimeout matched a content-type error")
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("call failed: %w", NewStatusError(401, nil))
	if !IsStatus(err, 401) {
		t.Error("IsStatus(err, 401) = false")
	}
	if IsStatus(err, 500) {
		t.Error("IsStatus(err, 500) = true")
	}
	if IsStatus(errors.New("plain"), 401) {
		t.Error("IsStatus matched an untyped error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewTransportError("GET", "http://example.com", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}
}

func TestErrorStringIncludesStatus(t *testing.T) {
	err := NewStatusError(503, nil)
	if got := err.Error(); got != "fetch: http (HTTP 503): HTTP 503" {
		t.Errorf("Error() = %q", got)
	}
}
