package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGuardTimeout(t *testing.T) {
	g := guard{timeout: 30 * time.Millisecond, method: "GET", url: "http://example.com/slow"}

	start := time.Now()
	_, err := g.run(context.Background(), func(runCtx context.Context) (*Response, error) {
		<-runCtx.Done()
		return nil, runCtx.Err()
	})
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("error = %v, want timeout", err)
	}
	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("error = %T, want *Error", err)
	}
	want := "Request timeout of 30ms exceeded for GET http://example.com/slow"
	if typed.Message != want {
		t.Errorf("message = %q, want %q", typed.Message, want)
	}
	if typed.Timeout != 30*time.Millisecond {
		t.Errorf("Timeout = %v", typed.Timeout)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("guard took %v, timer did not fire", elapsed)
	}
}

func TestGuardSuccessUnderDeadline(t *testing.T) {
	g := guard{timeout: time.Second, method: "GET", url: "http://example.com"}

	var sawDeadline bool
	resp, err := g.run(context.Background(), func(runCtx context.Context) (*Response, error) {
		_, sawDeadline = runCtx.Deadline()
		return &Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if !sawDeadline {
		t.Error("internal deadline was not installed")
	}
}

func TestGuardExternalDeadlineSuppressesTimer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// Internal timeout far shorter than the caller's; it must not be used.
	g := guard{timeout: time.Nanosecond, method: "GET", url: "http://example.com"}

	var until time.Duration
	_, err := g.run(ctx, func(runCtx context.Context) (*Response, error) {
		deadline, _ := runCtx.Deadline()
		until = time.Until(deadline)
		<-runCtx.Done()
		return nil, runCtx.Err()
	})

	if !IsCancelled(err) {
		t.Fatalf("error = %v, want cancellation (caller owns the deadline)", err)
	}
	if until < 5*time.Millisecond {
		t.Errorf("deadline %v away, internal timer replaced the caller's", until)
	}
}

func TestGuardCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := guard{timeout: time.Second, method: "POST", url: "http://example.com"}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := g.run(ctx, func(runCtx context.Context) (*Response, error) {
		<-runCtx.Done()
		return nil, runCtx.Err()
	})

	if !IsCancelled(err) {
		t.Fatalf("error = %v, want cancellation", err)
	}
	if IsTimeout(err) {
		t.Error("cancellation misclassified as timeout")
	}
}

func TestGuardTransportFailure(t *testing.T) {
	g := guard{timeout: time.Second, method: "GET", url: "http://example.com"}
	cause := errors.New("connection refused")

	_, err := g.run(context.Background(), func(context.Context) (*Response, error) {
		return nil, cause
	})

	if !IsTransport(err) {
		t.Fatalf("error = %v, want transport", err)
	}
	if !errors.Is(err, cause) {
		t.Error("transport error does not wrap the cause")
	}
	if !IsRetryable(err) {
		t.Error("transport error should be retryable")
	}
}

func TestGuardTypedErrorPassthrough(t *testing.T) {
	g := guard{timeout: time.Second, method: "GET", url: "http://example.com"}
	typed := NewStatusError(503, []byte("unavailable"))

	_, err := g.run(context.Background(), func(context.Context) (*Response, error) {
		return nil, typed
	})

	var got *Error
	if !errors.As(err, &got) || got != typed {
		t.Errorf("error = %v, want the typed error unchanged", err)
	}
}

func TestGuardZeroTimeoutNoDeadline(t *testing.T) {
	g := guard{method: "GET", url: "http://example.com"}

	var sawDeadline bool
	_, err := g.run(context.Background(), func(runCtx context.Context) (*Response, error) {
		_, sawDeadline = runCtx.Deadline()
		return &Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if sawDeadline {
		t.Error("deadline installed despite zero timeout")
	}
}
