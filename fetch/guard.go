package fetch

import (
	"context"
	"errors"
	"time"
)

// guard bounds one transport call with a deadline, without fighting a
// cancellation source the caller already owns.
type guard struct {
	timeout time.Duration
	method  string
	url     string
}

// run executes call, installing an internal deadline only when the request
// asks for one and the caller's context does not already carry a deadline
// of its own. Classification guarantees exactly one of {success, timeout
// failure, cancellation, the call's own failure} surfaces, and the internal
// timer is released on every completion path.
func (g guard) run(ctx context.Context, call func(context.Context) (*Response, error)) (*Response, error) {
	runCtx := ctx
	if g.timeout > 0 {
		if _, external := ctx.Deadline(); !external {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeoutCause(ctx, g.timeout,
				NewTimeoutError(g.method, g.url, g.timeout))
			defer cancel()
		}
	}

	resp, err := call(runCtx)
	if err == nil {
		return resp, nil
	}
	return resp, g.classify(runCtx, err)
}

// classify maps a failed call to the typed taxonomy. A fired internal timer
// is a TimeoutError; any caller-owned cancellation or deadline is a
// CancellationError; everything else is an opaque transport failure.
func (g guard) classify(runCtx context.Context, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	if runCtx.Err() != nil {
		cause := context.Cause(runCtx)
		var te *Error
		if errors.As(cause, &te) && te.Code == ErrCodeTimeout {
			return te
		}
		return NewCancellationError(g.method, g.url, err)
	}

	return NewTransportError(g.method, g.url, err)
}
