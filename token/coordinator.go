package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kayrahq/fetchkit/logger"
)

// ErrNoToken is returned when a refresh is requested but no token exists.
var ErrNoToken = errors.New("token: no token available")

// RefreshError wraps the upstream failure a refresh settled with. Every
// caller that joined the refresh receives the same *RefreshError.
type RefreshError struct {
	Err error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	return fmt.Sprintf("token: refresh failed: %v", e.Err)
}

// Unwrap returns the upstream failure.
func (e *RefreshError) Unwrap() error { return e.Err }

// RefreshFunc exchanges the current token pair for a new one upstream.
type RefreshFunc func(ctx context.Context, current *Token) (*Token, error)

// inflight is the shared handle for one refresh in progress. Joiners wait
// on done and then read token/err, which are settled exactly once.
type inflight struct {
	done  chan struct{}
	token *Token
	err   error
}

// Coordinator deduplicates concurrent token refreshes: while one refresh is
// in flight, further calls join it instead of issuing their own upstream
// call, and all of them observe the one settlement.
//
// The coordinator is instance-scoped, one per client, not a process-wide
// singleton.
type Coordinator struct {
	storage Storage
	refresh RefreshFunc
	log     *logger.Logger

	mu   sync.Mutex
	call *inflight // nil while idle
}

// NewCoordinator creates a refresh coordinator.
func NewCoordinator(storage Storage, refresh RefreshFunc, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		storage: storage,
		refresh: refresh,
		log:     log.WithComponent("token"),
	}
}

// Refresh obtains a fresh token pair. When current is nil the stored token
// is used; ErrNoToken is returned if none exists. The first caller starts
// the upstream refresh; callers arriving while it is in flight wait for the
// same outcome. On success the new pair is persisted; on failure the stale
// pair is removed from storage and every waiter gets a *RefreshError.
func (c *Coordinator) Refresh(ctx context.Context, current *Token) (*Token, error) {
	c.mu.Lock()
	if c.call != nil {
		call := c.call
		c.mu.Unlock()
		return c.wait(ctx, call)
	}
	call := &inflight{done: make(chan struct{})}
	c.call = call
	c.mu.Unlock()

	call.token, call.err = c.execute(ctx, current)

	c.mu.Lock()
	c.call = nil
	c.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

// InFlight reports whether a refresh is currently running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call != nil
}

// wait blocks until the joined refresh settles or ctx is cancelled.
// Cancellation detaches only this waiter; the refresh itself continues for
// the others.
func (c *Coordinator) wait(ctx context.Context, call *inflight) (*Token, error) {
	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute performs the upstream refresh and settles storage.
func (c *Coordinator) execute(ctx context.Context, current *Token) (*Token, error) {
	if current == nil {
		stored, err := c.storage.Get(ctx)
		if err != nil {
			return nil, &RefreshError{Err: err}
		}
		if stored == nil {
			return nil, ErrNoToken
		}
		current = stored
	}

	fresh, err := c.refresh(ctx, current)
	if err != nil {
		// The pair failed to refresh; keeping it would retry a dead
		// credential forever.
		if rmErr := c.storage.Remove(ctx); rmErr != nil {
			c.log.Warn("failed to remove stale token", logger.ErrorFields("remove", rmErr))
		}
		c.log.Debug("token refresh failed", logger.ErrorFields("refresh", err))
		return nil, &RefreshError{Err: err}
	}

	if err := c.storage.Set(ctx, fresh); err != nil {
		return nil, &RefreshError{Err: err}
	}
	c.log.Debug("token refreshed")
	return fresh, nil
}
