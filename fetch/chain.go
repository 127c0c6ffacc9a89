package fetch

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler processes an Exchange in place. Returning an error aborts the
// remaining chain; the error is never swallowed by the chain itself.
type Handler func(ctx context.Context, ex *Exchange) error

// Interceptor is a named, ordered pipeline unit.
type Interceptor struct {
	// Name must be unique within a chain.
	Name string
	// Order positions the interceptor; lower runs first. Equal orders run
	// in registration sequence.
	Order int
	// Handler is the interception function.
	Handler Handler
}

// chainEntry tracks registration sequence for stable ordering.
type chainEntry struct {
	Interceptor
	seq int
}

// Chain is an ordered collection of interceptors over an Exchange. The
// collection may be mutated between dispatches; mutating it while a
// dispatch is running on the same goroutine path is the caller's
// responsibility to avoid.
type Chain struct {
	name string

	mu      sync.RWMutex
	entries []chainEntry
	nextSeq int
}

// NewChain creates a chain. The name appears in errors and logs
// (conventionally "request", "response", or "error").
func NewChain(name string) *Chain {
	return &Chain{name: name}
}

// Use registers an interceptor and returns a disposer that ejects it.
// Registering a nil handler, an empty name, or a name already present in
// the chain is a configuration error.
func (c *Chain) Use(i Interceptor) (func(), error) {
	if i.Name == "" {
		return nil, NewConfigurationError(fmt.Sprintf("%s chain: interceptor name must not be empty", c.name))
	}
	if i.Handler == nil {
		return nil, NewConfigurationError(fmt.Sprintf("%s chain: interceptor %q has no handler", c.name, i.Name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Name == i.Name {
			return nil, NewConfigurationError(fmt.Sprintf("%s chain: duplicate interceptor name %q", c.name, i.Name))
		}
	}

	entry := chainEntry{Interceptor: i, seq: c.nextSeq}
	c.nextSeq++

	// Stable insert: ascending Order, ties by registration sequence.
	idx := sort.Search(len(c.entries), func(j int) bool {
		return c.entries[j].Order > entry.Order
	})
	c.entries = append(c.entries, chainEntry{})
	copy(c.entries[idx+1:], c.entries[idx:])
	c.entries[idx] = entry

	name := i.Name
	return func() { c.Eject(name) }, nil
}

// Eject removes the interceptor with the given name. Removing a name that
// is not registered is a no-op, not an error.
func (c *Chain) Eject(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.Name == name {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Dispatch runs the registered interceptors over ex, strictly ascending by
// Order with ties broken by registration sequence. Each interceptor sees
// the Exchange as left by the previous one. The first error aborts the
// rest of the chain and is returned to the caller.
func (c *Chain) Dispatch(ctx context.Context, ex *Exchange) error {
	c.mu.RLock()
	entries := make([]chainEntry, len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	for _, e := range entries {
		if err := e.Handler(ctx, ex); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered interceptors.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Names returns the registered names in dispatch order.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}
