package fetch

import "github.com/google/uuid"

// Exchange is the mutable per-call context threaded through the interceptor
// pipeline. One pipeline execution owns it exclusively: interceptors mutate
// it in place, and it is discarded when the execution completes.
type Exchange struct {
	// ID uniquely identifies this execution, for logs and traces.
	ID string
	// Request is the outbound request. Never nil.
	Request *Request
	// Response is set once the transport call returns (also on HTTP-status
	// errors, so error interceptors can inspect it).
	Response *Response
	// Err is the failure the pipeline is currently carrying, nil on the
	// success path. Error interceptors may clear it and substitute a
	// Response to recover.
	Err error

	attrs map[string]any
}

// newExchange creates an Exchange for one execution of req.
func newExchange(req *Request) *Exchange {
	return &Exchange{
		ID:      uuid.NewString(),
		Request: req,
	}
}

// Set stores an attribute on the exchange.
func (e *Exchange) Set(key string, value any) {
	if e.attrs == nil {
		e.attrs = make(map[string]any)
	}
	e.attrs[key] = value
}

// Get returns an attribute and whether it was present.
func (e *Exchange) Get(key string) (any, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Delete removes an attribute.
func (e *Exchange) Delete(key string) {
	delete(e.attrs, key)
}

// Keys returns the attribute keys in unspecified order.
func (e *Exchange) Keys() []string {
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	return keys
}
