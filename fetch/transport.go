package fetch

import (
	"context"
	"net/http"
)

// Transport executes a single HTTP round trip. It is the collaborator
// boundary beneath the client: pooling, TLS, and protocol negotiation live
// on the other side of this interface.
type Transport interface {
	RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TransportFunc adapts an ordinary function to the Transport interface.
type TransportFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

// RoundTrip implements Transport.
func (f TransportFunc) RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// httpTransport is the default Transport over net/http. The wrapped client
// carries no Timeout of its own: deadlines are the guard's job, and a
// client-level timeout would also sever streaming bodies mid-read.
type httpTransport struct {
	client *http.Client
}

func newHTTPTransport() *httpTransport {
	return &httpTransport{client: &http.Client{}}
}

// RoundTrip implements Transport.
func (t *httpTransport) RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	return t.client.Do(req.WithContext(ctx))
}
