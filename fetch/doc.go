// Package fetch is an extensible HTTP client runtime. Every call runs
// through three ordered interceptor chains (request, response, error) over
// a mutable per-call Exchange, bounded by a timeout guard that classifies
// failures into a typed error taxonomy. Retry and circuit breaking come
// from the resilience package, token handling from the token package, and
// Server-Sent Events streaming from fetch/sse.
package fetch
