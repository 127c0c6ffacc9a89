// Package resilience provides retry and circuit breaker primitives used by
// the fetch client. Both are optional: the client wires them in only when
// the corresponding config section is set.
package resilience
