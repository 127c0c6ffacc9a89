package fetch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Route describes one named remote operation as plain data. Path may carry
// {param} segments filled from Request.PathParams at call time.
type Route struct {
	// Name identifies the route in its table and in errors.
	Name string
	// Method is the HTTP method.
	Method string
	// Path is the request path template.
	Path string
	// Expect is the status code a successful call must return. Zero accepts
	// any 2xx.
	Expect int
}

// Routes is a route table keyed by route name.
type Routes map[string]Route

// Lookup returns the named route. Missing names are a configuration error.
func (r Routes) Lookup(name string) (Route, error) {
	route, ok := r[name]
	if !ok {
		return Route{}, NewConfigurationError(fmt.Sprintf("unknown route %q", name))
	}
	if route.Name == "" {
		route.Name = name
	}
	return route, nil
}

// Typed pairs a decoded body with the response it came from.
type Typed[T any] struct {
	*Response
	Value T
}

// Invoke executes a route through f and decodes the JSON response body into
// T. Method and path come from the route; everything else from req.
func Invoke[T any](ctx context.Context, f *Fetcher, route Route, req Request) (*Typed[T], error) {
	if route.Method == "" || route.Path == "" {
		return nil, NewConfigurationError(fmt.Sprintf("route %q: method and path are required", route.Name))
	}
	req.Method = route.Method
	req.Path = route.Path

	resp, err := f.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if route.Expect != 0 && resp.StatusCode != route.Expect {
		statusErr := NewStatusError(resp.StatusCode, resp.Body)
		statusErr.Message = fmt.Sprintf("route %q: expected status %d, got %d", route.Name, route.Expect, resp.StatusCode)
		return nil, statusErr
	}

	result := &Typed[T]{Response: resp}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &result.Value); err != nil {
			return nil, NewDecodeError(fmt.Sprintf("route %q: decode response body", route.Name), err)
		}
	}
	return result, nil
}
