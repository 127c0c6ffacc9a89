package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kayrahq/fetchkit/fetch/sse"
	"github.com/kayrahq/fetchkit/logger"
	"github.com/kayrahq/fetchkit/resilience"
)

// Fetcher is the composition root of the client runtime: it owns the three
// interceptor chains, the timeout guard, and the transport, and wires them
// into one pipeline per call.
type Fetcher struct {
	config    Config
	transport Transport
	log       *logger.Logger
	inst      *instruments
	breaker   *resilience.Breaker
	limiter   *resilience.Limiter

	requestChain  *Chain
	responseChain *Chain
	errorChain    *Chain
}

// New creates a Fetcher with the given configuration.
func New(cfg Config) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	f := &Fetcher{
		config:        cfg,
		transport:     cfg.Transport,
		log:           log.WithComponent("fetch"),
		inst:          newInstruments(cfg.Tracing, cfg.Metrics),
		requestChain:  NewChain("request"),
		responseChain: NewChain("response"),
		errorChain:    NewChain("error"),
	}
	if f.transport == nil {
		f.transport = newHTTPTransport()
	}
	if cfg.Breaker != nil {
		f.breaker = resilience.NewBreaker(*cfg.Breaker)
	}
	if cfg.Limiter != nil {
		f.limiter = resilience.NewLimiter(*cfg.Limiter)
	}
	return f, nil
}

// RequestChain returns the chain run before the transport call.
func (f *Fetcher) RequestChain() *Chain { return f.requestChain }

// ResponseChain returns the chain run after a successful transport call.
func (f *Fetcher) ResponseChain() *Chain { return f.responseChain }

// ErrorChain returns the chain run when any stage fails. An interceptor in
// it may recover by clearing Exchange.Err and substituting a Response.
func (f *Fetcher) ErrorChain() *Chain { return f.errorChain }

// Do executes a request through the full pipeline and returns the final
// response, or exactly one typed error. When Config.Retry is set, retryable
// failures re-enter the pipeline with a fresh Exchange.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	if f.config.Retry != nil {
		return resilience.Retry(ctx, *f.config.Retry, func() (*Response, error) {
			return f.execute(ctx, &req)
		})
	}
	return f.execute(ctx, &req)
}

// DoStream executes a request expecting a Server-Sent Events response.
// The response chain observes status and headers before decoding starts;
// bodies are never buffered. Retry never applies to streams, and
// error-chain recovery by response substitution does not either: a
// substituted buffered response cannot stand in for a live stream.
// The caller must close the returned StreamResponse.
func (f *Fetcher) DoStream(ctx context.Context, req Request, opts ...sse.Option) (*StreamResponse, error) {
	ex := newExchange(&req)
	if req.Headers["Accept"] == "" {
		req.SetHeader("Accept", sse.ContentType)
	}

	if err := f.requestChain.Dispatch(ctx, ex); err != nil {
		return nil, f.failStream(ctx, ex, err)
	}

	httpReq, fullURL, err := f.buildRequest(&req)
	if err != nil {
		return nil, f.failStream(ctx, ex, err)
	}

	// No internal deadline for streams: a stream outlives any sensible
	// per-request timeout, so the caller's context is the only bound.
	g := guard{method: req.Method, url: fullURL}
	httpResp, err := f.transport.RoundTrip(ctx, httpReq)
	if err != nil {
		return nil, f.failStream(ctx, ex, g.classify(ctx, err))
	}

	if httpResp.StatusCode >= 400 {
		body, _ := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		return nil, f.failStream(ctx, ex, classifyStatus(httpResp.StatusCode, body))
	}

	ct := httpResp.Header.Get("Content-Type")
	if !strings.Contains(ct, sse.ContentType) {
		_ = httpResp.Body.Close()
		return nil, f.failStream(ctx, ex, NewContentTypeError(sse.ContentType, ct))
	}

	ex.Response = &Response{StatusCode: httpResp.StatusCode, Headers: flattenHeaders(httpResp.Header)}
	if err := f.responseChain.Dispatch(ctx, ex); err != nil {
		_ = httpResp.Body.Close()
		return nil, f.failStream(ctx, ex, err)
	}

	f.log.Debug("stream opened", logger.Fields(
		logger.FieldExchangeID, ex.ID,
		logger.FieldMethod, req.Method,
		logger.FieldURL, fullURL,
	))
	return &StreamResponse{
		StatusCode: ex.Response.StatusCode,
		Headers:    ex.Response.Headers,
		Events:     sse.NewStream(httpResp.Body, opts...),
	}, nil
}

// execute runs one pipeline pass over a fresh Exchange.
func (f *Fetcher) execute(ctx context.Context, req *Request) (*Response, error) {
	ex := newExchange(req)
	started := time.Now()
	ctx, span := f.inst.start(ctx, req.Method, req.Path)

	resp, err := f.run(ctx, ex)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	f.inst.finish(ctx, span, req.Method, started, status, err)
	return resp, err
}

// run dispatches the chains around the guarded transport call.
func (f *Fetcher) run(ctx context.Context, ex *Exchange) (*Response, error) {
	if err := f.requestChain.Dispatch(ctx, ex); err != nil {
		return f.recover(ctx, ex, err)
	}

	resp, err := f.roundTrip(ctx, ex)
	ex.Response = resp
	if err != nil {
		return f.recover(ctx, ex, err)
	}

	if err := f.responseChain.Dispatch(ctx, ex); err != nil {
		return f.recover(ctx, ex, err)
	}
	return ex.Response, nil
}

// recover feeds a pipeline failure to the error chain. If an interceptor
// clears Exchange.Err and leaves a Response, the call resolves with that
// response; otherwise the (possibly rewritten) error is surfaced. An error
// thrown by the error chain itself wins over the original failure.
func (f *Fetcher) recover(ctx context.Context, ex *Exchange, cause error) (*Response, error) {
	ex.Err = cause
	f.log.Debug("request failed", logger.Fields(
		logger.FieldExchangeID, ex.ID,
		logger.FieldMethod, ex.Request.Method,
		logger.FieldError, cause.Error(),
	))

	if err := f.errorChain.Dispatch(ctx, ex); err != nil {
		return ex.Response, err
	}
	if ex.Err == nil && ex.Response != nil {
		return ex.Response, nil
	}
	if ex.Err == nil {
		// An interceptor cleared the failure without substituting a
		// response; the original cause still stands.
		ex.Err = cause
	}
	return ex.Response, ex.Err
}

// failStream runs the error chain for a stream failure and returns the
// final error. Streams cannot be recovered by response substitution.
func (f *Fetcher) failStream(ctx context.Context, ex *Exchange, cause error) error {
	ex.Err = cause
	if err := f.errorChain.Dispatch(ctx, ex); err != nil {
		return err
	}
	if ex.Err == nil {
		return cause
	}
	return ex.Err
}

// replay re-executes the exchange through request chain, transport, and
// response chain, mutating it in place. Used by error interceptors that fix
// the failure cause (e.g. a refreshed credential) and retry once.
func (f *Fetcher) replay(ctx context.Context, ex *Exchange) error {
	ex.Response = nil
	ex.Err = nil
	if err := f.requestChain.Dispatch(ctx, ex); err != nil {
		return err
	}
	resp, err := f.roundTrip(ctx, ex)
	ex.Response = resp
	if err != nil {
		return err
	}
	return f.responseChain.Dispatch(ctx, ex)
}

// roundTrip builds the HTTP request and executes it under the guard,
// optionally through the circuit breaker.
func (f *Fetcher) roundTrip(ctx context.Context, ex *Exchange) (*Response, error) {
	req := ex.Request
	httpReq, fullURL, err := f.buildRequest(req)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	if timeout < 0 {
		timeout = 0
	}
	g := guard{timeout: timeout, method: req.Method, url: fullURL}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, NewCancellationError(req.Method, fullURL, err)
		}
	}

	call := func(runCtx context.Context) (*Response, error) {
		httpResp, err := f.transport.RoundTrip(runCtx, httpReq)
		if err != nil {
			return nil, err
		}
		defer func() { _ = httpResp.Body.Close() }()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		resp := &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    flattenHeaders(httpResp.Header),
			Body:       body,
		}
		if classErr := classifyStatus(resp.StatusCode, body); classErr != nil {
			return resp, classErr
		}
		return resp, nil
	}

	if f.breaker == nil {
		return g.run(ctx, call)
	}

	var resp *Response
	breakerErr := f.breaker.Execute(func() error {
		var callErr error
		resp, callErr = g.run(ctx, call)
		return callErr
	})
	if errors.Is(breakerErr, resilience.ErrBreakerOpen) {
		return nil, &Error{
			Code:    ErrCodeTransport,
			Message: "circuit breaker is open",
			Method:  req.Method,
			URL:     fullURL,
			Err:     breakerErr,
		}
	}
	return resp, breakerErr
}

// buildRequest constructs an *http.Request from the client config and the
// request descriptor. The context is attached by the transport.
func (f *Fetcher) buildRequest(req *Request) (*http.Request, string, error) {
	path, err := expandPath(req.Path, req.PathParams)
	if err != nil {
		return nil, "", err
	}
	fullURL := resolveURL(f.config.BaseURL, path)

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, "", NewConfigurationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequest(req.Method, fullURL, body)
	if err != nil {
		return nil, "", NewConfigurationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", f.config.UserAgent)
	for k, v := range f.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := f.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, fullURL, nil
}

// resolveURL joins the base URL and path unless path is already absolute.
func resolveURL(baseURL, path string) string {
	if baseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// expandPath substitutes {name} segments with escaped parameter values.
func expandPath(path string, params map[string]string) (string, error) {
	if !strings.Contains(path, "{") {
		return path, nil
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(path, '{')
		if i < 0 {
			b.WriteString(path)
			break
		}
		j := strings.IndexByte(path[i:], '}')
		if j < 0 {
			return "", NewConfigurationError(fmt.Sprintf("unclosed path parameter in %q", path))
		}
		name := path[i+1 : i+j]
		value, ok := params[name]
		if !ok {
			return "", NewConfigurationError(fmt.Sprintf("missing path parameter %q", name))
		}
		b.WriteString(path[:i])
		b.WriteString(url.PathEscape(value))
		path = path[i+j+1:]
	}
	return b.String(), nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
